// Package harness runs rule conformance scenarios against the sandbox host.
//
// A scenario builds a sandbox world, loads rule files into a fresh engine,
// dispatches a list of events and checks what the rules did. Every run uses
// a fixed generation name, a seeded random source and an in-memory journal,
// so the same scenario always produces the same trace.
//
// # Scenario Format
//
//	name: zombie_night_boost
//	description: "Zombies on hard difficulty get stronger at night"
//	rules:
//	  - rules.yaml
//	seed: 7
//	world:
//	  time: 14000
//	  difficulty: hard
//	  blocks:
//	    - { at: "0,63,0", block: grass }
//	entities:
//	  - { id: zombie, at: "0,64,0" }
//	players:
//	  - { name: alex, at: "3,64,0", stages: [nether] }
//	events:
//	  - kind: spawn
//	    entity: zombie
//	    player: alex
//	    expect:
//	      fired: [night-boost]
//	assertions:
//	  - { type: log_contains, line: "zombie health 40" }
//	  - { type: journal, rule: night-boost, count: 1 }
//
// # Assertion Types
//
//   - fired, not_fired: how often a rule fired over the whole run
//   - log_contains, log_order, log_count: the sandbox mutation log
//   - journal: rows the engine recorded for a rule and outcome
//   - diagnostic, no_diagnostics: compile diagnostics
//   - state: a world or player state value after the last event
//
// # Golden Files
//
// Snapshot renders the trace (one entry per event: seq, rules fired,
// errors and the mutations it caused) as JSON. RunWithGolden compares it
// against testdata/golden/<name>.golden with goldie; the CLI test command
// keeps golden files next to the scenarios instead.
package harness
