package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a rule conformance test: a sandbox world, the rule files to
// load into it, a sequence of events, and assertions over what happened.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules lists rule files or directories, relative to the scenario file.
	Rules []string `yaml:"rules"`

	// Seed seeds the random source shared by every rule. Default: 1.
	Seed *uint64 `yaml:"seed,omitempty"`

	// Random, when set, replaces the seeded source with a fixed cycle of
	// values. Use it to force random clauses one way or the other.
	Random []float64 `yaml:"random,omitempty"`

	// Compat is "full" (every optional system installed) or "none".
	// Default: full.
	Compat string `yaml:"compat,omitempty"`

	// Generation names the rule set in the trace. Default: "scenario".
	Generation string `yaml:"generation,omitempty"`

	World    WorldSpec    `yaml:"world,omitempty"`
	Entities []EntitySpec `yaml:"entities,omitempty"`
	Players  []PlayerSpec `yaml:"players,omitempty"`

	// Events are dispatched in order, one engine dispatch each.
	Events []EventStep `yaml:"events"`

	// Assertions validate the final trace, log, journal and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// WorldSpec configures the sandbox world. Zero fields keep the sandbox
// defaults: a lit plains overworld on normal difficulty.
type WorldSpec struct {
	Time            int64             `yaml:"time,omitempty"`
	Dimension       int               `yaml:"dimension,omitempty"`
	Raining         bool              `yaml:"raining,omitempty"`
	Thundering      bool              `yaml:"thundering,omitempty"`
	Difficulty      string            `yaml:"difficulty,omitempty"`
	LocalDifficulty float64           `yaml:"local_difficulty,omitempty"`
	Light           *int              `yaml:"light,omitempty"`
	Sky             *bool             `yaml:"sky,omitempty"`
	Spawn           string            `yaml:"spawn,omitempty"`
	LookAt          string            `yaml:"look_at,omitempty"`
	Biome           *BiomeSpec        `yaml:"biome,omitempty"`
	Structures      []string          `yaml:"structures,omitempty"`
	Season          string            `yaml:"season,omitempty"`
	Zones           []string          `yaml:"zones,omitempty"`
	States          map[string]string `yaml:"states,omitempty"`
	Blocks          []BlockSpec       `yaml:"blocks,omitempty"`
}

// BiomeSpec replaces the world biome.
type BiomeSpec struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name"`
	Temp  string   `yaml:"temp,omitempty"`
	Types []string `yaml:"types,omitempty"`
}

// BlockSpec places a block, optionally with an energy store or inventory.
type BlockSpec struct {
	At        string   `yaml:"at"`
	Block     string   `yaml:"block"`
	Energy    *int     `yaml:"energy,omitempty"`
	Inventory []string `yaml:"inventory,omitempty"`
}

// EntitySpec adds a mob.
type EntitySpec struct {
	ID        string            `yaml:"id"`
	At        string            `yaml:"at"`
	MaxHealth *float64          `yaml:"max_health,omitempty"`
	Health    *float64          `yaml:"health,omitempty"`
	Equipment map[string]string `yaml:"equipment,omitempty"`
	NBT       string            `yaml:"nbt,omitempty"`
}

// PlayerSpec adds a player.
type PlayerSpec struct {
	Name        string            `yaml:"name"`
	At          string            `yaml:"at"`
	Capacity    *int              `yaml:"capacity,omitempty"`
	Equipment   map[string]string `yaml:"equipment,omitempty"`
	Stages      []string          `yaml:"stages,omitempty"`
	States      map[string]string `yaml:"states,omitempty"`
	Accessories map[int]string    `yaml:"accessories,omitempty"`
}

// EventStep dispatches one event.
type EventStep struct {
	// Kind labels the event in the trace and journal.
	Kind string `yaml:"kind"`

	// Entity and Player name the actors; either may be empty.
	Entity string `yaml:"entity,omitempty"`
	Player string `yaml:"player,omitempty"`

	// At overrides the event position ("x,y,z").
	At string `yaml:"at,omitempty"`

	// Expect, if set, is checked against this dispatch alone.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause checks a single dispatch.
type ExpectClause struct {
	// Fired is the exact, ordered list of rules that fired.
	Fired []string `yaml:"fired"`

	// Mutations, if set, is the exact list of log lines this dispatch added.
	Mutations []string `yaml:"mutations,omitempty"`

	// Errors is the number of recovered panics and quota violations.
	Errors int `yaml:"errors,omitempty"`
}

// Assertion validates the outcome of the whole scenario.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Rule names the rule (fired, not_fired, journal).
	Rule string `yaml:"rule,omitempty"`

	// Count is an exact count (fired, log_count, journal). Nil on fired
	// means at least once.
	Count *int `yaml:"count,omitempty"`

	// Outcome filters journal assertions. Default: fired.
	Outcome string `yaml:"outcome,omitempty"`

	// Line is a mutation log line (log_contains, log_count).
	Line string `yaml:"line,omitempty"`

	// Lines are mutation log lines expected in this order (log_order).
	Lines []string `yaml:"lines,omitempty"`

	// Code is a diagnostic code (diagnostic).
	Code string `yaml:"code,omitempty"`

	// Player, Name and Value address a state value (state). An empty
	// player means world state.
	Player string `yaml:"player,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Value  string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertFired         = "fired"
	AssertNotFired      = "not_fired"
	AssertLogContains   = "log_contains"
	AssertLogOrder      = "log_order"
	AssertLogCount      = "log_count"
	AssertJournal       = "journal"
	AssertDiagnostic    = "diagnostic"
	AssertNoDiagnostics = "no_diagnostics"
	AssertState         = "state"
)

// LoadScenario reads and parses a scenario YAML file.
// Rule paths are resolved relative to the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, rulePath := range scenario.Rules {
		if !filepath.IsAbs(rulePath) {
			scenario.Rules[i] = filepath.Join(base, rulePath)
		}
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario. Rule paths are left as
// written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict fields catch typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Rules) == 0 {
		return fmt.Errorf("rules list is required and must be non-empty")
	}

	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}

	switch s.Compat {
	case "", "full", "none":
	default:
		return fmt.Errorf("compat must be full or none, got %q", s.Compat)
	}

	seen := make(map[string]bool)
	for i, e := range s.Entities {
		if e.ID == "" {
			return fmt.Errorf("entity[%d]: id is required", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("entity[%d]: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = true
	}
	for i, p := range s.Players {
		if p.Name == "" {
			return fmt.Errorf("player[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("player[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
	}

	for i, ev := range s.Events {
		if ev.Kind == "" {
			return fmt.Errorf("event[%d]: kind is required", i)
		}
		if ev.Entity != "" && !seen[ev.Entity] {
			return fmt.Errorf("event[%d]: unknown entity %q", i, ev.Entity)
		}
		if ev.Player != "" && !seen[ev.Player] {
			return fmt.Errorf("event[%d]: unknown player %q", i, ev.Player)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion[%d]: %w", i, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertFired, AssertNotFired, AssertJournal:
		if a.Rule == "" {
			return fmt.Errorf("%s requires rule", a.Type)
		}
	case AssertLogContains:
		if a.Line == "" {
			return fmt.Errorf("%s requires line", a.Type)
		}
	case AssertLogCount:
		if a.Line == "" || a.Count == nil {
			return fmt.Errorf("%s requires line and count", a.Type)
		}
	case AssertLogOrder:
		if len(a.Lines) < 2 {
			return fmt.Errorf("%s requires at least two lines", a.Type)
		}
	case AssertDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("%s requires code", a.Type)
		}
	case AssertNoDiagnostics:
	case AssertState:
		if a.Name == "" {
			return fmt.Errorf("%s requires name", a.Type)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
