// Package engine holds compiled rules and evaluates them against events.
//
// A Rule is an ordered list of Checks and an ordered list of Actions, built
// once by the compiler and immutable afterwards. The Engine keeps the current
// RuleSet behind an atomic pointer: Load swaps in a whole new generation and
// never edits one in place.
//
// Dispatch evaluates rules in declaration order. For each rule the checks run
// in order and stop at the first false; if all pass, the actions run in
// order. Every dispatch is stamped with the next value of a logical Clock,
// never a wall-clock time, so journal entries order identically on replay.
//
// Failures stay inside the engine. A panicking check or action is recovered,
// logged and journaled, and the remaining rules still run. Journal writes are
// best-effort.
package engine
