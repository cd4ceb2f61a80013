// Package store provides the SQLite-backed firing journal.
//
// The journal is append-only:
//   - Generations: one row per loaded rule set, with its rule names
//   - Firings: one row per rule that fired, panicked or was cut off by an
//     engine firing cap
//
// # Ordering
//
// All ordering uses seq (the engine's logical clock), never timestamps, so a
// replayed scenario produces an identical journal. Queries order by
// seq ASC, rule_id ASC COLLATE BINARY.
//
// # Idempotency
//
// UNIQUE(seq, rule_id, outcome) makes a repeated Record a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Store implements engine.Journal.
package store
