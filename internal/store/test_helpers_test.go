package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/rulekit/internal/engine"
)

// createTestStore opens a store in a per-test temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestFiring creates a fired entry with minimal required fields.
func createTestFiring(seq int64, rule string) engine.Firing {
	return engine.Firing{
		Seq:        seq,
		Generation: "gen-1",
		RuleID:     "id-" + rule,
		Rule:       rule,
		Event:      "spawn",
		Outcome:    engine.OutcomeFired,
	}
}
