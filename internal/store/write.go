package store

import (
	"context"
	"fmt"

	"github.com/roach88/rulekit/internal/engine"
)

// Record appends a firing. Uses ON CONFLICT DO NOTHING for idempotency:
// recording the same (seq, rule, outcome) twice is silently ignored.
func (s *Store) Record(ctx context.Context, f engine.Firing) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO firings
		(seq, generation, rule_id, rule, event, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		f.Seq,
		f.Generation,
		f.RuleID,
		f.Rule,
		f.Event,
		string(f.Outcome),
		f.Detail,
	)
	if err != nil {
		return fmt.Errorf("record firing: %w", err)
	}
	return nil
}

// WriteGeneration records a loaded rule set. Rewriting a generation that
// already exists is a no-op.
func (s *Store) WriteGeneration(ctx context.Context, set *engine.RuleSet) error {
	names := make([]string, len(set.Rules))
	for i, r := range set.Rules {
		names[i] = r.Name
	}
	namesJSON, err := marshalNames(names)
	if err != nil {
		return fmt.Errorf("write generation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO generations (id, rule_count, rules)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, set.Generation, len(names), namesJSON)
	if err != nil {
		return fmt.Errorf("write generation: %w", err)
	}
	return nil
}
