package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/rulekit/internal/engine"
)

// Filter narrows a firing query. Zero fields match everything.
type Filter struct {
	Generation string
	Rule       string
	Outcome    engine.Outcome
	Limit      int
}

// Firings returns matching firings ordered by seq ASC, rule_id ASC COLLATE
// BINARY. Returns an empty slice (not nil) when nothing matches.
func (s *Store) Firings(ctx context.Context, f Filter) ([]engine.Firing, error) {
	var (
		where []string
		args  []any
	)
	if f.Generation != "" {
		where = append(where, "generation = ?")
		args = append(args, f.Generation)
	}
	if f.Rule != "" {
		where = append(where, "rule = ?")
		args = append(args, f.Rule)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(f.Outcome))
	}

	query := `SELECT seq, generation, rule_id, rule, event, outcome, detail FROM firings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC, rule_id COLLATE BINARY ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query firings: %w", err)
	}
	defer rows.Close()

	firings := []engine.Firing{}
	for rows.Next() {
		fr, err := scanFiring(rows)
		if err != nil {
			return nil, err
		}
		firings = append(firings, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firings: %w", err)
	}
	return firings, nil
}

func scanFiring(rows *sql.Rows) (engine.Firing, error) {
	var (
		f       engine.Firing
		outcome string
	)
	if err := rows.Scan(&f.Seq, &f.Generation, &f.RuleID, &f.Rule, &f.Event, &outcome, &f.Detail); err != nil {
		return engine.Firing{}, fmt.Errorf("scan firing: %w", err)
	}
	f.Outcome = engine.Outcome(outcome)
	return f, nil
}

// Generation is a recorded rule set.
type Generation struct {
	ID    string   `json:"id" yaml:"id"`
	Rules []string `json:"rules" yaml:"rules"`
}

// ReadGeneration returns one generation. found is false when it was never
// recorded.
func (s *Store) ReadGeneration(ctx context.Context, id string) (gen Generation, found bool, err error) {
	var names string
	err = s.db.QueryRowContext(ctx, `SELECT id, rules FROM generations WHERE id = ?`, id).Scan(&gen.ID, &names)
	if err == sql.ErrNoRows {
		return Generation{}, false, nil
	}
	if err != nil {
		return Generation{}, false, fmt.Errorf("read generation: %w", err)
	}
	gen.Rules, err = unmarshalNames(names)
	if err != nil {
		return Generation{}, false, err
	}
	return gen, true, nil
}

// RuleCount is a per-rule, per-outcome tally.
type RuleCount struct {
	Rule    string         `json:"rule" yaml:"rule"`
	Outcome engine.Outcome `json:"outcome" yaml:"outcome"`
	Count   int            `json:"count" yaml:"count"`
}

// Summary tallies firings by rule and outcome, optionally within one
// generation. Ordered by rule then outcome.
func (s *Store) Summary(ctx context.Context, generation string) ([]RuleCount, error) {
	query := `SELECT rule, outcome, COUNT(*) FROM firings`
	var args []any
	if generation != "" {
		query += ` WHERE generation = ?`
		args = append(args, generation)
	}
	query += ` GROUP BY rule, outcome ORDER BY rule COLLATE BINARY ASC, outcome ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	counts := []RuleCount{}
	for rows.Next() {
		var (
			c       RuleCount
			outcome string
		)
		if err := rows.Scan(&c.Rule, &outcome, &c.Count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		c.Outcome = engine.Outcome(outcome)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return counts, nil
}

// LastSeq returns the highest recorded seq, or 0 for an empty journal.
// Engines writing to an existing journal start their clock here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM firings`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}
