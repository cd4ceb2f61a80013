package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/host"
)

func TestRecord_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := engine.Firing{
		Seq:        7,
		Generation: "gen-1",
		RuleID:     "abc",
		Rule:       "boom",
		Event:      "tick",
		Outcome:    engine.OutcomePanic,
		Detail:     "RULE_PANIC: panic during execute: nil map (seq=7, rule=boom)",
	}
	require.NoError(t, s.Record(ctx, want))

	got, err := s.Firings(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []engine.Firing{want}, got)
}

func TestRecord_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	f := createTestFiring(1, "a")
	require.NoError(t, s.Record(ctx, f))
	require.NoError(t, s.Record(ctx, f))

	got, err := s.Firings(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRecord_RejectsUnknownOutcome(t *testing.T) {
	s := createTestStore(t)
	f := createTestFiring(1, "a")
	f.Outcome = "skipped"
	assert.Error(t, s.Record(context.Background(), f))
}

func TestFirings_OrderAndFilter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, f := range []engine.Firing{
		createTestFiring(2, "b"),
		createTestFiring(1, "b"),
		createTestFiring(2, "a"),
		{Seq: 3, Generation: "gen-2", RuleID: "id-a", Rule: "a", Event: "tick", Outcome: engine.OutcomeQuota},
	} {
		require.NoError(t, s.Record(ctx, f))
	}

	all, err := s.Firings(ctx, Filter{})
	require.NoError(t, err)
	order := make([]string, len(all))
	for i, f := range all {
		order[i] = f.Rule
	}
	assert.Equal(t, []string{"b", "a", "b", "a"}, order, "seq first, then rule id")

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"generation", Filter{Generation: "gen-1"}, 3},
		{"rule", Filter{Rule: "a"}, 2},
		{"outcome", Filter{Outcome: engine.OutcomeQuota}, 1},
		{"combined", Filter{Generation: "gen-1", Rule: "b"}, 2},
		{"limit", Filter{Limit: 2}, 2},
		{"no match", Filter{Rule: "zzz"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Firings(ctx, tt.filter)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestSummary(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, createTestFiring(1, "b")))
	require.NoError(t, s.Record(ctx, createTestFiring(2, "b")))
	require.NoError(t, s.Record(ctx, createTestFiring(2, "a")))
	panicked := createTestFiring(3, "a")
	panicked.Outcome = engine.OutcomePanic
	require.NoError(t, s.Record(ctx, panicked))

	got, err := s.Summary(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []RuleCount{
		{Rule: "a", Outcome: engine.OutcomeFired, Count: 1},
		{Rule: "a", Outcome: engine.OutcomePanic, Count: 1},
		{Rule: "b", Outcome: engine.OutcomeFired, Count: 2},
	}, got)

	none, err := s.Summary(ctx, "gen-404")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGeneration_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	set := &engine.RuleSet{
		Generation: "gen-1",
		Rules: []*engine.Rule{
			engine.NewRule("1", "<night>", nil, nil),
			engine.NewRule("2", "day", nil, nil),
		},
	}
	require.NoError(t, s.WriteGeneration(ctx, set))
	require.NoError(t, s.WriteGeneration(ctx, set))

	gen, found, err := s.ReadGeneration(ctx, "gen-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, Generation{ID: "gen-1", Rules: []string{"<night>", "day"}}, gen)

	_, found, err = s.ReadGeneration(ctx, "gen-2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_AsEngineJournal(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	eng := engine.New(
		engine.WithJournal(s),
		engine.WithGenerator(engine.NewFixedGenerator("gen-1")),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	set := eng.Load([]*engine.Rule{
		engine.NewRule("r1", "always", nil, []engine.Action{{Key: "noop", Run: func(host.Event, host.Query) {}}}),
	})
	require.NoError(t, s.WriteGeneration(ctx, set))

	res := eng.Dispatch(ctx, "tick", nil)
	require.Equal(t, []string{"always"}, res.Fired)

	got, err := s.Firings(ctx, Filter{Generation: "gen-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, res.Seq, got[0].Seq)
	assert.Equal(t, "r1", got[0].RuleID)
	assert.Equal(t, "string", got[0].Event)
	assert.Equal(t, engine.OutcomeFired, got[0].Outcome)
}

func TestLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.Record(ctx, createTestFiring(3, "a")))
	require.NoError(t, s.Record(ctx, createTestFiring(9, "b")))
	require.NoError(t, s.Record(ctx, createTestFiring(5, "c")))

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), seq)
}
