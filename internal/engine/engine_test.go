package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/sandbox"
)

type memJournal struct {
	mu      sync.Mutex
	firings []Firing
	err     error
}

func (j *memJournal) Record(_ context.Context, f Firing) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.firings = append(j.firings, f)
	return nil
}

func (j *memJournal) all() []Firing {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Firing(nil), j.firings...)
}

type memMetrics struct {
	mu         sync.Mutex
	dispatches int
	fired      int
	outcomes   map[Outcome]int
	rules      int
}

func (m *memMetrics) ObserveDispatch(_ time.Duration, fired int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatches++
	m.fired += fired
}

func (m *memMetrics) IncFiring(_ string, o Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[Outcome]int)
	}
	m.outcomes[o]++
}

func (m *memMetrics) SetRules(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// healthRule sets the actor's health when the world is raining.
func healthRule(name string, health float64) *Rule {
	return NewRule("id-"+name, name,
		[]Check{{Key: "weather", Test: func(ev host.Event, q host.Query) bool {
			w := q.World(ev)
			return w != nil && w.Raining()
		}}},
		[]Action{{Key: "health", Run: func(ev host.Event, q host.Query) {
			if e := q.Entity(ev); e != nil {
				e.SetHealth(health)
			}
		}}},
	)
}

func panicRule(name string) *Rule {
	return NewRule("id-"+name, name, nil, []Action{{Key: "boom", Run: func(host.Event, host.Query) {
		panic("boom")
	}}})
}

func newTestEvent() (*sandbox.World, *sandbox.Entity, *sandbox.Event) {
	w := sandbox.NewWorld()
	w.Rain = true
	zombie := w.NewEntity("zombie", host.Pos{Y: 64})
	return w, zombie, &sandbox.Event{Kind: "spawn", World: w, Entity: zombie}
}

func TestEngine_NewHasEmptyRuleSet(t *testing.T) {
	e := New(WithLogger(quietLogger()))
	rs := e.RuleSet()
	require.NotNil(t, rs)
	assert.Empty(t, rs.Rules)
	assert.Equal(t, "", rs.Generation)

	res := e.Dispatch(context.Background(), &sandbox.Event{}, sandbox.Query{})
	assert.Empty(t, res.Fired)
	assert.Equal(t, int64(1), res.Seq)
}

func TestEngine_DispatchFiresInDeclarationOrder(t *testing.T) {
	j := &memJournal{}
	e := New(
		WithLogger(quietLogger()),
		WithJournal(j),
		WithGenerator(NewFixedGenerator("gen-1")),
	)
	e.Load([]*Rule{healthRule("first", 5), healthRule("second", 7)})

	_, zombie, ev := newTestEvent()
	res := e.Dispatch(context.Background(), ev, sandbox.Query{})

	assert.Equal(t, []string{"first", "second"}, res.Fired)
	assert.Equal(t, "gen-1", res.Generation)
	assert.Empty(t, res.Errors)
	assert.InDelta(t, 7.0, zombie.Health(), 1e-9, "later rules see earlier effects")

	firings := j.all()
	require.Len(t, firings, 2)
	assert.Equal(t, Firing{Seq: 1, Generation: "gen-1", RuleID: "id-first", Rule: "first", Event: "spawn", Outcome: OutcomeFired}, firings[0])
	assert.Equal(t, "second", firings[1].Rule)
}

func TestEngine_NonMatchingRuleDoesNotFire(t *testing.T) {
	e := New(WithLogger(quietLogger()))
	e.Load([]*Rule{healthRule("rain", 5)})

	w, zombie, ev := newTestEvent()
	w.Rain = false
	res := e.Dispatch(context.Background(), ev, sandbox.Query{})

	assert.Empty(t, res.Fired)
	assert.InDelta(t, 20.0, zombie.Health(), 1e-9)
	assert.Empty(t, w.Log().Entries())
}

func TestEngine_RecoversPanickingRule(t *testing.T) {
	j := &memJournal{}
	m := &memMetrics{}
	e := New(WithLogger(quietLogger()), WithJournal(j), WithMetrics(m))
	e.Load([]*Rule{panicRule("bad"), healthRule("good", 3)})

	_, zombie, ev := newTestEvent()
	var res Result
	require.NotPanics(t, func() {
		res = e.Dispatch(context.Background(), ev, sandbox.Query{})
	})

	assert.Equal(t, []string{"good"}, res.Fired)
	require.Len(t, res.Errors, 1)
	assert.True(t, IsPanicError(res.Errors[0]))
	assert.Contains(t, res.Errors[0].Error(), "boom")
	assert.InDelta(t, 3.0, zombie.Health(), 1e-9)

	firings := j.all()
	require.Len(t, firings, 2)
	assert.Equal(t, OutcomePanic, firings[0].Outcome)
	assert.Equal(t, OutcomeFired, firings[1].Outcome)

	assert.Equal(t, 1, m.outcomes[OutcomePanic])
	assert.Equal(t, 1, m.outcomes[OutcomeFired])
	assert.Equal(t, 1, m.dispatches)
	assert.Equal(t, 2, m.rules)
}

func TestEngine_RecoversPanickingCheck(t *testing.T) {
	e := New(WithLogger(quietLogger()))
	bad := NewRule("id", "bad-check", []Check{{Key: "nil", Test: func(host.Event, host.Query) bool {
		var m map[string]int
		m["x"] = 1
		return true
	}}}, nil)
	e.Load([]*Rule{bad})

	res := e.Dispatch(context.Background(), nil, sandbox.Query{})
	require.Len(t, res.Errors, 1)

	var re *RuntimeError
	require.True(t, errors.As(res.Errors[0], &re))
	assert.Equal(t, "match", re.Phase)
	assert.Equal(t, "bad-check", re.Rule)
}

func TestEngine_JournalFailureIsBestEffort(t *testing.T) {
	var logs bytes.Buffer
	j := &memJournal{err: errors.New("disk full")}
	e := New(WithLogger(slog.New(slog.NewTextHandler(&logs, nil))), WithJournal(j))
	e.Load([]*Rule{healthRule("r", 4)})

	_, zombie, ev := newTestEvent()
	res := e.Dispatch(context.Background(), ev, sandbox.Query{})

	assert.Equal(t, []string{"r"}, res.Fired)
	assert.Empty(t, res.Errors)
	assert.InDelta(t, 4.0, zombie.Health(), 1e-9)
	assert.Contains(t, logs.String(), "journal write failed")
}

func TestEngine_FiringQuota(t *testing.T) {
	j := &memJournal{}
	e := New(WithLogger(quietLogger()), WithJournal(j), WithMaxFirings(2))
	e.Load([]*Rule{healthRule("a", 1), healthRule("b", 2), healthRule("c", 3)})

	_, zombie, ev := newTestEvent()
	res := e.Dispatch(context.Background(), ev, sandbox.Query{})

	assert.Equal(t, []string{"a", "b"}, res.Fired)
	require.Len(t, res.Errors, 1)
	assert.True(t, IsQuotaError(res.Errors[0]))
	assert.True(t, IsFiringsExceededError(res.Errors[0]))
	assert.InDelta(t, 2.0, zombie.Health(), 1e-9)

	firings := j.all()
	require.Len(t, firings, 3)
	assert.Equal(t, OutcomeQuota, firings[2].Outcome)
}

func TestEngine_DefaultFiresEveryMatchingRule(t *testing.T) {
	const n = 300
	var ran atomic.Int64
	rules := make([]*Rule, n)
	for i := range rules {
		name := fmt.Sprintf("r%03d", i)
		rules[i] = NewRule("id-"+name, name, nil, []Action{{Key: "count", Run: func(host.Event, host.Query) {
			ran.Add(1)
		}}})
	}

	j := &memJournal{}
	e := New(WithLogger(quietLogger()), WithJournal(j))
	e.Load(rules)
	res := e.Dispatch(context.Background(), &sandbox.Event{Kind: "spawn"}, sandbox.Query{})

	assert.Len(t, res.Fired, n)
	assert.Empty(t, res.Errors)
	assert.Equal(t, int64(n), ran.Load())
	for _, f := range j.all() {
		assert.Equal(t, OutcomeFired, f.Outcome)
	}
}

func TestEngine_LoadSwapsGeneration(t *testing.T) {
	e := New(WithLogger(quietLogger()), WithGenerator(NewFixedGenerator("gen-1", "gen-2")))

	first := e.Load([]*Rule{healthRule("a", 1)})
	second := e.Load([]*Rule{healthRule("b", 2), healthRule("c", 3)})

	assert.Equal(t, "gen-1", first.Generation)
	assert.Equal(t, "gen-2", second.Generation)
	assert.Same(t, second, e.RuleSet())
	assert.Len(t, first.Rules, 1, "published rule sets are never edited")
}

func TestEngine_LoadCopiesRules(t *testing.T) {
	e := New(WithLogger(quietLogger()))
	rules := []*Rule{healthRule("a", 1)}
	e.Load(rules)
	rules[0] = healthRule("b", 2)

	assert.Equal(t, "a", e.RuleSet().Rules[0].Name)
}

func TestEngine_ConcurrentDispatchAndLoad(t *testing.T) {
	e := New(WithLogger(quietLogger()))
	e.Load([]*Rule{healthRule("a", 1)})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, ev := newTestEvent()
			for j := 0; j < 50; j++ {
				e.Dispatch(context.Background(), ev, sandbox.Query{})
			}
		}()
		go func() {
			defer wg.Done()
			e.Load([]*Rule{healthRule("b", 2)})
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(400), e.Clock().Current())
}

func TestEngine_WithClockContinuesSequence(t *testing.T) {
	e := New(WithLogger(quietLogger()), WithClock(NewClockAt(41)))
	res := e.Dispatch(context.Background(), nil, sandbox.Query{})
	assert.Equal(t, int64(42), res.Seq)
}

func TestEventLabel(t *testing.T) {
	assert.Equal(t, "spawn", EventLabel(&sandbox.Event{Kind: "spawn"}))
	assert.Equal(t, "*sandbox.Event", EventLabel(&sandbox.Event{}))
	assert.Equal(t, "<nil>", EventLabel(nil))
}
