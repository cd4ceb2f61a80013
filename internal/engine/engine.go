package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/roach88/rulekit/internal/host"
)

// RuleSet is one loaded generation of rules, in declaration order.
// It is never modified after Load publishes it.
type RuleSet struct {
	Generation string
	Rules      []*Rule
}

// Result summarizes one dispatch.
type Result struct {
	Seq        int64
	Generation string
	// Fired lists the names of rules whose actions ran, in order.
	Fired []string
	// Errors holds recovered panics and quota violations.
	Errors []error
}

// Engine evaluates the current rule set against events.
//
// Load and Dispatch are safe from any goroutine. A dispatch sees exactly one
// rule set, even if Load runs concurrently. Dispatch never blocks.
type Engine struct {
	rules      atomic.Pointer[RuleSet]
	clock      *Clock
	generator  GenerationGenerator
	journal    Journal
	metrics    Metrics
	logger     *slog.Logger
	maxFirings int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithJournal records every firing to j.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithMetrics reports dispatch instrumentation to m.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithGenerator sets how rule-set generations are named.
// Default: UUIDv7Generator.
func WithGenerator(g GenerationGenerator) Option {
	return func(e *Engine) { e.generator = g }
}

// WithClock replaces the logical clock, e.g. to continue a journal's
// sequence numbering.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithMaxFirings caps how many rules may fire for one event. Once the cap is
// reached the remaining rules are skipped for that event. Default: no cap.
func WithMaxFirings(n int) Option {
	return func(e *Engine) { e.maxFirings = n }
}

// New creates an engine with an empty rule set.
func New(opts ...Option) *Engine {
	e := &Engine{
		clock:      NewClock(),
		generator:  UUIDv7Generator{},
		journal:    nopJournal{},
		metrics:    nopMetrics{},
		logger:     slog.Default(),
		maxFirings: DefaultMaxFirings,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.rules.Store(&RuleSet{})
	return e
}

// Load replaces the rule set wholesale and returns the new generation.
// Dispatches already in flight finish against the previous set.
func (e *Engine) Load(rules []*Rule) *RuleSet {
	rs := &RuleSet{
		Generation: e.generator.Generate(),
		Rules:      slices.Clone(rules),
	}
	e.rules.Store(rs)
	e.metrics.SetRules(len(rs.Rules))
	e.logger.Info("rule set loaded", "generation", rs.Generation, "rules", len(rs.Rules))
	return rs
}

// RuleSet returns the current rule set.
func (e *Engine) RuleSet() *RuleSet {
	return e.rules.Load()
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Dispatch evaluates every rule in declaration order against ev and executes
// the actions of each rule that matches. Rules do not interact: a panic in
// one rule is recovered and the rest of the batch continues.
func (e *Engine) Dispatch(ctx context.Context, ev host.Event, q host.Query) Result {
	start := time.Now()
	rs := e.rules.Load()
	seq := e.clock.Next()
	res := Result{Seq: seq, Generation: rs.Generation}
	label := EventLabel(ev)
	quota := newFiringQuota(e.maxFirings)

	for _, r := range rs.Rules {
		matched, err := e.guard(seq, r, "match", func() bool { return r.Match(ev, q) })
		if err != nil {
			e.fail(ctx, &res, rs, r, label, err)
			continue
		}
		if !matched {
			continue
		}

		if err := quota.Check(seq); err != nil {
			e.logger.Error("firing quota exceeded",
				"seq", seq,
				"rule", r.Name,
				"limit", e.maxFirings,
			)
			res.Errors = append(res.Errors, err)
			e.record(ctx, rs, r, seq, label, OutcomeQuota, err.Error())
			e.metrics.IncFiring(r.Name, OutcomeQuota)
			break
		}

		if _, err := e.guard(seq, r, "execute", func() bool { r.Execute(ev, q); return true }); err != nil {
			e.fail(ctx, &res, rs, r, label, err)
			continue
		}
		res.Fired = append(res.Fired, r.Name)
		e.record(ctx, rs, r, seq, label, OutcomeFired, "")
		e.metrics.IncFiring(r.Name, OutcomeFired)
		e.logger.Debug("rule fired", "seq", seq, "rule", r.Name, "generation", rs.Generation)
	}

	e.metrics.ObserveDispatch(time.Since(start), len(res.Fired))
	return res
}

// guard runs fn and converts a panic into a RuntimeError.
func (e *Engine) guard(seq int64, r *Rule, phase string, fn func() bool) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ok, err = false, newPanicError(seq, r, phase, rec)
		}
	}()
	return fn(), nil
}

func (e *Engine) fail(ctx context.Context, res *Result, rs *RuleSet, r *Rule, label string, err error) {
	e.logger.Error("rule panicked",
		"seq", res.Seq,
		"rule", r.Name,
		"generation", rs.Generation,
		"error", err,
	)
	res.Errors = append(res.Errors, err)
	e.record(ctx, rs, r, res.Seq, label, OutcomePanic, err.Error())
	e.metrics.IncFiring(r.Name, OutcomePanic)
}

func (e *Engine) record(ctx context.Context, rs *RuleSet, r *Rule, seq int64, label string, outcome Outcome, detail string) {
	f := Firing{
		Seq:        seq,
		Generation: rs.Generation,
		RuleID:     r.ID,
		Rule:       r.Name,
		Event:      label,
		Outcome:    outcome,
		Detail:     detail,
	}
	if err := e.journal.Record(ctx, f); err != nil {
		e.logger.Warn("journal write failed", "seq", seq, "rule", r.Name, "error", err)
	}
}
