package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/rulekit/internal/compiler"
	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/loader"
	"github.com/roach88/rulekit/internal/random"
	"github.com/roach88/rulekit/internal/sandbox"
	"github.com/roach88/rulekit/internal/store"
)

// DefaultGeneration names the rule set when a scenario does not.
const DefaultGeneration = "scenario"

// Metrics is the instrumentation both the compiler and the engine report to.
type Metrics interface {
	engine.Metrics
	compiler.Metrics
}

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the logger handed to the compiler and engine.
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithMetrics reports compile and dispatch instrumentation to m.
func WithMetrics(m Metrics) Option {
	return func(h *Harness) { h.metrics = m }
}

// WithRegistry replaces the sandbox item, block and potion registry.
// Default: sandbox.Vanilla().
func WithRegistry(r host.Registry) Option {
	return func(h *Harness) { h.registry = r }
}

// WithJournal records firings into st instead of a fresh in-memory
// journal. The engine clock continues after the journal's last seq, and
// the caller keeps ownership of st.
func WithJournal(st *store.Store) Option {
	return func(h *Harness) { h.journal = st }
}

// WithGenerator names the rule set with g instead of the scenario's fixed
// generation.
func WithGenerator(g engine.GenerationGenerator) Option {
	return func(h *Harness) { h.generator = g }
}

// Harness runs one scenario against a fresh sandbox.
type Harness struct {
	logger    *slog.Logger
	metrics   Metrics
	registry  host.Registry
	journal   *store.Store
	generator engine.GenerationGenerator

	store   *store.Store
	fixture *fixture
	engine  *engine.Engine
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh sandbox world with a fresh in-memory
// journal, a fixed generation name and a seeded random source, so the same
// scenario always yields the same trace.
//
// Execution flow:
//  1. Build the sandbox world, entities and players
//  2. Load and compile the rule files
//  3. Dispatch each event, checking its expect clause
//  4. Evaluate assertions against the trace, log, journal and state
//
// A returned error means the scenario could not run at all; failed
// expectations are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		registry: sandbox.Vanilla(),
	}
	for _, opt := range opts {
		opt(h)
	}

	st := h.journal
	if st == nil {
		mem, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
		}
		defer mem.Close()
		st = mem
	}
	h.store = st
	lastSeq, err := st.LastSeq(ctx)
	if err != nil {
		return nil, err
	}

	fx, err := buildFixture(scenario, h.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build sandbox: %w", err)
	}
	h.fixture = fx

	rules, diags, err := h.compile(scenario)
	if err != nil {
		return nil, err
	}

	gen := h.generator
	if gen == nil {
		generation := scenario.Generation
		if generation == "" {
			generation = DefaultGeneration
		}
		gen = engine.NewFixedGenerator(generation)
	}
	engineOpts := []engine.Option{
		engine.WithLogger(h.logger),
		engine.WithJournal(st),
		engine.WithGenerator(gen),
		engine.WithClock(engine.NewClockAt(lastSeq)),
	}
	if h.metrics != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(h.metrics))
	}
	h.engine = engine.New(engineOpts...)
	rs := h.engine.Load(rules)
	if err := st.WriteGeneration(ctx, rs); err != nil {
		return nil, err
	}

	result := NewResult()
	result.Generation = rs.Generation
	for _, d := range diags {
		result.Diagnostics = append(result.Diagnostics, d.String())
	}

	if err := h.dispatch(ctx, scenario.Events, result); err != nil {
		return nil, err
	}
	result.Log = fx.world.Log().Lines()

	actx := &AssertionContext{
		Ctx:         ctx,
		Store:       st,
		Diagnostics: diags,
		fixture:     fx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// compile loads every rule path in declaration order. Load errors abort the
// run; compile diagnostics do not.
func (h *Harness) compile(scenario *Scenario) ([]*engine.Rule, []compiler.Diagnostic, error) {
	src := random.Source(random.NewLocked(1))
	switch {
	case len(scenario.Random) > 0:
		src = random.NewFixed(scenario.Random...)
	case scenario.Seed != nil:
		src = random.NewLocked(*scenario.Seed)
	}

	copts := []compiler.Option{
		compiler.WithLogger(h.logger),
		compiler.WithRegistry(h.registry),
		compiler.WithCompat(h.fixture.compat),
		compiler.WithRandom(src),
	}
	if h.metrics != nil {
		copts = append(copts, compiler.WithMetrics(h.metrics))
	}
	c := compiler.New(copts...)

	var (
		rules []*engine.Rule
		diags []compiler.Diagnostic
	)
	for _, path := range scenario.Rules {
		loaded, errs := loader.LoadPath(path, loader.LoadModeCollectAll)
		if len(errs) > 0 {
			return nil, nil, fmt.Errorf("failed to load rules: %w", errors.Join(errs...))
		}
		for _, lr := range loaded {
			rule, ds := c.Compile(lr.Name, lr.Attrs)
			rules = append(rules, rule)
			diags = append(diags, ds...)
		}
	}
	return rules, diags, nil
}

// dispatch runs each event through the engine and records what it did.
func (h *Harness) dispatch(ctx context.Context, steps []EventStep, result *Result) error {
	log := h.fixture.world.Log()
	for i, step := range steps {
		ev, err := h.fixture.event(step)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}

		before := len(log.Entries())
		res := h.engine.Dispatch(ctx, ev, sandbox.Query{})
		mutations := log.Lines()[before:]

		te := TraceEvent{
			Seq:       res.Seq,
			Event:     step.Kind,
			Fired:     res.Fired,
			Mutations: mutations,
		}
		if te.Fired == nil {
			te.Fired = []string{}
		}
		for _, err := range res.Errors {
			te.Errors = append(te.Errors, err.Error())
		}
		result.Trace = append(result.Trace, te)

		if step.Expect != nil {
			for _, msg := range checkExpect(i, step, te) {
				result.AddError(msg)
			}
		}

		h.logger.Info("event dispatched",
			"step", i,
			"event", step.Kind,
			"seq", res.Seq,
			"fired", len(res.Fired),
		)
	}
	return nil
}

func checkExpect(i int, step EventStep, te TraceEvent) []string {
	var errs []string
	if !slices.Equal(step.Expect.Fired, te.Fired) {
		errs = append(errs, fmt.Sprintf("event %d (%s): fired %v, want %v", i, step.Kind, te.Fired, step.Expect.Fired))
	}
	if step.Expect.Mutations != nil && !slices.Equal(step.Expect.Mutations, te.Mutations) {
		errs = append(errs, fmt.Sprintf("event %d (%s): mutations %q, want %q", i, step.Kind, te.Mutations, step.Expect.Mutations))
	}
	if len(te.Errors) != step.Expect.Errors {
		errs = append(errs, fmt.Sprintf("event %d (%s): %d errors, want %d", i, step.Kind, len(te.Errors), step.Expect.Errors))
	}
	return errs
}
