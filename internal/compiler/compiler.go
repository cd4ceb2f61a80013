// Package compiler turns one rule's attribute map into an engine.Rule.
//
// Conditions compile into checks ordered from cheapest to most expensive;
// actions compile in a fixed execution order. A clause that cannot be
// compiled (unknown item, malformed expression, missing optional system) is
// dropped with a Diagnostic and the rest of the rule still compiles, so a
// rule with a bad clause becomes more permissive on that one axis.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/rulekit/internal/attr"
	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/random"
)

// Metrics receives compile instrumentation.
type Metrics interface {
	ObserveCompile(d time.Duration)
	IncDiagnostic(code string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveCompile(time.Duration) {}
func (nopMetrics) IncDiagnostic(string)         {}

// emptyRegistry resolves nothing.
type emptyRegistry struct{}

func (emptyRegistry) Item(string) (host.ItemDef, bool)   { return host.ItemDef{}, false }
func (emptyRegistry) Block(string) (host.BlockDef, bool) { return host.BlockDef{}, false }
func (emptyRegistry) Potion(string) bool                 { return false }

// Compiler compiles rules against one registry and compatibility layer.
// It is safe for concurrent use.
type Compiler struct {
	logger   *slog.Logger
	registry host.Registry
	compat   host.Compat
	random   random.Source
	metrics  Metrics
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger diagnostics are written to.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithRegistry sets the registry items, blocks and potions resolve against.
func WithRegistry(r host.Registry) Option {
	return func(c *Compiler) { c.registry = r }
}

// WithCompat sets the optional-system probe. Default: host.NoCompat.
func WithCompat(compat host.Compat) Option {
	return func(c *Compiler) { c.compat = compat }
}

// WithRandom sets the source shared by random checks and weighted picks.
func WithRandom(src random.Source) Option {
	return func(c *Compiler) { c.random = src }
}

// WithMetrics reports compile instrumentation to m.
func WithMetrics(m Metrics) Option {
	return func(c *Compiler) { c.metrics = m }
}

// New creates a compiler. Without WithRegistry every item and block
// reference fails to resolve.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:   slog.Default(),
		registry: emptyRegistry{},
		compat:   host.NoCompat{},
		random:   random.Default(),
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds the rule named name from m. The rule is always returned;
// the diagnostics list every clause that was dropped.
func (c *Compiler) Compile(name string, m *attr.Map) (*engine.Rule, []Diagnostic) {
	start := time.Now()
	b := &build{c: c, rule: name, m: m}
	b.conditions()
	b.actions()

	id, err := RuleID(name, m)
	if err != nil {
		// Only reachable with a value json cannot encode; fall back to the name.
		id = hashWithDomain(DomainRule, []byte(name))
	}
	rule := engine.NewRule(id, name, b.checks, b.acts)

	c.metrics.ObserveCompile(time.Since(start))
	c.logger.Debug("rule compiled",
		"rule", name,
		"checks", len(b.checks),
		"actions", len(b.acts),
		"diagnostics", len(b.diags),
	)
	return rule, b.diags
}

// build accumulates one rule's clauses.
type build struct {
	c      *Compiler
	rule   string
	m      *attr.Map
	checks []engine.Check
	acts   []engine.Action
	diags  []Diagnostic
}

func (b *build) check(key attr.AnyKey, desc string, test func(host.Event, host.Query) bool) {
	b.checks = append(b.checks, engine.Check{Key: key.Name(), Desc: desc, Test: test})
}

func (b *build) action(key attr.AnyKey, desc string, run func(host.Event, host.Query)) {
	b.acts = append(b.acts, engine.Action{Key: key.Name(), Desc: desc, Run: run})
}

func (b *build) report(sev Severity, key attr.AnyKey, code, msg string) {
	b.diags = append(b.diags, Diagnostic{
		Rule:     b.rule,
		Key:      key.Name(),
		Severity: sev,
		Code:     code,
		Message:  msg,
	})
	level := slog.LevelWarn
	if sev == SeverityError {
		level = slog.LevelError
	}
	b.c.logger.Log(context.Background(), level, msg, "rule", b.rule, "key", key.Name(), "code", code)
	b.c.metrics.IncDiagnostic(code)
}

func (b *build) warnf(key attr.AnyKey, code, format string, args ...any) {
	b.report(SeverityWarning, key, code, fmt.Sprintf(format, args...))
}

func (b *build) errorf(key attr.AnyKey, code, format string, args ...any) {
	b.report(SeverityError, key, code, fmt.Sprintf(format, args...))
}

// reject records a parse error, classified by its sentinel.
func (b *build) reject(key attr.AnyKey, err error) {
	b.report(SeverityError, key, codeFor(err), err.Error())
}

func (b *build) missing(key attr.AnyKey, system string) {
	b.warnf(key, CodeMissingSystem, "%s is not installed: %s is ignored", system, key.Name())
}

// first returns the first value of a key known to be present.
func first[T any](m *attr.Map, key attr.Key[T]) T {
	v, _ := attr.Get(m, key)
	return v
}
