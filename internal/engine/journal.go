package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/rulekit/internal/host"
)

// Outcome is how a rule ended during a dispatch.
type Outcome string

const (
	OutcomeFired Outcome = "fired"
	OutcomePanic Outcome = "panic"
	OutcomeQuota Outcome = "quota"
)

// Firing is one journal entry: a rule that matched (or failed) for one
// dispatched event.
type Firing struct {
	Seq        int64   `json:"seq" yaml:"seq"`
	Generation string  `json:"generation" yaml:"generation"`
	RuleID     string  `json:"rule_id" yaml:"rule_id"`
	Rule       string  `json:"rule" yaml:"rule"`
	Event      string  `json:"event" yaml:"event"`
	Outcome    Outcome `json:"outcome" yaml:"outcome"`
	Detail     string  `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Journal persists firings. Writes are best-effort: Dispatch logs a failed
// write and carries on.
type Journal interface {
	Record(ctx context.Context, f Firing) error
}

// Metrics receives dispatch instrumentation.
type Metrics interface {
	ObserveDispatch(d time.Duration, fired int)
	IncFiring(rule string, outcome Outcome)
	SetRules(n int)
}

type nopJournal struct{}

func (nopJournal) Record(context.Context, Firing) error { return nil }

type nopMetrics struct{}

func (nopMetrics) ObserveDispatch(time.Duration, int) {}
func (nopMetrics) IncFiring(string, Outcome)          {}
func (nopMetrics) SetRules(int)                       {}

// Labeled events name themselves in the journal.
type Labeled interface {
	Label() string
}

// EventLabel returns ev's label, or its Go type when it has none.
func EventLabel(ev host.Event) string {
	if l, ok := ev.(Labeled); ok {
		if s := l.Label(); s != "" {
			return s
		}
	}
	return fmt.Sprintf("%T", ev)
}
