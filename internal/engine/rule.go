package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rulekit/internal/host"
)

// Check is one compiled condition. Test must be pure: it may read the event
// and the world but never mutate either.
type Check struct {
	Key  string
	Desc string
	Test func(ev host.Event, q host.Query) bool
}

// Action is one compiled side effect. Run null-checks whatever it reaches
// through q and does nothing when the target is missing.
type Action struct {
	Key  string
	Desc string
	Run  func(ev host.Event, q host.Query)
}

// Rule is a compiled (conditions, actions) pair. It is immutable once built
// and may be matched from any goroutine.
type Rule struct {
	ID   string
	Name string

	checks  []Check
	actions []Action
}

// NewRule builds a rule. Checks and actions keep the given order; the slices
// are copied so later changes by the caller cannot reorder them.
func NewRule(id, name string, checks []Check, actions []Action) *Rule {
	return &Rule{
		ID:      id,
		Name:    name,
		checks:  slices.Clone(checks),
		actions: slices.Clone(actions),
	}
}

// Match runs every check in order and stops at the first false. A rule
// without checks always matches.
func (r *Rule) Match(ev host.Event, q host.Query) bool {
	for _, c := range r.checks {
		if !c.Test(ev, q) {
			return false
		}
	}
	return true
}

// Execute runs every action in order.
func (r *Rule) Execute(ev host.Event, q host.Query) {
	for _, a := range r.actions {
		a.Run(ev, q)
	}
}

// Checks returns the keys of the compiled checks in evaluation order.
func (r *Rule) Checks() []string {
	keys := make([]string, len(r.checks))
	for i, c := range r.checks {
		keys[i] = c.Key
	}
	return keys
}

// Actions returns the keys of the compiled actions in execution order.
func (r *Rule) Actions() []string {
	keys := make([]string, len(r.actions))
	for i, a := range r.actions {
		keys[i] = a.Key
	}
	return keys
}

// Explain renders the compiled rule, one clause per line.
//
//	rule zombie-boost (3f2a9c01b7de)
//	  when:
//	    biome: Plains
//	  then:
//	    healthmultiply: x2
func (r *Rule) Explain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s (%s)\n", r.Name, shortID(r.ID))

	b.WriteString("  when:")
	if len(r.checks) == 0 {
		b.WriteString(" always\n")
	} else {
		b.WriteByte('\n')
		for _, c := range r.checks {
			writeClause(&b, c.Key, c.Desc)
		}
	}

	b.WriteString("  then:")
	if len(r.actions) == 0 {
		b.WriteString(" nothing\n")
	} else {
		b.WriteByte('\n')
		for _, a := range r.actions {
			writeClause(&b, a.Key, a.Desc)
		}
	}
	return b.String()
}

func writeClause(b *strings.Builder, key, desc string) {
	if desc == "" {
		fmt.Fprintf(b, "    %s\n", key)
		return
	}
	fmt.Fprintf(b, "    %s: %s\n", key, desc)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
