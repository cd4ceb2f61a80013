package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rulekit/internal/compiler"
	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Log      []string // Full mutation log for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Log) > 0 {
		fmt.Fprintf(&buf, "\nMutation log:\n")
		for i, line := range e.Log {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
		}
	}

	return buf.String()
}

// AssertionContext provides what assertions read besides the result.
type AssertionContext struct {
	Ctx         context.Context
	Store       *store.Store
	Diagnostics []compiler.Diagnostic

	fixture *fixture
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertFired:
			err = assertFired(result, a)
		case AssertNotFired:
			err = assertNotFired(result, a)
		case AssertLogContains:
			err = assertLogContains(result.Log, a)
		case AssertLogOrder:
			err = assertLogOrder(result.Log, a)
		case AssertLogCount:
			err = assertLogCount(result.Log, a)
		case AssertJournal:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: journal requires a store", i)
			} else {
				err = assertJournal(actx.Ctx, actx.Store, result.Generation, a)
			}
		case AssertDiagnostic, AssertNoDiagnostics:
			var diags []compiler.Diagnostic
			if actx != nil {
				diags = actx.Diagnostics
			}
			err = assertDiagnostics(diags, a)
		case AssertState:
			if actx == nil || actx.fixture == nil {
				err = fmt.Errorf("assertion[%d]: state requires a sandbox", i)
			} else {
				err = assertState(actx.fixture, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

// assertFired checks the rule fired exactly Count times, or at least once
// when Count is unset.
func assertFired(result *Result, a Assertion) error {
	n := result.FiredCount(a.Rule)
	if a.Count == nil && n > 0 || a.Count != nil && n == *a.Count {
		return nil
	}
	want := "at least once"
	if a.Count != nil {
		want = fmt.Sprintf("%d times", *a.Count)
	}
	return &AssertionError{
		Type:     AssertFired,
		Expected: fmt.Sprintf("rule %s fired %s", a.Rule, want),
		Actual:   fmt.Sprintf("fired %d times", n),
		Log:      result.Log,
	}
}

func assertNotFired(result *Result, a Assertion) error {
	if n := result.FiredCount(a.Rule); n > 0 {
		return &AssertionError{
			Type:     AssertNotFired,
			Expected: fmt.Sprintf("rule %s never fired", a.Rule),
			Actual:   fmt.Sprintf("fired %d times", n),
			Log:      result.Log,
		}
	}
	return nil
}

func assertLogContains(log []string, a Assertion) error {
	if slices.Contains(log, a.Line) {
		return nil
	}
	return &AssertionError{
		Type:     AssertLogContains,
		Expected: fmt.Sprintf("log line %q", a.Line),
		Actual:   "not found in log",
		Log:      log,
	}
}

// assertLogOrder checks the lines appear in the given order. Other lines
// may appear between them.
func assertLogOrder(log []string, a Assertion) error {
	pos := 0
	for _, want := range a.Lines {
		i := slices.Index(log[pos:], want)
		if i < 0 {
			actual := fmt.Sprintf("%q not found", want)
			if slices.Contains(log, want) {
				actual = fmt.Sprintf("%q appears too early", want)
			}
			return &AssertionError{
				Type:     AssertLogOrder,
				Expected: fmt.Sprintf("lines in order: %q", a.Lines),
				Actual:   actual,
				Log:      log,
			}
		}
		pos += i + 1
	}
	return nil
}

func assertLogCount(log []string, a Assertion) error {
	n := 0
	for _, line := range log {
		if line == a.Line {
			n++
		}
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("%d occurrences of %q", *a.Count, a.Line),
			Actual:   fmt.Sprintf("%d occurrences", n),
			Log:      log,
		}
	}
	return nil
}

// assertJournal counts journal rows for the rule in this run's generation.
func assertJournal(ctx context.Context, st *store.Store, generation string, a Assertion) error {
	outcome := engine.OutcomeFired
	if a.Outcome != "" {
		outcome = engine.Outcome(a.Outcome)
	}
	firings, err := st.Firings(ctx, store.Filter{
		Generation: generation,
		Rule:       a.Rule,
		Outcome:    outcome,
	})
	if err != nil {
		return &AssertionError{
			Type:     AssertJournal,
			Expected: fmt.Sprintf("journal rows for %s", a.Rule),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	n := len(firings)
	if a.Count == nil && n > 0 || a.Count != nil && n == *a.Count {
		return nil
	}
	want := "at least one"
	if a.Count != nil {
		want = fmt.Sprintf("%d", *a.Count)
	}
	return &AssertionError{
		Type:     AssertJournal,
		Expected: fmt.Sprintf("%s %s row(s) for %s", want, outcome, a.Rule),
		Actual:   fmt.Sprintf("%d row(s)", n),
	}
}

func assertDiagnostics(diags []compiler.Diagnostic, a Assertion) error {
	rendered := make([]string, len(diags))
	for i, d := range diags {
		rendered[i] = d.String()
	}

	if a.Type == AssertNoDiagnostics {
		if len(diags) == 0 {
			return nil
		}
		return &AssertionError{
			Type:     AssertNoDiagnostics,
			Expected: "no diagnostics",
			Actual:   strings.Join(rendered, "; "),
		}
	}

	for _, d := range diags {
		if d.Code == a.Code && (a.Rule == "" || d.Rule == a.Rule) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertDiagnostic,
		Expected: fmt.Sprintf("diagnostic %s", a.Code),
		Actual:   fmt.Sprintf("got [%s]", strings.Join(rendered, "; ")),
	}
}

// assertState reads a world or player state value after the last event.
func assertState(f *fixture, a Assertion) error {
	if f.full == nil {
		return fmt.Errorf("state assertion %w", errNoCompat)
	}

	var (
		got   string
		owner = "world"
	)
	if a.Player == "" {
		got = f.full.State.State(f.world, a.Name)
	} else {
		p, ok := f.players[a.Player]
		if !ok {
			return fmt.Errorf("state assertion: unknown player %q", a.Player)
		}
		got = f.full.State.PlayerState(p, a.Name)
		owner = a.Player
	}

	if got != a.Value {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s state %s=%q", owner, a.Name, a.Value),
			Actual:   fmt.Sprintf("%s=%q", a.Name, got),
			Log:      f.world.Log().Lines(),
		}
	}
	return nil
}
