package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulekit/internal/compiler"
	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/store"
)

func intPtr(n int) *int { return &n }

func sampleResult() *Result {
	r := NewResult()
	r.Generation = "gen-1"
	r.Trace = []TraceEvent{
		{Seq: 1, Event: "spawn", Fired: []string{"a", "b"}, Mutations: []string{"zombie health 40", "world state phase=night"}},
		{Seq: 2, Event: "tick", Fired: []string{"a"}, Mutations: []string{"zombie health 80"}},
	}
	r.Log = []string{"zombie health 40", "world state phase=night", "zombie health 80"}
	return r
}

func TestEvaluateAssertions_Trace(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{name: "fired at least once", assertion: Assertion{Type: AssertFired, Rule: "b"}},
		{name: "fired exact", assertion: Assertion{Type: AssertFired, Rule: "a", Count: intPtr(2)}},
		{name: "fired wrong count", assertion: Assertion{Type: AssertFired, Rule: "a", Count: intPtr(1)}, wantErr: "Actual: fired 2 times"},
		{name: "fired never", assertion: Assertion{Type: AssertFired, Rule: "c"}, wantErr: "rule c fired at least once"},
		{name: "fired zero", assertion: Assertion{Type: AssertFired, Rule: "c", Count: intPtr(0)}},
		{name: "not fired", assertion: Assertion{Type: AssertNotFired, Rule: "c"}},
		{name: "not fired fails", assertion: Assertion{Type: AssertNotFired, Rule: "b"}, wantErr: "rule b never fired"},
		{name: "log contains", assertion: Assertion{Type: AssertLogContains, Line: "zombie health 80"}},
		{name: "log missing", assertion: Assertion{Type: AssertLogContains, Line: "zombie health 10"}, wantErr: "not found in log"},
		{
			name:      "log order",
			assertion: Assertion{Type: AssertLogOrder, Lines: []string{"zombie health 40", "zombie health 80"}},
		},
		{
			name:      "log order with gap",
			assertion: Assertion{Type: AssertLogOrder, Lines: []string{"zombie health 40", "world state phase=night", "zombie health 80"}},
		},
		{
			name:      "log order reversed",
			assertion: Assertion{Type: AssertLogOrder, Lines: []string{"zombie health 80", "zombie health 40"}},
			wantErr:   `"zombie health 40" appears too early`,
		},
		{
			name:      "log order missing",
			assertion: Assertion{Type: AssertLogOrder, Lines: []string{"zombie health 40", "boom"}},
			wantErr:   `"boom" not found`,
		},
		{name: "log count", assertion: Assertion{Type: AssertLogCount, Line: "zombie health 40", Count: intPtr(1)}},
		{name: "log count wrong", assertion: Assertion{Type: AssertLogCount, Line: "zombie health 40", Count: intPtr(2)}, wantErr: "1 occurrences"},
		{name: "unknown", assertion: Assertion{Type: "vibes"}, wantErr: `unknown assertion type "vibes"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion}, nil)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestEvaluateAssertions_Diagnostics(t *testing.T) {
	diags := []compiler.Diagnostic{{
		Rule:     "quest",
		Key:      "gamestage",
		Severity: compiler.SeverityWarning,
		Code:     compiler.CodeMissingSystem,
		Message:  "stage system is not installed: gamestage is ignored",
	}}
	actx := &AssertionContext{Diagnostics: diags}

	assert.Empty(t, EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertDiagnostic, Code: "W201"}}, actx))
	assert.Empty(t, EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertDiagnostic, Code: "W201", Rule: "quest"}}, actx))

	errs := EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertDiagnostic, Code: "W201", Rule: "other"}}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "[W201] quest/gamestage")

	errs = EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertNoDiagnostics}}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Expected: no diagnostics")

	assert.Empty(t, EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertNoDiagnostics}}, nil))
}

func TestEvaluateAssertions_Journal(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for _, f := range []engine.Firing{
		{Seq: 1, Generation: "gen-1", RuleID: "id-a", Rule: "a", Event: "spawn", Outcome: engine.OutcomeFired},
		{Seq: 2, Generation: "gen-1", RuleID: "id-a", Rule: "a", Event: "tick", Outcome: engine.OutcomeFired},
		{Seq: 2, Generation: "gen-1", RuleID: "id-b", Rule: "b", Event: "tick", Outcome: engine.OutcomePanic, Detail: "boom"},
		{Seq: 3, Generation: "gen-0", RuleID: "id-b", Rule: "b", Event: "tick", Outcome: engine.OutcomeFired},
	} {
		require.NoError(t, st.Record(ctx, f))
	}
	actx := &AssertionContext{Ctx: ctx, Store: st}

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{name: "exact", assertion: Assertion{Type: AssertJournal, Rule: "a", Count: intPtr(2)}},
		{name: "any", assertion: Assertion{Type: AssertJournal, Rule: "a"}},
		{name: "outcome", assertion: Assertion{Type: AssertJournal, Rule: "b", Outcome: "panic", Count: intPtr(1)}},
		{name: "other generation ignored", assertion: Assertion{Type: AssertJournal, Rule: "b"}, wantErr: "at least one fired row(s) for b"},
		{name: "wrong count", assertion: Assertion{Type: AssertJournal, Rule: "a", Count: intPtr(3)}, wantErr: "2 row(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion}, actx)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}

	errs := EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertJournal, Rule: "a"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "journal requires a store")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertLogContains,
		Expected: `log line "x"`,
		Actual:   "not found in log",
		Log:      []string{"zombie health 40"},
	}
	assert.Equal(t, "Assertion failed: log_contains\n"+
		"  Expected: log line \"x\"\n"+
		"  Actual: not found in log\n"+
		"\nMutation log:\n"+
		"  [1] zombie health 40\n", err.Error())
}
