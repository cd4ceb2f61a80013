package harness

// TraceEvent is one dispatch as the harness observed it.
type TraceEvent struct {
	Seq       int64    `json:"seq"`
	Event     string   `json:"event"`
	Fired     []string `json:"fired"`
	Errors    []string `json:"errors,omitempty"`
	Mutations []string `json:"mutations"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Generation is the rule set the events ran against.
	Generation string `json:"generation"`

	// Diagnostics lists compile diagnostics, one rendered line each.
	Diagnostics []string `json:"diagnostics,omitempty"`

	// Trace holds one entry per dispatched event, in order.
	Trace []TraceEvent `json:"trace"`

	// Log is the full mutation log after the last event.
	Log []string `json:"log"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Log:    []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// FiredCount returns how many times rule fired across the whole trace.
func (r *Result) FiredCount(rule string) int {
	n := 0
	for _, ev := range r.Trace {
		for _, name := range ev.Fired {
			if name == rule {
				n++
			}
		}
	}
	return n
}
