package engine

import (
	"errors"
	"fmt"
)

// RuntimeError reports a rule that could not complete during a dispatch.
// It never escapes Dispatch; it is logged, journaled and returned in the
// Result for inspection.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Message string
	Seq     int64
	RuleID  string
	Rule    string
	// Phase is "match" or "execute" for panics.
	Phase string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeRulePanic indicates a check or action panicked.
	ErrCodeRulePanic RuntimeErrorCode = "RULE_PANIC"

	// ErrCodeQuotaExceeded indicates a dispatch fired more rules than allowed.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

func (e *RuntimeError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (seq=%d, rule=%s)", e.Code, e.Message, e.Seq, e.Rule)
	}
	return fmt.Sprintf("%s: %s (seq=%d)", e.Code, e.Message, e.Seq)
}

// IsPanicError reports whether err is a recovered rule panic.
func IsPanicError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRulePanic
	}
	return false
}

// IsQuotaError reports whether err is a quota violation.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	var fe *FiringsExceededError
	return errors.As(err, &fe)
}

func newPanicError(seq int64, r *Rule, phase string, recovered any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeRulePanic,
		Message: fmt.Sprintf("panic during %s: %v", phase, recovered),
		Seq:     seq,
		RuleID:  r.ID,
		Rule:    r.Name,
		Phase:   phase,
	}
}
