package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/rulekit/internal/expr"
	"github.com/roach88/rulekit/internal/matcher"
)

// Diagnostic codes. W2xx clauses are skipped with a warning; E2xx clauses
// are skipped with an error. Neither stops compilation of the rest of the
// rule.
const (
	CodeMissingSystem = "W201" // optional game system not installed
	CodeUnimplemented = "W202" // action recognised but not supported

	CodeMalformedDescriptor = "E201" // bad expression or item/block/offset descriptor
	CodeUnresolved          = "E202" // unknown item, block, potion or damage source
	CodeMalformedValue      = "E203" // value outside its allowed set or format
)

// Severity grades a Diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic describes one clause the compiler dropped or altered.
type Diagnostic struct {
	Rule     string   `json:"rule" yaml:"rule"`
	Key      string   `json:"key" yaml:"key"`
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Message  string   `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s/%s: %s", d.Code, d.Rule, d.Key, d.Message)
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// codeFor classifies a parse error from the matcher or expression packages.
func codeFor(err error) string {
	switch {
	case errors.Is(err, matcher.ErrUnresolved):
		return CodeUnresolved
	case errors.Is(err, matcher.ErrEmptyOnly):
		return CodeMalformedValue
	case errors.Is(err, matcher.ErrMalformed), errors.Is(err, expr.ErrSyntax):
		return CodeMalformedDescriptor
	}
	return CodeMalformedValue
}
