// Package expr compiles the small numeric expression grammar used by rule
// descriptors:
//
//	>=N  >N  <=N  <N  =N  !=N  <>N  A-B  N
//
// A-B is an inclusive range. Literals may be negative ("-10--2").
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrSyntax is wrapped by every SyntaxError.
var ErrSyntax = errors.New("expr: syntax error")

// SyntaxError reports an unparsable expression.
type SyntaxError struct {
	Input  string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("bad expression %q: %s", e.Input, e.Reason)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Op is the comparison an expression performs.
type Op int

const (
	Eq Op = iota
	Ne
	Gt
	Ge
	Lt
	Le
	Range
)

// Int is a compiled integer expression. The zero value matches 0 exactly.
type Int struct {
	Op Op
	A  int
	// B is the upper bound of a Range; unused otherwise.
	B int
}

// Match applies the expression to v.
func (e Int) Match(v int) bool {
	switch e.Op {
	case Eq:
		return v == e.A
	case Ne:
		return v != e.A
	case Gt:
		return v > e.A
	case Ge:
		return v >= e.A
	case Lt:
		return v < e.A
	case Le:
		return v <= e.A
	case Range:
		return v >= e.A && v <= e.B
	}
	return false
}

func (e Int) String() string {
	switch e.Op {
	case Eq:
		return strconv.Itoa(e.A)
	case Ne:
		return "!=" + strconv.Itoa(e.A)
	case Gt:
		return ">" + strconv.Itoa(e.A)
	case Ge:
		return ">=" + strconv.Itoa(e.A)
	case Lt:
		return "<" + strconv.Itoa(e.A)
	case Le:
		return "<=" + strconv.Itoa(e.A)
	case Range:
		return strconv.Itoa(e.A) + "-" + strconv.Itoa(e.B)
	}
	return "?"
}

// prefixes are tried in order; two-character operators come before the
// one-character operators they start with.
var prefixes = []struct {
	text string
	op   Op
}{
	{">=", Ge},
	{">", Gt},
	{"<=", Le},
	{"<>", Ne},
	{"<", Lt},
	{"!=", Ne},
	{"=", Eq},
}

// Parse compiles an expression string.
func Parse(s string) (Int, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return Int{}, &SyntaxError{Input: s, Reason: "empty"}
	}
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(in, p.text); ok {
			n, err := atoi(s, rest)
			if err != nil {
				return Int{}, err
			}
			return Int{Op: p.op, A: n}, nil
		}
	}
	if i := rangeSep(in); i > 0 {
		lo, err := atoi(s, in[:i])
		if err != nil {
			return Int{}, err
		}
		hi, err := atoi(s, in[i+1:])
		if err != nil {
			return Int{}, err
		}
		if lo > hi {
			return Int{}, &SyntaxError{Input: s, Reason: "range lower bound exceeds upper bound"}
		}
		return Int{Op: Range, A: lo, B: hi}, nil
	}
	n, err := atoi(s, in)
	if err != nil {
		return Int{}, err
	}
	return Int{Op: Eq, A: n}, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(s string) Int {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return e
}

// FromJSON compiles a JSON value: numbers match exactly, strings go through
// Parse, anything else is an error.
func FromJSON(r gjson.Result) (Int, error) {
	switch r.Type {
	case gjson.Number:
		n := int(r.Int())
		if float64(n) != r.Num {
			return Int{}, &SyntaxError{Input: r.Raw, Reason: "not an integer"}
		}
		return Int{Op: Eq, A: n}, nil
	case gjson.String:
		return Parse(r.Str)
	}
	return Int{}, &SyntaxError{Input: r.Raw, Reason: "expected number or string"}
}

// rangeSep finds the '-' separating two range bounds: the first dash whose
// nearest non-space predecessor is a digit.
func rangeSep(s string) int {
	for i := 1; i < len(s); i++ {
		if s[i] != '-' {
			continue
		}
		prev := strings.TrimRight(s[:i], " \t")
		if prev != "" && prev[len(prev)-1] >= '0' && prev[len(prev)-1] <= '9' {
			return i
		}
	}
	return -1
}

func atoi(input, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &SyntaxError{Input: input, Reason: fmt.Sprintf("%q is not an integer", strings.TrimSpace(s))}
	}
	return n, nil
}
