// Package matcher compiles item, block, NBT and position descriptors into
// predicates. Every predicate is built once and is read-only afterwards, so
// it may be evaluated from any goroutine.
//
// A descriptor arrives as one raw list entry. Text starting with '{' is the
// structured JSON form, a quoted JSON string is unquoted, and anything else
// is the compact form ("name@meta/{nbt}").
package matcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrMalformed marks a descriptor that could not be parsed.
	ErrMalformed = errors.New("malformed descriptor")
	// ErrUnresolved marks a descriptor naming an unregistered item or block.
	ErrUnresolved = errors.New("unresolved identifier")
	// ErrEmptyOnly marks an item descriptor that could only match an empty
	// stack. Item conditions skip empty slots, so it would never match.
	ErrEmptyOnly = errors.New("descriptor only matches empty stacks")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

func unresolved(kind, id string) error {
	return fmt.Errorf("%w: unknown %s %q", ErrUnresolved, kind, id)
}

// decode splits a raw descriptor into either compact text or a JSON object.
func decode(raw string) (text string, obj gjson.Result, isObj bool, err error) {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return "", obj, false, malformed("empty descriptor")
	case strings.HasPrefix(s, "{"):
		if !gjson.Valid(s) {
			return "", obj, false, malformed("invalid JSON %s", s)
		}
		return "", gjson.Parse(s), true, nil
	case strings.HasPrefix(s, `"`):
		if !gjson.Valid(s) {
			return "", obj, false, malformed("invalid JSON %s", s)
		}
		text = strings.TrimSpace(gjson.Parse(s).Str)
		if text == "" {
			return "", obj, false, malformed("empty descriptor")
		}
		return text, obj, false, nil
	}
	return s, obj, false, nil
}

// elementText returns a JSON array element as a raw descriptor: strings
// unquoted, objects verbatim.
func elementText(r gjson.Result) string {
	if r.Type == gjson.String {
		return r.Str
	}
	return r.Raw
}

func stringField(obj gjson.Result, name string) (string, bool, error) {
	f := obj.Get(name)
	if !f.Exists() {
		return "", false, nil
	}
	if f.Type != gjson.String {
		return "", true, malformed("%s must be a string", name)
	}
	return f.Str, true, nil
}

func isBool(r gjson.Result) bool {
	return r.Type == gjson.True || r.Type == gjson.False
}
