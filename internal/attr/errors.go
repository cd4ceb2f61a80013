package attr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is returned by Get when the key was not supplied.
	ErrMissingKey = errors.New("missing key")

	// ErrTypeMismatch is returned by Build when a raw value does not fit
	// the key's declared kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnknownKey is returned by Build for names absent from the schema.
	ErrUnknownKey = errors.New("unknown key")
)

// MissingKeyError reports a Get on an absent key.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("attr: %s: %v", e.Key, ErrMissingKey)
}

func (e *MissingKeyError) Unwrap() error { return ErrMissingKey }

// TypeError reports a raw value that cannot be coerced to its key's kind.
type TypeError struct {
	Key   string
	Want  Kind
	Value any
	Index int // position within a list value, -1 for scalars
}

func (e *TypeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("attr: %s[%d]: %v: want %s, got %T (%v)", e.Key, e.Index, ErrTypeMismatch, e.Want, e.Value, e.Value)
	}
	return fmt.Sprintf("attr: %s: %v: want %s, got %T (%v)", e.Key, ErrTypeMismatch, e.Want, e.Value, e.Value)
}

func (e *TypeError) Unwrap() error { return ErrTypeMismatch }

// UnknownKeyError reports a configuration name the schema does not know.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("attr: %q: %v", e.Key, ErrUnknownKey)
}

func (e *UnknownKeyError) Unwrap() error { return ErrUnknownKey }
