// Package attr implements the typed attribute store that every rule is
// compiled from.
//
// A Key[T] is a phantom-typed token: the type parameter fixes what Get and
// List return, while the Kind drives validation of raw configuration values
// at construction time. Keys are registered once in a Schema at process start
// and never change afterwards.
package attr

import (
	"fmt"
	"sort"
	"sync"
)

// Kind is the declared value type of a key.
type Kind int

const (
	KindInt Kind = iota + 1
	KindFloat
	KindBool
	KindString
	// KindJSON holds a structured descriptor encoded as a JSON string.
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// AnyKey is the type-erased view of a Key, used by the schema and by
// diagnostics that only need the name.
type AnyKey interface {
	Name() string
	Kind() Kind
}

// Key identifies a named, typed configuration slot.
type Key[T any] struct {
	name string
	kind Kind
}

// Name returns the configuration name of the key.
func (k Key[T]) Name() string { return k.name }

// Kind returns the declared kind.
func (k Key[T]) Kind() Kind { return k.kind }

func (k Key[T]) String() string { return k.name + ":" + k.kind.String() }

// Schema is the registry of known keys. Names are unique within a schema.
type Schema struct {
	mu   sync.RWMutex
	keys map[string]AnyKey
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{keys: make(map[string]AnyKey)}
}

func register[T any](s *Schema, name string, kind Kind) Key[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.keys[name]; ok {
		panic(fmt.Sprintf("attr: key %q already registered as %s", name, existing.Kind()))
	}
	k := Key[T]{name: name, kind: kind}
	s.keys[name] = k
	return k
}

// Int registers an integer key.
func Int(s *Schema, name string) Key[int] { return register[int](s, name, KindInt) }

// Float registers a float key.
func Float(s *Schema, name string) Key[float64] { return register[float64](s, name, KindFloat) }

// Bool registers a boolean key.
func Bool(s *Schema, name string) Key[bool] { return register[bool](s, name, KindBool) }

// String registers a string key.
func String(s *Schema, name string) Key[string] { return register[string](s, name, KindString) }

// JSON registers a key whose values are JSON-encoded descriptors.
func JSON(s *Schema, name string) Key[string] { return register[string](s, name, KindJSON) }

// Lookup returns the key registered under name.
func (s *Schema) Lookup(name string) (AnyKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[name]
	return k, ok
}

// Names returns all registered key names in sorted order.
func (s *Schema) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.keys))
	for name := range s.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
