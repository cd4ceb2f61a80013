package sandbox

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Mutation is one side effect observed through the facade.
type Mutation struct {
	Seq    int    `yaml:"seq" json:"seq"`
	Target string `yaml:"target" json:"target"`
	Op     string `yaml:"op" json:"op"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

func (m Mutation) String() string {
	if m.Detail == "" {
		return fmt.Sprintf("%s %s", m.Target, m.Op)
	}
	return fmt.Sprintf("%s %s %s", m.Target, m.Op, m.Detail)
}

// Log is an append-only, concurrency-safe mutation log.
type Log struct {
	mu      sync.Mutex
	entries []Mutation
}

func (l *Log) add(target, op, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	l.entries = append(l.entries, Mutation{
		Seq:    len(l.entries) + 1,
		Target: target,
		Op:     op,
		Detail: detail,
	})
}

// Entries returns a copy of the log.
func (l *Log) Entries() []Mutation {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// Lines renders the log one mutation per line.
func (l *Log) Lines() []string {
	entries := l.Entries()
	out := make([]string, len(entries))
	for i, m := range entries {
		out[i] = m.String()
	}
	return out
}

// Reset empties the log.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

func (l *Log) String() string {
	return strings.Join(l.Lines(), "\n")
}
