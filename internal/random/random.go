// Package random provides the shared random source used by rule conditions
// and actions, and cumulative-weight selection over weighted entries.
package random

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
)

// Source yields floats in [0, 1). Implementations must be safe for
// concurrent use.
type Source interface {
	Float64() float64
}

// Locked is a seeded source guarded by a mutex. Draws counts every value
// handed out so runs can be compared draw for draw.
type Locked struct {
	mu    sync.Mutex
	seed  uint64
	src   *rand.Rand
	draws atomic.Uint64
}

// NewLocked creates a deterministic source from seed.
func NewLocked(seed uint64) *Locked {
	return &Locked{
		seed: seed,
		src:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Float64 returns the next value in [0, 1).
func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.draws.Add(1)
	return l.src.Float64()
}

// Seed returns the seed the source was created with.
func (l *Locked) Seed() uint64 { return l.seed }

// Draws returns the number of values produced so far.
func (l *Locked) Draws() uint64 { return l.draws.Load() }

type runtimeSource struct{}

func (runtimeSource) Float64() float64 { return rand.Float64() }

// Default returns the process-wide unseeded source.
func Default() Source { return runtimeSource{} }

// Fixed replays a cycle of preset values. Used in tests to force a branch.
type Fixed struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewFixed creates a source cycling through values. It panics on an empty
// slice.
func NewFixed(values ...float64) *Fixed {
	if len(values) == 0 {
		panic("random: NewFixed needs at least one value")
	}
	return &Fixed{values: values}
}

// Float64 returns the next preset value.
func (f *Fixed) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}
