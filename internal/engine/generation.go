package engine

import (
	"sync"

	"github.com/google/uuid"
)

// GenerationGenerator names rule sets. Every Engine.Load takes one value.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type GenerationGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 generation IDs, so journal
// entries from later reloads sort after earlier ones.
//
// UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined generation IDs, for golden output.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next token. It panics once all tokens are used, which
// flags a test that reloaded more often than it declared.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
