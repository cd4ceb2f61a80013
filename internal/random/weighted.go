package random

// Entry pairs a value with its selection weight.
type Entry[T any] struct {
	Weight float64
	Value  T
}

// Table is an immutable weighted list with its total precomputed.
type Table[T any] struct {
	entries []Entry[T]
	total   float64
}

// NewTable builds a table. Entries with a non-positive weight are kept but
// can never be selected.
func NewTable[T any](entries []Entry[T]) *Table[T] {
	t := &Table[T]{entries: append([]Entry[T](nil), entries...)}
	for _, e := range t.entries {
		if e.Weight > 0 {
			t.total += e.Weight
		}
	}
	return t
}

// Len returns the number of entries.
func (t *Table[T]) Len() int { return len(t.entries) }

// Total returns the sum of positive weights.
func (t *Table[T]) Total() float64 { return t.total }

// Entries returns a copy of the entries.
func (t *Table[T]) Entries() []Entry[T] {
	return append([]Entry[T](nil), t.entries...)
}

// Pick draws r in [0, total) and walks the entries, selecting the first whose
// weight is >= the remaining r. ok is false for an empty table or a zero total.
func (t *Table[T]) Pick(src Source) (v T, ok bool) {
	if len(t.entries) == 0 || t.total <= 0 {
		return v, false
	}
	r := src.Float64() * t.total
	last := -1
	for i, e := range t.entries {
		if e.Weight <= 0 {
			continue
		}
		if r <= e.Weight {
			return e.Value, true
		}
		r -= e.Weight
		last = i
	}
	// Float rounding can leave a sliver past the final entry.
	return t.entries[last].Value, true
}
