// Package nbt models the structured tag data attached to items, blocks and
// entities, and provides canonical encoding for exact-equality matching.
//
// Tag is a sealed interface: only Compound, List, String, Int and Double
// implement it. Byte/short/int/long collapse to Int and float/double collapse
// to Double; booleans decode as Int 0/1 the way the game stores them.
package nbt

// Tag is a sealed interface over the supported tag kinds.
type Tag interface {
	nbtTag() // sealed
}

// String is a string tag.
type String string

func (String) nbtTag() {}

// Int is an integral tag (byte, short, int or long).
type Int int64

func (Int) nbtTag() {}

// Double is a floating-point tag (float or double).
type Double float64

func (Double) nbtTag() {}

// List is an ordered list of tags.
type List []Tag

func (List) nbtTag() {}

// Compound is a named set of tags.
// Use SortedKeys for deterministic iteration.
type Compound map[string]Tag

func (Compound) nbtTag() {}

// Int returns the integer value of the named tag.
// Missing or non-integral tags read as 0, matching how the game reads them.
func (c Compound) Int(name string) int64 {
	if c == nil {
		return 0
	}
	switch v := c[name].(type) {
	case Int:
		return int64(v)
	case Double:
		return int64(v)
	default:
		return 0
	}
}

// List returns the named list tag, or nil.
func (c Compound) List(name string) List {
	if c == nil {
		return nil
	}
	l, _ := c[name].(List)
	return l
}

// Compounds returns the compound elements of the named list tag.
// Non-compound elements are skipped.
func (c Compound) Compounds(name string) []Compound {
	list := c.List(name)
	out := make([]Compound, 0, len(list))
	for _, elem := range list {
		if cc, ok := elem.(Compound); ok {
			out = append(out, cc)
		}
	}
	return out
}

// Clone returns a deep copy of the tag.
func Clone(t Tag) Tag {
	switch v := t.(type) {
	case Compound:
		return v.Clone()
	case List:
		out := make(List, len(v))
		for i, elem := range v {
			out[i] = Clone(elem)
		}
		return out
	default:
		return t
	}
}

// Clone returns a deep copy of the compound. A nil compound stays nil.
func (c Compound) Clone() Compound {
	if c == nil {
		return nil
	}
	out := make(Compound, len(c))
	for k, v := range c {
		out[k] = Clone(v)
	}
	return out
}

// Merge copies every tag of src into c, recursing into nested compounds.
func (c Compound) Merge(src Compound) {
	for k, v := range src {
		if sub, ok := v.(Compound); ok {
			if dst, ok := c[k].(Compound); ok {
				dst.Merge(sub)
				continue
			}
		}
		c[k] = Clone(v)
	}
}
