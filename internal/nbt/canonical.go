package nbt

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonical encodes a tag as deterministic JSON: object keys sorted, strings
// NFC-normalised and not HTML-escaped, doubles always carry a fraction or
// exponent so Int(1) and Double(1) never encode the same.
//
// A nil tag encodes as "null" so an untagged stack compares unequal to any
// tagged one.
func Canonical(t Tag) []byte {
	var buf bytes.Buffer
	writeCanonical(&buf, t)
	return buf.Bytes()
}

// Equal reports whether two tags are structurally identical.
func Equal(a, b Tag) bool {
	return bytes.Equal(Canonical(a), Canonical(b))
}

// String renders the canonical form; convenient for logs and explain output.
func (c Compound) String() string {
	return string(Canonical(c))
}

func writeCanonical(buf *bytes.Buffer, t Tag) {
	switch v := t.(type) {
	case nil:
		buf.WriteString("null")
	case Compound:
		if v == nil {
			buf.WriteString("null")
			return
		}
		keys := v.SortedKeys()
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			writeCanonical(buf, v[k])
		}
		buf.WriteByte('}')
	case List:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeCanonical(buf, elem)
		}
		buf.WriteByte(']')
	case String:
		writeString(buf, string(v))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Double:
		s := strconv.FormatFloat(float64(v), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEN") {
			s += ".0"
		}
		buf.WriteString(s)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(norm.NFC.String(s))
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
}

// SortedKeys returns compound keys in byte order.
func (c Compound) SortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
