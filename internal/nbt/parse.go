package nbt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotCompound is returned when a tag document is valid JSON but not an
// object.
var ErrNotCompound = errors.New("nbt: document is not an object")

// ParseCompound parses a JSON object into a Compound.
func ParseCompound(doc string) (Compound, error) {
	doc = strings.TrimSpace(doc)
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("nbt: invalid JSON %q", doc)
	}
	res := gjson.Parse(doc)
	if !res.IsObject() {
		return nil, ErrNotCompound
	}
	tag, err := FromJSON(res)
	if err != nil {
		return nil, err
	}
	return tag.(Compound), nil
}

// FromJSON converts a parsed JSON value into a Tag.
// Numbers without a fraction or exponent become Int; others become Double.
func FromJSON(r gjson.Result) (Tag, error) {
	switch r.Type {
	case gjson.String:
		return String(r.Str), nil
	case gjson.True:
		return Int(1), nil
	case gjson.False:
		return Int(0), nil
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if n, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return Int(n), nil
			}
		}
		return Double(r.Num), nil
	case gjson.Null:
		return nil, fmt.Errorf("nbt: null is not a valid tag")
	case gjson.JSON:
		if r.IsArray() {
			var (
				list List
				err  error
			)
			list = List{}
			r.ForEach(func(_, v gjson.Result) bool {
				var elem Tag
				elem, err = FromJSON(v)
				if err != nil {
					return false
				}
				list = append(list, elem)
				return true
			})
			if err != nil {
				return nil, err
			}
			return list, nil
		}
		var err error
		c := Compound{}
		r.ForEach(func(k, v gjson.Result) bool {
			var elem Tag
			elem, err = FromJSON(v)
			if err != nil {
				err = fmt.Errorf("%s: %w", k.Str, err)
				return false
			}
			c[k.Str] = elem
			return true
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("nbt: unsupported JSON value %q", r.Raw)
}
