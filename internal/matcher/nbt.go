package matcher

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/roach88/rulekit/internal/expr"
	"github.com/roach88/rulekit/internal/nbt"
)

// NBTPredicate tests a tag compound. A nil compound reads every integer tag
// as 0 and every list tag as empty.
type NBTPredicate func(nbt.Compound) bool

// ParseNBT compiles a list of tag sub-matchers:
//
//	{"tag": "Level", "value": ">=3"}
//	{"tag": "ench", "contains": [{"tag": "id", "value": 16}]}
//
// A contains matcher is true when some compound element of the list tag
// satisfies some of its sub-matchers.
func ParseNBT(list gjson.Result) ([]NBTPredicate, error) {
	if !list.IsArray() {
		return nil, malformed("nbt must be a list of tag matchers")
	}
	var (
		preds []NBTPredicate
		err   error
	)
	list.ForEach(func(_, el gjson.Result) bool {
		var p NBTPredicate
		p, err = parseNBTEntry(el)
		if err != nil {
			return false
		}
		preds = append(preds, p)
		return true
	})
	if err != nil {
		return nil, err
	}
	return preds, nil
}

func parseNBTEntry(el gjson.Result) (NBTPredicate, error) {
	if !el.IsObject() {
		return nil, malformed("tag matcher must be an object, got %s", el.Raw)
	}
	tag, ok, err := stringField(el, "tag")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, malformed("tag matcher needs a tag name")
	}

	if contains := el.Get("contains"); contains.Exists() {
		subs, err := ParseNBT(contains)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		return func(c nbt.Compound) bool {
			for _, elem := range c.Compounds(tag) {
				for _, sub := range subs {
					if sub(elem) {
						return true
					}
				}
			}
			return false
		}, nil
	}

	value := el.Get("value")
	if !value.Exists() {
		return nil, malformed("tag matcher %q needs value or contains", tag)
	}
	e, err := expr.FromJSON(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	return func(c nbt.Compound) bool { return e.Match(int(c.Int(tag))) }, nil
}
