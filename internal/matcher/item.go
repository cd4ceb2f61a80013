package matcher

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/rulekit/internal/expr"
	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/nbt"
)

// ItemPredicate tests one stack.
type ItemPredicate func(host.ItemStack) bool

// ParseItem compiles one item descriptor.
//
// Compact forms: "name" matches the item alone, "name@meta" also requires the
// damage value, "name/{nbt}" requires exactly that tag (damage ignored), and
// "name@meta/{nbt}" requires both.
//
// Every item condition skips empty slots before matching, so {"empty":true}
// is rejected with ErrEmptyOnly. {"empty":false} matches any non-empty stack.
func ParseItem(reg host.Registry, raw string) (ItemPredicate, error) {
	text, obj, isObj, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if isObj {
		return parseItemObject(reg, obj)
	}
	cs, err := parseCompact(reg, text)
	if err != nil {
		return nil, err
	}
	id := cs.id
	switch {
	case cs.hasMeta && cs.hasTag:
		return func(s host.ItemStack) bool {
			return s.Item == id && s.Damage == cs.meta && nbt.Equal(s.NBT, cs.tag)
		}, nil
	case cs.hasTag:
		return func(s host.ItemStack) bool {
			return s.Item == id && nbt.Equal(s.NBT, cs.tag)
		}, nil
	case cs.hasMeta:
		return func(s host.ItemStack) bool {
			return s.Item == id && s.Damage == cs.meta
		}, nil
	default:
		return func(s host.ItemStack) bool { return s.Item == id }, nil
	}
}

// ParseItems compiles every descriptor, returning the matchers that parsed
// and one error per entry that did not.
func ParseItems(reg host.Registry, raws []string) ([]ItemPredicate, []error) {
	var (
		preds []ItemPredicate
		errs  []error
	)
	for _, raw := range raws {
		p, err := ParseItem(reg, raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("item %s: %w", raw, err))
			continue
		}
		preds = append(preds, p)
	}
	return preds, errs
}

// AnyItem matches a stack accepted by at least one predicate.
func AnyItem(preds []ItemPredicate) ItemPredicate {
	return func(s host.ItemStack) bool {
		for _, p := range preds {
			if p(s) {
				return true
			}
		}
		return false
	}
}

func allItem(preds []ItemPredicate) ItemPredicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return func(s host.ItemStack) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}
}

type compactStack struct {
	id      string
	meta    int
	hasMeta bool
	tag     nbt.Compound
	hasTag  bool
}

func (cs compactStack) stack() host.ItemStack {
	return host.ItemStack{Item: cs.id, Count: 1, Damage: cs.meta, NBT: cs.tag}
}

func parseCompact(reg host.Registry, text string) (compactStack, error) {
	var cs compactStack
	name, tagText, hasTag := strings.Cut(text, "/")
	name, metaText, hasMeta := strings.Cut(name, "@")
	id := host.Normalize(name)
	if id == "" {
		return cs, malformed("missing item name in %q", text)
	}
	def, ok := reg.Item(id)
	if !ok {
		return cs, unresolved("item", id)
	}
	cs.id = def.ID
	if hasMeta {
		meta, err := strconv.Atoi(strings.TrimSpace(metaText))
		if err != nil {
			return cs, malformed("bad meta %q in %q", metaText, text)
		}
		cs.meta, cs.hasMeta = meta, true
	}
	if hasTag {
		tag, err := nbt.ParseCompound(tagText)
		if err != nil {
			return cs, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		cs.tag, cs.hasTag = tag, true
	}
	return cs, nil
}

func parseItemObject(reg host.Registry, obj gjson.Result) (ItemPredicate, error) {
	if empty := obj.Get("empty"); empty.Exists() {
		if !isBool(empty) {
			return nil, malformed("empty must be a boolean")
		}
		if empty.Bool() {
			return nil, ErrEmptyOnly
		}
		return func(s host.ItemStack) bool { return !s.IsEmpty() }, nil
	}

	name, ok, err := stringField(obj, "item")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, malformed("item is required")
	}
	def, found := reg.Item(host.Normalize(name))
	if !found {
		return nil, unresolved("item", host.Normalize(name))
	}
	id := def.ID
	preds := []ItemPredicate{func(s host.ItemStack) bool { return s.Item == id }}

	if f := obj.Get("damage"); f.Exists() {
		e, err := expr.FromJSON(f)
		if err != nil {
			return nil, fmt.Errorf("damage: %w", err)
		}
		preds = append(preds, func(s host.ItemStack) bool { return e.Match(s.Damage) })
	}
	if f := obj.Get("count"); f.Exists() {
		e, err := expr.FromJSON(f)
		if err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
		preds = append(preds, func(s host.ItemStack) bool { return e.Match(s.Count) })
	}
	ore, ok, err := stringField(obj, "ore")
	if err != nil {
		return nil, err
	}
	if ok {
		preds = append(preds, func(s host.ItemStack) bool {
			d, found := reg.Item(s.Item)
			return found && slices.Contains(d.OreTags, ore)
		})
	}
	mod, ok, err := stringField(obj, "mod")
	if err != nil {
		return nil, err
	}
	if ok {
		preds = append(preds, func(s host.ItemStack) bool { return host.Namespace(s.Item) == mod })
	}
	if f := obj.Get("nbt"); f.Exists() {
		tagPreds, err := ParseNBT(f)
		if err != nil {
			return nil, fmt.Errorf("nbt: %w", err)
		}
		preds = append(preds, func(s host.ItemStack) bool {
			for _, p := range tagPreds {
				if !p(s.NBT) {
					return false
				}
			}
			return true
		})
	}
	if f := obj.Get("energy"); f.Exists() {
		e, err := expr.FromJSON(f)
		if err != nil {
			return nil, fmt.Errorf("energy: %w", err)
		}
		preds = append(preds, func(s host.ItemStack) bool { return s.HasEnergy && e.Match(s.Energy) })
	}
	return allItem(preds), nil
}
