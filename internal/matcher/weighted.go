package matcher

import (
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/nbt"
	"github.com/roach88/rulekit/internal/random"
)

// ParseWeightedItems compiles concrete stacks for give/drop/equip actions.
//
// Compact entries may carry a weight prefix ("0.3=minecraft:apple@2");
// objects use {"item","damage","count","nbt","factor"} with "weight" as an
// alias of "factor". An object with "empty" yields the empty stack, letting
// a table include a chance of nothing. Weights default to 1 and counts to 1.
// Entries that fail to parse are reported and left out.
func ParseWeightedItems(reg host.Registry, raws []string) ([]random.Entry[host.ItemStack], []error) {
	var (
		entries []random.Entry[host.ItemStack]
		errs    []error
	)
	for _, raw := range raws {
		e, err := parseWeighted(reg, raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("item %s: %w", raw, err))
			continue
		}
		entries = append(entries, e)
	}
	return entries, errs
}

func parseWeighted(reg host.Registry, raw string) (random.Entry[host.ItemStack], error) {
	text, obj, isObj, err := decode(raw)
	if err != nil {
		return random.Entry[host.ItemStack]{}, err
	}
	if isObj {
		return parseWeightedObject(reg, obj)
	}

	weight, rest := splitFactor(text)
	cs, err := parseCompact(reg, rest)
	if err != nil {
		return random.Entry[host.ItemStack]{}, err
	}
	return random.Entry[host.ItemStack]{Weight: weight, Value: cs.stack()}, nil
}

// splitFactor strips a leading "<digits and dots>=" weight. An unparsable
// weight falls back to 1.
func splitFactor(text string) (float64, string) {
	i := 0
	for i < len(text) && (text[i] >= '0' && text[i] <= '9' || text[i] == '.') {
		i++
	}
	if i >= len(text) || text[i] != '=' {
		return 1, text
	}
	w, err := strconv.ParseFloat(text[:i], 64)
	if err != nil {
		w = 1
	}
	return w, text[i+1:]
}

func parseWeightedObject(reg host.Registry, obj gjson.Result) (random.Entry[host.ItemStack], error) {
	entry := random.Entry[host.ItemStack]{Weight: 1}

	factor := obj.Get("factor")
	if !factor.Exists() {
		factor = obj.Get("weight")
	}
	if factor.Exists() {
		if factor.Type != gjson.Number {
			return entry, malformed("factor must be a number")
		}
		if factor.Num < 0 {
			return entry, malformed("factor must not be negative")
		}
		entry.Weight = factor.Num
	}

	if obj.Get("empty").Exists() {
		return entry, nil
	}

	name, ok, err := stringField(obj, "item")
	if err != nil {
		return entry, err
	}
	if !ok {
		return entry, malformed("item is required")
	}
	def, found := reg.Item(host.Normalize(name))
	if !found {
		return entry, unresolved("item", host.Normalize(name))
	}
	stack := host.ItemStack{Item: def.ID, Count: 1}

	if f := obj.Get("damage"); f.Exists() {
		if f.Type != gjson.Number {
			return entry, malformed("damage must be a number")
		}
		stack.Damage = int(f.Int())
	}
	if f := obj.Get("count"); f.Exists() {
		if f.Type != gjson.Number || f.Int() < 1 {
			return entry, malformed("count must be a positive number")
		}
		stack.Count = int(f.Int())
	}
	if f := obj.Get("nbt"); f.Exists() {
		tag, err := parseTagField(f)
		if err != nil {
			return entry, err
		}
		stack.NBT = tag
	}
	entry.Value = stack
	return entry, nil
}

// parseTagField accepts a tag written inline as an object or as a JSON string.
func parseTagField(f gjson.Result) (nbt.Compound, error) {
	if f.Type == gjson.String {
		tag, err := nbt.ParseCompound(f.Str)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return tag, nil
	}
	if !f.IsObject() {
		return nil, malformed("nbt must be an object")
	}
	tag, err := nbt.FromJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return tag.(nbt.Compound), nil
}
