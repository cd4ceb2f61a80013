package matcher

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/rulekit/internal/expr"
	"github.com/roach88/rulekit/internal/host"
)

// BlockPredicate tests the block at a position. Callers guarantee a non-nil
// world.
type BlockPredicate func(w host.World, pos host.Pos) bool

// ParseBlock compiles one block descriptor.
//
// String forms are "blockname" (identity) and "ore:tag" (ore membership).
// The object form combines block (with optional properties for an exact
// state), ore, mod, energy and contains filters; all present filters must
// hold.
func ParseBlock(reg host.Registry, raw string) (BlockPredicate, error) {
	text, obj, isObj, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if isObj {
		return parseBlockObject(reg, obj)
	}
	if tag, ok := strings.CutPrefix(text, "ore:"); ok {
		return oreBlock(reg, tag), nil
	}
	def, ok := reg.Block(host.Normalize(text))
	if !ok {
		return nil, unresolved("block", host.Normalize(text))
	}
	return identityBlock(def.ID), nil
}

// AnyBlock matches when at least one predicate does.
func AnyBlock(preds []BlockPredicate) BlockPredicate {
	if len(preds) == 1 {
		return preds[0]
	}
	return func(w host.World, pos host.Pos) bool {
		for _, p := range preds {
			if p(w, pos) {
				return true
			}
		}
		return false
	}
}

func identityBlock(id string) BlockPredicate {
	return func(w host.World, pos host.Pos) bool { return w.BlockState(pos).ID == id }
}

func oreBlock(reg host.Registry, tag string) BlockPredicate {
	return func(w host.World, pos host.Pos) bool {
		def, ok := reg.Block(w.BlockState(pos).ID)
		return ok && slices.Contains(def.OreTags, tag)
	}
}

func parseBlockObject(reg host.Registry, obj gjson.Result) (BlockPredicate, error) {
	var preds []BlockPredicate

	name, hasBlock, err := stringField(obj, "block")
	if err != nil {
		return nil, err
	}
	if hasBlock {
		def, ok := reg.Block(host.Normalize(name))
		if !ok {
			return nil, unresolved("block", host.Normalize(name))
		}
		if props := obj.Get("properties"); props.Exists() {
			state, err := applyProperties(def.Default, props)
			if err != nil {
				return nil, err
			}
			preds = append(preds, func(w host.World, pos host.Pos) bool {
				return w.BlockState(pos).Equal(state)
			})
		} else {
			preds = append(preds, identityBlock(def.ID))
		}
	} else {
		ore, ok, err := stringField(obj, "ore")
		if err != nil {
			return nil, err
		}
		if ok {
			preds = append(preds, oreBlock(reg, ore))
		}
	}

	mod, ok, err := stringField(obj, "mod")
	if err != nil {
		return nil, err
	}
	if ok {
		preds = append(preds, func(w host.World, pos host.Pos) bool {
			return host.Namespace(w.BlockState(pos).ID) == mod
		})
	}

	if f := obj.Get("energy"); f.Exists() {
		e, err := expr.FromJSON(f)
		if err != nil {
			return nil, fmt.Errorf("energy: %w", err)
		}
		preds = append(preds, func(w host.World, pos host.Pos) bool {
			energy, ok := w.BlockEnergy(pos)
			return ok && e.Match(energy)
		})
	}

	if f := obj.Get("contains"); f.Exists() {
		if !f.IsArray() {
			return nil, malformed("contains must be a list of item descriptors")
		}
		var items []ItemPredicate
		for _, el := range f.Array() {
			p, err := ParseItem(reg, elementText(el))
			if err != nil {
				return nil, fmt.Errorf("contains: %w", err)
			}
			items = append(items, p)
		}
		anyItem := AnyItem(items)
		preds = append(preds, func(w host.World, pos host.Pos) bool {
			for _, stack := range w.BlockInventory(pos) {
				if !stack.IsEmpty() && anyItem(stack) {
					return true
				}
			}
			return false
		})
	}

	if len(preds) == 0 {
		return nil, malformed("block descriptor %s has no filters", obj.Raw)
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return func(w host.World, pos host.Pos) bool {
		for _, p := range preds {
			if !p(w, pos) {
				return false
			}
		}
		return true
	}, nil
}

// ParseBlockState compiles a block used as an action target: a name or
// {"block": name, "properties": [{"name","value"}]} applied to the default
// state.
func ParseBlockState(reg host.Registry, raw string) (host.BlockState, error) {
	text, obj, isObj, err := decode(raw)
	if err != nil {
		return host.BlockState{}, err
	}
	if !isObj {
		def, ok := reg.Block(host.Normalize(text))
		if !ok {
			return host.BlockState{}, unresolved("block", host.Normalize(text))
		}
		return def.Default, nil
	}
	name, ok, err := stringField(obj, "block")
	if err != nil {
		return host.BlockState{}, err
	}
	if !ok {
		return host.BlockState{}, malformed("block is required")
	}
	def, found := reg.Block(host.Normalize(name))
	if !found {
		return host.BlockState{}, unresolved("block", host.Normalize(name))
	}
	if props := obj.Get("properties"); props.Exists() {
		return applyProperties(def.Default, props)
	}
	return def.Default, nil
}

func applyProperties(state host.BlockState, props gjson.Result) (host.BlockState, error) {
	if !props.IsArray() {
		return state, malformed("properties must be a list")
	}
	for _, p := range props.Array() {
		name, okName, err := stringField(p, "name")
		if err != nil {
			return state, err
		}
		value, okValue, err := stringField(p, "value")
		if err != nil {
			return state, err
		}
		if !okName || !okValue {
			return state, malformed("property needs name and value, got %s", p.Raw)
		}
		state = state.WithProperty(name, value)
	}
	return state, nil
}
