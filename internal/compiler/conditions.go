package compiler

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/rulekit/internal/attr"
	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/keys"
	"github.com/roach88/rulekit/internal/matcher"
)

type testFunc = func(host.Event, host.Query) bool

// onWorld guards a test against a missing world.
func onWorld(f func(w host.World, ev host.Event, q host.Query) bool) testFunc {
	return func(ev host.Event, q host.Query) bool {
		w := q.World(ev)
		if w == nil {
			return false
		}
		return f(w, ev, q)
	}
}

// onPlayer guards a test against a missing player.
func onPlayer(f func(p host.Player, ev host.Event, q host.Query) bool) testFunc {
	return func(ev host.Event, q host.Query) bool {
		p := q.Player(ev)
		if p == nil {
			return false
		}
		return f(p, ev, q)
	}
}

// conditions compiles checks in cost order: local arithmetic first, then
// world lookups, then player scans.
func (b *build) conditions() {
	b.local()
	b.world()
	b.player()
}

func (b *build) local() {
	m := b.m
	if attr.Has(m, keys.Random) {
		v := first(m, keys.Random)
		src := b.c.random
		b.check(keys.Random, fmt.Sprintf("random < %g", v), func(host.Event, host.Query) bool {
			return src.Float64() < v
		})
	}
	if attr.Has(m, keys.Dimension) {
		dims := attr.List(m, keys.Dimension)
		b.check(keys.Dimension, fmt.Sprintf("dimension in %v", dims), onWorld(func(w host.World, _ host.Event, _ host.Query) bool {
			return slices.Contains(dims, w.Dimension())
		}))
	}
	if attr.Has(m, keys.MinTime) {
		v := int64(first(m, keys.MinTime))
		b.check(keys.MinTime, fmt.Sprintf("time >= %d", v), onWorld(func(w host.World, _ host.Event, _ host.Query) bool {
			return w.Time() >= v
		}))
	}
	if attr.Has(m, keys.MaxTime) {
		v := int64(first(m, keys.MaxTime))
		b.check(keys.MaxTime, fmt.Sprintf("time <= %d", v), onWorld(func(w host.World, _ host.Event, _ host.Query) bool {
			return w.Time() <= v
		}))
	}
	if attr.Has(m, keys.MinHeight) {
		v := first(m, keys.MinHeight)
		b.check(keys.MinHeight, fmt.Sprintf("y >= %d", v), func(ev host.Event, q host.Query) bool {
			return q.Y(ev) >= v
		})
	}
	if attr.Has(m, keys.MaxHeight) {
		v := first(m, keys.MaxHeight)
		b.check(keys.MaxHeight, fmt.Sprintf("y <= %d", v), func(ev host.Event, q host.Query) bool {
			return q.Y(ev) <= v
		})
	}
}

func (b *build) world() {
	m := b.m
	if attr.Has(m, keys.Weather) {
		b.weather(first(m, keys.Weather))
	}
	if attr.Has(m, keys.Difficulty) {
		raw := first(m, keys.Difficulty)
		if d, ok := host.ParseDifficulty(raw); ok {
			b.check(keys.Difficulty, "difficulty = "+d.String(), onWorld(func(w host.World, _ host.Event, _ host.Query) bool {
				return w.Difficulty() == d
			}))
		} else {
			b.errorf(keys.Difficulty, CodeMalformedValue, "unknown difficulty %q", raw)
		}
	}
	if attr.Has(m, keys.MinSpawnDist) {
		v := first(m, keys.MinSpawnDist)
		sq := v * v
		b.check(keys.MinSpawnDist, fmt.Sprintf("spawn distance >= %g", v), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			return q.Pos(ev).DistanceSq(w.Spawn()) >= sq
		}))
	}
	if attr.Has(m, keys.MaxSpawnDist) {
		v := first(m, keys.MaxSpawnDist)
		sq := v * v
		b.check(keys.MaxSpawnDist, fmt.Sprintf("spawn distance <= %g", v), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			return q.Pos(ev).DistanceSq(w.Spawn()) <= sq
		}))
	}
	if attr.Has(m, keys.MinLight) {
		v := first(m, keys.MinLight)
		b.check(keys.MinLight, fmt.Sprintf("light >= %d", v), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			return w.Light(q.Pos(ev)) >= v
		}))
	}
	if attr.Has(m, keys.MaxLight) {
		v := first(m, keys.MaxLight)
		b.check(keys.MaxLight, fmt.Sprintf("light <= %d", v), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			return w.Light(q.Pos(ev)) <= v
		}))
	}
	if attr.Has(m, keys.MinDifficulty) {
		v := first(m, keys.MinDifficulty)
		b.check(keys.MinDifficulty, fmt.Sprintf("local difficulty >= %g", v), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			return w.AdditionalDifficulty(q.Pos(ev)) >= v
		}))
	}
	if attr.Has(m, keys.MaxDifficulty) {
		v := first(m, keys.MaxDifficulty)
		b.check(keys.MaxDifficulty, fmt.Sprintf("local difficulty <= %g", v), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			return w.AdditionalDifficulty(q.Pos(ev)) <= v
		}))
	}
	if attr.Has(m, keys.SeeSky) {
		v := first(m, keys.SeeSky)
		b.check(keys.SeeSky, fmt.Sprintf("sees sky = %t", v), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			return w.CanSeeSky(q.Pos(ev)) == v
		}))
	}

	b.seasons()
	if attr.Has(m, keys.State) {
		b.state()
	}
	if attr.Has(m, keys.Block) {
		b.block()
	}
	b.biomes()
	if attr.Has(m, keys.Structure) {
		names := attr.List(m, keys.Structure)
		b.check(keys.Structure, "structure in "+strings.Join(names, ", "), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			pos := q.Pos(ev)
			for _, name := range names {
				if w.InStructure(name, pos) {
					return true
				}
			}
			return false
		}))
	}
	b.zones()
}

func (b *build) weather(raw string) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(lower, "rain"):
		b.check(keys.Weather, "raining", onWorld(func(w host.World, _ host.Event, _ host.Query) bool {
			return w.Raining()
		}))
	case strings.HasPrefix(lower, "thunder"):
		b.check(keys.Weather, "thundering", onWorld(func(w host.World, _ host.Event, _ host.Query) bool {
			return w.Thundering()
		}))
	default:
		b.errorf(keys.Weather, CodeMalformedValue, "unknown weather %q", raw)
	}
}

func (b *build) seasons() {
	pairs := []struct {
		key    attr.Key[bool]
		season host.Season
	}{
		{keys.Summer, host.Summer},
		{keys.Winter, host.Winter},
		{keys.Spring, host.Spring},
		{keys.Autumn, host.Autumn},
	}
	for _, p := range pairs {
		if !attr.Has(b.m, p.key) {
			continue
		}
		seasons, ok := b.c.compat.Seasons()
		if !ok {
			b.missing(p.key, "season system")
			continue
		}
		want := first(b.m, p.key)
		season := p.season
		b.check(p.key, fmt.Sprintf("%s = %t", p.key.Name(), want), onWorld(func(w host.World, _ host.Event, _ host.Query) bool {
			return (seasons.Season(w) == season) == want
		}))
	}
}

// splitState parses "name=value".
func splitState(raw string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}

func (b *build) state() {
	raw := first(b.m, keys.State)
	states, ok := b.c.compat.States()
	if !ok {
		b.missing(keys.State, "state system")
		return
	}
	name, value, ok := splitState(raw)
	if !ok {
		b.errorf(keys.State, CodeMalformedValue, "state %q is not name=value", raw)
		return
	}
	b.check(keys.State, name+" = "+value, onWorld(func(w host.World, _ host.Event, _ host.Query) bool {
		return states.State(w, name) == value
	}))
}

// block compiles the block list. Unlike item lists, one bad entry disables
// the whole check.
func (b *build) block() {
	raws := attr.List(b.m, keys.Block)
	preds := make([]matcher.BlockPredicate, 0, len(raws))
	for _, raw := range raws {
		p, err := matcher.ParseBlock(b.c.registry, raw)
		if err != nil {
			b.reject(keys.Block, fmt.Errorf("block %s: %w", raw, err))
			return
		}
		preds = append(preds, p)
	}
	match := matcher.AnyBlock(preds)

	at := matcher.PosFunc(matcher.ValidPos)
	where := "valid position"
	if attr.Has(b.m, keys.BlockOffset) {
		off, err := matcher.ParseOffset(first(b.m, keys.BlockOffset))
		if err != nil {
			b.reject(keys.BlockOffset, err)
		} else {
			at = off
			where = "offset position"
		}
	}
	desc := fmt.Sprintf("block at %s matches %d descriptor(s)", where, len(preds))
	b.check(keys.Block, desc, onWorld(func(w host.World, ev host.Event, q host.Query) bool {
		return match(w, at(ev, q))
	}))
}

func (b *build) biomes() {
	m := b.m
	if attr.Has(m, keys.Biome) {
		names := attr.List(m, keys.Biome)
		compat := b.c.compat
		b.check(keys.Biome, "biome in "+strings.Join(names, ", "), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			return slices.Contains(names, compat.BiomeName(w.Biome(q.Pos(ev))))
		}))
	}
	if attr.Has(m, keys.BiomeType) {
		fold := cases.Fold()
		raw := attr.List(m, keys.BiomeType)
		types := make([]string, len(raw))
		for i, t := range raw {
			types[i] = fold.String(t)
		}
		b.check(keys.BiomeType, "biome type in "+strings.Join(raw, ", "), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			// cases.Caser is stateful, so each evaluation folds with its own.
			f := cases.Fold()
			for _, t := range w.Biome(q.Pos(ev)).Types {
				if slices.Contains(types, f.String(t)) {
					return true
				}
			}
			return false
		}))
	}
	if attr.Has(m, keys.TempCategory) {
		raw := attr.List(m, keys.TempCategory)
		cats := make([]host.TempCategory, 0, len(raw))
		for _, r := range raw {
			c, ok := host.ParseTempCategory(r)
			if !ok {
				b.errorf(keys.TempCategory, CodeMalformedValue, "unknown temperature category %q", r)
				return
			}
			cats = append(cats, c)
		}
		b.check(keys.TempCategory, "temperature in "+strings.Join(raw, ", "), onWorld(func(w host.World, ev host.Event, q host.Query) bool {
			return slices.Contains(cats, w.Biome(q.Pos(ev)).Temp)
		}))
	}
}

func (b *build) zones() {
	tests := []struct {
		key  attr.Key[bool]
		test func(host.Zones, host.Query, host.Event) bool
	}{
		{keys.InCity, host.Zones.IsCity},
		{keys.InStreet, host.Zones.IsStreet},
		{keys.InSphere, host.Zones.InSphere},
		{keys.InBuilding, host.Zones.IsBuilding},
	}
	for _, t := range tests {
		if !attr.Has(b.m, t.key) {
			continue
		}
		zones, ok := b.c.compat.Zones()
		if !ok {
			b.missing(t.key, "zone system")
			continue
		}
		want := first(b.m, t.key)
		test := t.test
		b.check(t.key, fmt.Sprintf("%s = %t", t.key.Name(), want), func(ev host.Event, q host.Query) bool {
			return test(zones, q, ev) == want
		})
	}
}

func (b *build) player() {
	m := b.m
	if attr.Has(m, keys.GameStage) {
		if stages, ok := b.c.compat.Stages(); ok {
			stage := first(m, keys.GameStage)
			b.check(keys.GameStage, "player has stage "+stage, onPlayer(func(p host.Player, _ host.Event, _ host.Query) bool {
				return stages.HasStage(p, stage)
			}))
		} else {
			b.missing(keys.GameStage, "stage system")
		}
	}
	if attr.Has(m, keys.PState) {
		b.playerState()
	}

	for _, eq := range []struct {
		key  attr.Key[string]
		slot host.Slot
	}{
		{keys.Helmet, host.Head},
		{keys.Chestplate, host.Chest},
		{keys.Leggings, host.Legs},
		{keys.Boots, host.Feet},
		{keys.HeldItem, host.MainHand},
		{keys.OffhandItem, host.OffHand},
	} {
		b.equipment(eq.key, eq.slot)
	}
	b.equipment(keys.BothHandsItem, host.MainHand, host.OffHand)

	for _, acc := range []struct {
		key  attr.Key[string]
		kind host.AccessorySlot
	}{
		{keys.Amulet, host.AccessoryAmulet},
		{keys.Ring, host.AccessoryRing},
		{keys.Belt, host.AccessoryBelt},
		{keys.Trinket, host.AccessoryTrinket},
		{keys.Head, host.AccessoryHead},
		{keys.Body, host.AccessoryBody},
		{keys.Charm, host.AccessoryCharm},
	} {
		b.accessory(acc.key, acc.kind)
	}
}

func (b *build) playerState() {
	raw := first(b.m, keys.PState)
	states, ok := b.c.compat.States()
	if !ok {
		b.missing(keys.PState, "state system")
		return
	}
	name, value, ok := splitState(raw)
	if !ok {
		b.errorf(keys.PState, CodeMalformedValue, "player state %q is not name=value", raw)
		return
	}
	b.check(keys.PState, "player "+name+" = "+value, onPlayer(func(p host.Player, _ host.Event, _ host.Query) bool {
		return states.PlayerState(p, name) == value
	}))
}

// items compiles an item list, keeping the entries that parse. ok is false
// when none did.
func (b *build) items(key attr.Key[string]) (matcher.ItemPredicate, int, bool) {
	preds, errs := matcher.ParseItems(b.c.registry, attr.List(b.m, key))
	for _, err := range errs {
		b.reject(key, err)
	}
	if len(preds) == 0 {
		return nil, 0, false
	}
	return matcher.AnyItem(preds), len(preds), true
}

// equipment checks that a non-empty stack in any of slots matches.
func (b *build) equipment(key attr.Key[string], slots ...host.Slot) {
	if !attr.Has(b.m, key) {
		return
	}
	match, n, ok := b.items(key)
	if !ok {
		return
	}
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.String()
	}
	desc := fmt.Sprintf("%s matches %d descriptor(s)", strings.Join(names, " or "), n)
	b.check(key, desc, onPlayer(func(p host.Player, _ host.Event, _ host.Query) bool {
		for _, slot := range slots {
			s := p.Equipment(slot)
			if !s.IsEmpty() && match(s) {
				return true
			}
		}
		return false
	}))
}

func (b *build) accessory(key attr.Key[string], kind host.AccessorySlot) {
	if !attr.Has(b.m, key) {
		return
	}
	acc, ok := b.c.compat.Accessories()
	if !ok {
		b.missing(key, "accessory system")
		return
	}
	match, n, ok := b.items(key)
	if !ok {
		return
	}
	desc := fmt.Sprintf("%s accessory matches %d descriptor(s)", kind, n)
	b.check(key, desc, onPlayer(func(p host.Player, _ host.Event, _ host.Query) bool {
		for _, slot := range acc.Slots(kind) {
			s := acc.Stack(p, slot)
			if !s.IsEmpty() && match(s) {
				return true
			}
		}
		return false
	}))
}
