package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rulekit/internal/attr"
	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/keys"
	"github.com/roach88/rulekit/internal/matcher"
	"github.com/roach88/rulekit/internal/nbt"
	"github.com/roach88/rulekit/internal/random"
)

const (
	angryRadius   = 50
	messageRadius = 100
	fireDamage    = 0.1
)

type runFunc = func(host.Event, host.Query)

func onEntity(f func(e host.Entity, ev host.Event, q host.Query)) runFunc {
	return func(ev host.Event, q host.Query) {
		if e := q.Entity(ev); e != nil {
			f(e, ev, q)
		}
	}
}

func onWorldDo(f func(w host.World, ev host.Event, q host.Query)) runFunc {
	return func(ev host.Event, q host.Query) {
		if w := q.World(ev); w != nil {
			f(w, ev, q)
		}
	}
}

// actions compiles in execution order.
func (b *build) actions() {
	b.health()
	b.scaled(keys.SpeedMultiply, keys.SpeedAdd, host.MovementSpeed)
	b.scaled(keys.DamageMultiply, keys.DamageAdd, host.AttackDamage)
	if attr.Has(b.m, keys.SizeMultiply) || attr.Has(b.m, keys.SizeAdd) {
		key := attr.AnyKey(keys.SizeMultiply)
		if !attr.Has(b.m, keys.SizeMultiply) {
			key = keys.SizeAdd
		}
		b.warnf(key, CodeUnimplemented, "entity size changes are not supported")
	}
	b.potions()
	if attr.GetOr(b.m, keys.Angry, false) {
		b.action(keys.Angry, fmt.Sprintf("target closest player within %d", angryRadius), func(ev host.Event, q host.Query) {
			e, w := q.Entity(ev), q.World(ev)
			if e == nil || w == nil {
				return
			}
			if p := w.ClosestPlayer(e.Pos(), angryRadius); p != nil {
				e.SetAttackTarget(p)
			}
		})
	}
	b.mobNBT()

	// Weighted equipment draws from the shared source in this order, so a
	// seeded run fills slots boots first.
	b.equip(keys.SetHeldItem, host.MainHand)
	b.equip(keys.ArmorBoots, host.Feet)
	b.equip(keys.ArmorLegs, host.Legs)
	b.equip(keys.ArmorHelmet, host.Head)
	b.equip(keys.ArmorChest, host.Chest)

	if attr.Has(b.m, keys.Fire) {
		secs := first(b.m, keys.Fire)
		src, _ := DamageSource("onFire")
		b.action(keys.Fire, fmt.Sprintf("ignite for %ds", secs), onEntity(func(e host.Entity, _ host.Event, _ host.Query) {
			e.Damage(src, fireDamage)
			e.SetFire(secs)
		}))
	}
	if attr.Has(b.m, keys.Explosion) {
		b.explosion(first(b.m, keys.Explosion))
	}
	if attr.GetOr(b.m, keys.Clear, false) {
		b.action(keys.Clear, "clear effects", onEntity(func(e host.Entity, _ host.Event, _ host.Query) {
			e.ClearEffects()
		}))
	}
	if attr.Has(b.m, keys.Damage) {
		b.damage(first(b.m, keys.Damage))
	}
	if attr.Has(b.m, keys.Message) {
		b.message(first(b.m, keys.Message))
	}
	b.give()
	b.drop()
	if attr.Has(b.m, keys.SetBlock) {
		b.setBlock()
	}
	b.setState(keys.SetState, false)
	b.setState(keys.SetPState, true)
}

func (b *build) health() {
	if !attr.Has(b.m, keys.HealthMultiply) && !attr.Has(b.m, keys.HealthAdd) {
		return
	}
	mul := attr.GetOr(b.m, keys.HealthMultiply, 1)
	add := attr.GetOr(b.m, keys.HealthAdd, 0)
	key := attr.AnyKey(keys.HealthMultiply)
	if !attr.Has(b.m, keys.HealthMultiply) {
		key = keys.HealthAdd
	}
	b.action(key, fmt.Sprintf("max health * %g + %g", mul, add), onEntity(func(e host.Entity, _ host.Event, _ host.Query) {
		base, ok := e.Attribute(host.MaxHealth)
		if !ok {
			return
		}
		v := base*mul + add
		e.SetAttribute(host.MaxHealth, v)
		e.SetHealth(v)
	}))
}

func (b *build) scaled(mulKey, addKey attr.Key[float64], a host.Attribute) {
	if !attr.Has(b.m, mulKey) && !attr.Has(b.m, addKey) {
		return
	}
	mul := attr.GetOr(b.m, mulKey, 1)
	add := attr.GetOr(b.m, addKey, 0)
	key := attr.AnyKey(mulKey)
	if !attr.Has(b.m, mulKey) {
		key = addKey
	}
	b.action(key, fmt.Sprintf("%s * %g + %g", a, mul, add), onEntity(func(e host.Entity, _ host.Event, _ host.Query) {
		if base, ok := e.Attribute(a); ok {
			e.SetAttribute(a, base*mul+add)
		}
	}))
}

// potions parses "id,duration,amplifier" entries, skipping bad ones.
func (b *build) potions() {
	if !attr.Has(b.m, keys.Potion) {
		return
	}
	var effects []host.Effect
	for _, raw := range attr.List(b.m, keys.Potion) {
		parts := strings.Split(raw, ",")
		if len(parts) != 3 {
			b.errorf(keys.Potion, CodeMalformedValue, "potion %q is not id,duration,amplifier", raw)
			continue
		}
		id := host.Normalize(parts[0])
		dur, err1 := strconv.Atoi(strings.TrimSpace(parts[1]))
		amp, err2 := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err1 != nil || err2 != nil {
			b.errorf(keys.Potion, CodeMalformedValue, "potion %q has a non-integer duration or amplifier", raw)
			continue
		}
		if !b.c.registry.Potion(id) {
			b.errorf(keys.Potion, CodeUnresolved, "unknown potion %s", id)
			continue
		}
		effects = append(effects, host.Effect{Potion: id, Duration: dur, Amplifier: amp})
	}
	if len(effects) == 0 {
		return
	}
	names := make([]string, len(effects))
	for i, e := range effects {
		names[i] = e.Potion
	}
	b.action(keys.Potion, "apply "+strings.Join(names, ", "), onEntity(func(e host.Entity, _ host.Event, _ host.Query) {
		for _, eff := range effects {
			e.AddEffect(eff)
		}
	}))
}

func (b *build) mobNBT() {
	if !attr.Has(b.m, keys.MobNBT) {
		return
	}
	var tags []nbt.Compound
	for _, raw := range attr.List(b.m, keys.MobNBT) {
		tag, err := nbt.ParseCompound(raw)
		if err != nil {
			b.errorf(keys.MobNBT, CodeMalformedDescriptor, "mob nbt %s: %v", raw, err)
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return
	}
	b.action(keys.MobNBT, fmt.Sprintf("apply %d nbt tag(s)", len(tags)), onEntity(func(e host.Entity, _ host.Event, _ host.Query) {
		for _, tag := range tags {
			e.ApplyNBT(tag.Clone())
		}
	}))
}

// picker returns a function handing out a fresh stack per call, or nil when
// no entry parsed.
func (b *build) picker(key attr.Key[string]) (func() (host.ItemStack, bool), int) {
	entries, errs := matcher.ParseWeightedItems(b.c.registry, attr.List(b.m, key))
	for _, err := range errs {
		b.reject(key, err)
	}
	switch len(entries) {
	case 0:
		return nil, 0
	case 1:
		only := entries[0].Value
		return func() (host.ItemStack, bool) { return only.Clone(), true }, 1
	}
	table := random.NewTable(entries)
	src := b.c.random
	return func() (host.ItemStack, bool) {
		s, ok := table.Pick(src)
		if !ok {
			return host.ItemStack{}, false
		}
		return s.Clone(), true
	}, len(entries)
}

func (b *build) equip(key attr.Key[string], slot host.Slot) {
	if !attr.Has(b.m, key) {
		return
	}
	pick, n := b.picker(key)
	if pick == nil {
		return
	}
	b.action(key, fmt.Sprintf("equip %s from %d entr%s", slot, n, plural(n)), onEntity(func(e host.Entity, _ host.Event, _ host.Query) {
		if s, ok := pick(); ok {
			e.Equip(slot, s)
		}
	}))
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// explosion parses "strength,flaming,smoking". A field that does not parse
// keeps its default.
func (b *build) explosion(raw string) {
	strength, flaming, smoking := 1.0, false, false
	parts := strings.Split(raw, ",")
	if f, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err == nil {
		strength = f
	}
	flag := func(s string) bool {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "yes":
			return true
		}
		return false
	}
	if len(parts) > 1 {
		flaming = flag(parts[1])
	}
	if len(parts) > 2 {
		smoking = flag(parts[2])
	}
	desc := fmt.Sprintf("explode strength %g flaming=%t smoking=%t", strength, flaming, smoking)
	b.action(keys.Explosion, desc, onWorldDo(func(w host.World, ev host.Event, q host.Query) {
		w.Explode(q.Pos(ev), strength, flaming, smoking)
	}))
}

// damage parses "source=amount"; the amount defaults to 1.
func (b *build) damage(raw string) {
	name, amountText, hasAmount := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	src, ok := DamageSource(name)
	if !ok {
		b.errorf(keys.Damage, CodeUnresolved, "unknown damage source %q", name)
		return
	}
	amount := 1.0
	if hasAmount {
		f, err := strconv.ParseFloat(strings.TrimSpace(amountText), 64)
		if err != nil {
			b.errorf(keys.Damage, CodeMalformedValue, "damage amount %q is not a number", amountText)
			return
		}
		amount = f
	}
	b.action(keys.Damage, fmt.Sprintf("%g %s damage", amount, name), onEntity(func(e host.Entity, _ host.Event, _ host.Query) {
		e.Damage(src, amount)
	}))
}

func (b *build) message(msg string) {
	b.action(keys.Message, fmt.Sprintf("message %q", msg), func(ev host.Event, q host.Query) {
		p := q.Player(ev)
		if p == nil {
			w := q.World(ev)
			if w == nil {
				return
			}
			p = w.ClosestPlayer(q.Pos(ev), messageRadius)
		}
		if p != nil {
			p.SendStatus(msg)
		}
	})
}

func (b *build) give() {
	if !attr.Has(b.m, keys.Give) {
		return
	}
	pick, n := b.picker(keys.Give)
	if pick == nil {
		return
	}
	b.action(keys.Give, fmt.Sprintf("give from %d entr%s", n, plural(n)), func(ev host.Event, q host.Query) {
		p := q.Player(ev)
		if p == nil {
			return
		}
		s, ok := pick()
		if !ok {
			return
		}
		if !p.Give(s) {
			p.Drop(s)
		}
	})
}

func (b *build) drop() {
	if !attr.Has(b.m, keys.Drop) {
		return
	}
	pick, n := b.picker(keys.Drop)
	if pick == nil {
		return
	}
	b.action(keys.Drop, fmt.Sprintf("drop from %d entr%s", n, plural(n)), onWorldDo(func(w host.World, ev host.Event, q host.Query) {
		if s, ok := pick(); ok {
			w.SpawnItem(q.Pos(ev), s)
		}
	}))
}

func (b *build) setBlock() {
	state, err := matcher.ParseBlockState(b.c.registry, first(b.m, keys.SetBlock))
	if err != nil {
		b.reject(keys.SetBlock, err)
		return
	}
	b.action(keys.SetBlock, "set block "+state.ID, onWorldDo(func(w host.World, ev host.Event, q host.Query) {
		w.SetBlockState(q.Pos(ev), state)
	}))
}

func (b *build) setState(key attr.Key[string], perPlayer bool) {
	if !attr.Has(b.m, key) {
		return
	}
	states, ok := b.c.compat.States()
	if !ok {
		b.missing(key, "state system")
		return
	}
	raw := first(b.m, key)
	name, value, ok := splitState(raw)
	if !ok {
		b.errorf(key, CodeMalformedValue, "%q is not name=value", raw)
		return
	}
	if perPlayer {
		b.action(key, "set player "+name+" = "+value, func(ev host.Event, q host.Query) {
			if p := q.Player(ev); p != nil {
				states.SetPlayerState(p, name, value)
			}
		})
		return
	}
	b.action(key, "set "+name+" = "+value, onWorldDo(func(w host.World, _ host.Event, _ host.Query) {
		states.SetState(w, name, value)
	}))
}
