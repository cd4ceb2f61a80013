package sandbox

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/nbt"
)

// DefaultCapacity is the number of stacks a player inventory holds.
const DefaultCapacity = 36

// Hit records one Damage call.
type Hit struct {
	Source string
	Amount float64
}

// Entity is an in-memory living entity.
type Entity struct {
	id    string
	world *World

	mu        sync.Mutex
	at        host.Pos
	attrs     map[host.Attribute]float64
	health    float64
	effects   []host.Effect
	fire      int
	equipment map[host.Slot]host.ItemStack
	tag       nbt.Compound
	target    host.Player
	hits      []Hit
}

func newEntity(w *World, id string, pos host.Pos) *Entity {
	return &Entity{
		id:    id,
		world: w,
		at:    pos,
		attrs: map[host.Attribute]float64{
			host.MaxHealth:     20,
			host.MovementSpeed: 0.25,
			host.AttackDamage:  2,
		},
		health:    20,
		equipment: make(map[host.Slot]host.ItemStack),
		tag:       nbt.Compound{},
	}
}

// ID returns the entity's identifier in mutation logs.
func (e *Entity) ID() string { return e.id }

func (e *Entity) Pos() host.Pos {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.at
}

// MoveTo relocates the entity without logging.
func (e *Entity) MoveTo(pos host.Pos) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.at = pos
}

func (e *Entity) Attribute(a host.Attribute) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.attrs[a]
	return v, ok
}

func (e *Entity) SetAttribute(a host.Attribute, base float64) {
	e.mu.Lock()
	e.attrs[a] = base
	e.mu.Unlock()
	e.world.log.add(e.id, "attribute", "%s=%g", a, base)
}

// Health returns current health.
func (e *Entity) Health() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.health
}

func (e *Entity) SetHealth(v float64) {
	e.mu.Lock()
	e.health = v
	e.mu.Unlock()
	e.world.log.add(e.id, "health", "%g", v)
}

// Effects returns active effects in application order.
func (e *Entity) Effects() []host.Effect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.effects)
}

func (e *Entity) AddEffect(eff host.Effect) {
	e.mu.Lock()
	e.effects = append(e.effects, eff)
	e.mu.Unlock()
	e.world.log.add(e.id, "effect", "%s duration=%d amplifier=%d", eff.Potion, eff.Duration, eff.Amplifier)
}

func (e *Entity) ClearEffects() {
	e.mu.Lock()
	e.effects = nil
	e.mu.Unlock()
	e.world.log.add(e.id, "cleareffects", "")
}

// Hits returns every damage call received.
func (e *Entity) Hits() []Hit {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.hits)
}

func (e *Entity) Damage(src host.DamageSource, amount float64) {
	e.mu.Lock()
	e.hits = append(e.hits, Hit{Source: src.Name, Amount: amount})
	e.health -= amount
	e.mu.Unlock()
	e.world.log.add(e.id, "damage", "%s %g", src.Name, amount)
}

// Fire returns the remaining burn time in seconds.
func (e *Entity) Fire() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fire
}

func (e *Entity) SetFire(seconds int) {
	e.mu.Lock()
	e.fire = seconds
	e.mu.Unlock()
	e.world.log.add(e.id, "fire", "%ds", seconds)
}

func (e *Entity) Equipment(slot host.Slot) host.ItemStack {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.equipment[slot]
}

// Wear sets equipment without logging. Used to build fixtures.
func (e *Entity) Wear(slot host.Slot, stack host.ItemStack) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.equipment[slot] = stack
}

func (e *Entity) Equip(slot host.Slot, stack host.ItemStack) {
	e.Wear(slot, stack)
	e.world.log.add(e.id, "equip", "%s %s", slot, formatStack(stack))
}

// Tag returns a copy of the entity's tag data.
func (e *Entity) Tag() nbt.Compound {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tag.Clone()
}

func (e *Entity) ApplyNBT(tag nbt.Compound) {
	e.mu.Lock()
	e.tag.Merge(tag)
	e.mu.Unlock()
	e.world.log.add(e.id, "nbt", "%s", tag.String())
}

// Target returns the current attack target, or nil.
func (e *Entity) Target() host.Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.target
}

func (e *Entity) SetAttackTarget(p host.Player) {
	if p == nil {
		return
	}
	e.mu.Lock()
	e.target = p
	e.mu.Unlock()
	e.world.log.add(e.id, "target", "%s", p.Name())
}

// Player is an in-memory player with a bounded inventory.
type Player struct {
	*Entity
	name     string
	capacity int
	items    []host.ItemStack
	messages []string
}

func (p *Player) Name() string { return p.name }

// SetCapacity limits how many stacks the inventory accepts.
func (p *Player) SetCapacity(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.capacity = n
}

// Inventory returns the stacks given so far.
func (p *Player) Inventory() []host.ItemStack {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.items)
}

// Messages returns status messages received.
func (p *Player) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.messages)
}

func (p *Player) Give(stack host.ItemStack) bool {
	p.mu.Lock()
	if len(p.items) >= p.capacity {
		p.mu.Unlock()
		return false
	}
	p.items = append(p.items, stack)
	p.mu.Unlock()
	p.world.log.add(p.id, "give", "%s", formatStack(stack))
	return true
}

func (p *Player) Drop(stack host.ItemStack) {
	pos := p.Pos()
	p.world.mu.Lock()
	p.world.items = append(p.world.items, SpawnedItem{Pos: pos, Stack: stack})
	p.world.mu.Unlock()
	p.world.log.add(p.id, "drop", "%s", formatStack(stack))
}

func (p *Player) SendStatus(msg string) {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	p.world.log.add(p.id, "message", "%q", msg)
}

func formatStack(s host.ItemStack) string {
	if s.IsEmpty() {
		return "empty"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%dx%s", s.Count, s.Item)
	if s.Damage != 0 {
		fmt.Fprintf(&b, "@%d", s.Damage)
	}
	if len(s.NBT) > 0 {
		b.WriteString(s.NBT.String())
	}
	return b.String()
}

func formatState(s host.BlockState) string {
	if len(s.Props) == 0 {
		return s.ID
	}
	names := make([]string, 0, len(s.Props))
	for k := range s.Props {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "=" + s.Props[k]
	}
	return s.ID + "[" + strings.Join(parts, ",") + "]"
}
