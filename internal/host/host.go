// Package host defines the narrow facade through which rules observe and
// mutate the game. The rule engine never implements these interfaces; a
// game adapter (or the in-memory sandbox) does.
//
// Interface-typed return values follow one convention: "absent" is an
// untyped nil, never a typed nil pointer wrapped in the interface.
package host

import "github.com/roach88/rulekit/internal/nbt"

// Event is the opaque trigger a rule is evaluated against. Only the Query
// knows how to look inside it.
type Event = any

// Query extracts the world, actors and positions relevant to an event.
type Query interface {
	World(ev Event) World
	Entity(ev Event) Entity
	Player(ev Event) Player
	Pos(ev Event) Pos
	// ValidPos is Pos adjusted to a block that exists (e.g. the block below
	// an entity standing in the air).
	ValidPos(ev Event) Pos
	Y(ev Event) int
}

// World is the read and write surface of one dimension.
type World interface {
	Time() int64
	Dimension() int
	Raining() bool
	Thundering() bool
	Difficulty() Difficulty
	AdditionalDifficulty(pos Pos) float64
	Spawn() Pos
	Light(pos Pos) int
	CanSeeSky(pos Pos) bool
	Biome(pos Pos) Biome
	InStructure(name string, pos Pos) bool

	BlockState(pos Pos) BlockState
	// BlockEnergy reports stored energy; ok is false for blocks without
	// an energy capability.
	BlockEnergy(pos Pos) (energy int, ok bool)
	BlockInventory(pos Pos) []ItemStack

	// LookTarget probes the block the player is looking at.
	LookTarget(p Player) (Pos, bool)
	ClosestPlayer(pos Pos, radius float64) Player

	SetBlockState(pos Pos, state BlockState)
	SpawnItem(pos Pos, stack ItemStack)
	Explode(pos Pos, strength float64, flaming, smoking bool)
}

// Entity is a living actor.
type Entity interface {
	Pos() Pos
	Attribute(a Attribute) (base float64, ok bool)
	SetAttribute(a Attribute, base float64)
	SetHealth(v float64)
	AddEffect(e Effect)
	ClearEffects()
	Damage(src DamageSource, amount float64)
	SetFire(seconds int)
	Equipment(slot Slot) ItemStack
	Equip(slot Slot, stack ItemStack)
	ApplyNBT(tag nbt.Compound)
	SetAttackTarget(p Player)
}

// Player is an Entity with an inventory and a chat channel.
type Player interface {
	Entity
	Name() string
	// Give inserts the stack; false means the inventory had no room.
	Give(stack ItemStack) bool
	Drop(stack ItemStack)
	SendStatus(msg string)
}

// ItemDef is a registered item.
type ItemDef struct {
	ID      string
	OreTags []string
}

// BlockDef is a registered block.
type BlockDef struct {
	ID      string
	Default BlockState
	OreTags []string
}

// Registry resolves identifiers at compile time. Implementations must be
// safe for concurrent reads; matchers consult it during evaluation.
type Registry interface {
	Item(id string) (ItemDef, bool)
	Block(id string) (BlockDef, bool)
	Potion(id string) bool
}

// Compat probes optional game systems. Each probe reports whether the
// system is installed and, if so, returns it. BiomeName resolves the display
// name biome conditions compare against.
type Compat interface {
	Accessories() (Accessories, bool)
	Stages() (Stages, bool)
	Zones() (Zones, bool)
	Seasons() (Seasons, bool)
	States() (States, bool)
	BiomeName(b Biome) string
}

// Accessories exposes extra equipment slots.
type Accessories interface {
	Slots(kind AccessorySlot) []int
	Stack(p Player, slot int) ItemStack
}

// Stages tracks per-player progression stages.
type Stages interface {
	HasStage(p Player, stage string) bool
}

// Zones classifies positions inside generated cities.
type Zones interface {
	IsCity(q Query, ev Event) bool
	IsStreet(q Query, ev Event) bool
	InSphere(q Query, ev Event) bool
	IsBuilding(q Query, ev Event) bool
}

// Seasons reports the current season.
type Seasons interface {
	Season(w World) Season
}

// States stores named world and player state values.
type States interface {
	State(w World, name string) string
	PlayerState(p Player, name string) string
	SetState(w World, name, value string)
	SetPlayerState(p Player, name, value string)
}

// NoCompat reports every optional system as absent.
type NoCompat struct{}

func (NoCompat) Accessories() (Accessories, bool) { return nil, false }
func (NoCompat) Stages() (Stages, bool)           { return nil, false }
func (NoCompat) Zones() (Zones, bool)             { return nil, false }
func (NoCompat) Seasons() (Seasons, bool)         { return nil, false }
func (NoCompat) States() (States, bool)           { return nil, false }
func (NoCompat) BiomeName(b Biome) string         { return b.Name }
