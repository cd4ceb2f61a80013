package host

import (
	"maps"
	"strings"

	"github.com/roach88/rulekit/internal/nbt"
)

// DefaultNamespace is assumed for identifiers written without one.
const DefaultNamespace = "minecraft"

// Normalize prefixes id with the default namespace when it has none.
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, ":") {
		return id
	}
	return DefaultNamespace + ":" + id
}

// Namespace returns the mod part of an identifier.
func Namespace(id string) string {
	ns, _, ok := strings.Cut(Normalize(id), ":")
	if !ok {
		return DefaultNamespace
	}
	return ns
}

// Pos is an integer block position.
type Pos struct {
	X, Y, Z int
}

// Add returns p shifted by the given deltas.
func (p Pos) Add(dx, dy, dz int) Pos {
	return Pos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// DistanceSq returns the squared euclidean distance between two positions.
func (p Pos) DistanceSq(o Pos) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	dz := float64(p.Z - o.Z)
	return dx*dx + dy*dy + dz*dz
}

// ItemStack is a value snapshot of an inventory slot.
// The zero value is the empty stack.
type ItemStack struct {
	Item      string
	Count     int
	Damage    int
	NBT       nbt.Compound
	Energy    int
	HasEnergy bool
}

// IsEmpty reports whether the stack holds nothing.
func (s ItemStack) IsEmpty() bool {
	return s.Item == "" || s.Count <= 0
}

// Clone returns a copy that shares no tag data with s.
func (s ItemStack) Clone() ItemStack {
	s.NBT = s.NBT.Clone()
	return s
}

// BlockState is a block identity plus its property values.
type BlockState struct {
	ID    string
	Props map[string]string
}

// Equal reports whether two states are the same block with the same properties.
func (b BlockState) Equal(o BlockState) bool {
	return b.ID == o.ID && maps.Equal(b.Props, o.Props)
}

// WithProperty returns a copy with name set to value. Properties the state
// does not already define are ignored.
func (b BlockState) WithProperty(name, value string) BlockState {
	if _, ok := b.Props[name]; !ok {
		return b
	}
	props := maps.Clone(b.Props)
	props[name] = value
	return BlockState{ID: b.ID, Props: props}
}

// Difficulty is the world difficulty setting.
type Difficulty int

const (
	Peaceful Difficulty = iota
	Easy
	Normal
	Hard
)

var difficultyNames = [...]string{"peaceful", "easy", "normal", "hard"}

func (d Difficulty) String() string {
	if d < Peaceful || d > Hard {
		return "unknown"
	}
	return difficultyNames[d]
}

// ParseDifficulty resolves a case-insensitive difficulty name.
func ParseDifficulty(s string) (Difficulty, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range difficultyNames {
		if name == s {
			return Difficulty(i), true
		}
	}
	return 0, false
}

// TempCategory is the coarse temperature class of a biome.
type TempCategory int

const (
	Cold TempCategory = iota
	Medium
	Warm
	Ocean
)

var tempNames = [...]string{"cold", "medium", "warm", "ocean"}

func (t TempCategory) String() string {
	if t < Cold || t > Ocean {
		return "unknown"
	}
	return tempNames[t]
}

// ParseTempCategory resolves a case-insensitive temperature category.
func ParseTempCategory(s string) (TempCategory, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range tempNames {
		if name == s {
			return TempCategory(i), true
		}
	}
	return 0, false
}

// Biome describes the biome at a position.
type Biome struct {
	ID    string
	Name  string
	Temp  TempCategory
	Types []string
}

// Slot is an equipment slot.
type Slot int

const (
	MainHand Slot = iota
	OffHand
	Head
	Chest
	Legs
	Feet
)

func (s Slot) String() string {
	switch s {
	case MainHand:
		return "mainhand"
	case OffHand:
		return "offhand"
	case Head:
		return "head"
	case Chest:
		return "chest"
	case Legs:
		return "legs"
	case Feet:
		return "feet"
	}
	return "unknown"
}

// Attribute names an entity attribute.
type Attribute string

const (
	MaxHealth     Attribute = "generic.maxHealth"
	MovementSpeed Attribute = "generic.movementSpeed"
	AttackDamage  Attribute = "generic.attackDamage"
)

// Effect is a potion effect applied to an entity.
type Effect struct {
	Potion    string
	Duration  int
	Amplifier int
}

// DamageSource describes how an entity was hurt.
type DamageSource struct {
	Name        string
	Fire        bool
	BypassArmor bool
	Magic       bool
	Explosion   bool
}

// Season is the current season of a world.
type Season int

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

// AccessorySlot groups accessory inventory slots by kind.
type AccessorySlot string

const (
	AccessoryAmulet  AccessorySlot = "amulet"
	AccessoryRing    AccessorySlot = "ring"
	AccessoryBelt    AccessorySlot = "belt"
	AccessoryTrinket AccessorySlot = "trinket"
	AccessoryHead    AccessorySlot = "head"
	AccessoryBody    AccessorySlot = "body"
	AccessoryCharm   AccessorySlot = "charm"
)
