// Package sandbox is an in-memory implementation of the host facade. It backs
// the scenario harness, the CLI "test" command and unit tests across the
// repository. Every mutation performed through the facade is appended to a
// shared Log so runs can be compared against golden snapshots.
package sandbox

import (
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/rulekit/internal/host"
)

// Air is the state reported for positions with no block placed.
var Air = host.BlockState{ID: "minecraft:air"}

// World is a mutable single-dimension world. Exported fields configure the
// read surface and must be set before rules run against it.
type World struct {
	TimeOfDay       int64
	Dim             int
	Rain            bool
	Thunder         bool
	Diff            host.Difficulty
	LocalDifficulty float64
	SpawnPoint      host.Pos
	LightLevel      int
	Sky             bool
	BiomeInfo       host.Biome
	Structures      []string
	LookAt          *host.Pos

	mu          sync.RWMutex
	blocks      map[host.Pos]host.BlockState
	energy      map[host.Pos]int
	inventories map[host.Pos][]host.ItemStack
	players     []*Player
	items       []SpawnedItem
	log         *Log
}

// SpawnedItem is an item entity created by SpawnItem or Player.Drop.
type SpawnedItem struct {
	Pos   host.Pos
	Stack host.ItemStack
}

// NewWorld creates a daylight plains world on normal difficulty.
func NewWorld() *World {
	return &World{
		Diff:       host.Normal,
		LightLevel: 15,
		Sky:        true,
		BiomeInfo: host.Biome{
			ID:    "minecraft:plains",
			Name:  "Plains",
			Temp:  host.Medium,
			Types: []string{"PLAINS"},
		},
		blocks:      make(map[host.Pos]host.BlockState),
		energy:      make(map[host.Pos]int),
		inventories: make(map[host.Pos][]host.ItemStack),
		log:         &Log{},
	}
}

// Log returns the mutation log shared by the world and its entities.
func (w *World) Log() *Log { return w.log }

// Place sets a block without recording a mutation. Used to build fixtures.
func (w *World) Place(pos host.Pos, state host.BlockState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks[pos] = state
}

// SetEnergy gives the block at pos an energy store.
func (w *World) SetEnergy(pos host.Pos, energy int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.energy[pos] = energy
}

// SetInventory fills the container at pos.
func (w *World) SetInventory(pos host.Pos, stacks ...host.ItemStack) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inventories[pos] = stacks
}

// NewEntity adds a mob to the world.
func (w *World) NewEntity(id string, pos host.Pos) *Entity {
	return newEntity(w, id, pos)
}

// NewPlayer adds a player to the world.
func (w *World) NewPlayer(name string, pos host.Pos) *Player {
	p := &Player{Entity: newEntity(w, name, pos), name: name, capacity: DefaultCapacity}
	w.mu.Lock()
	w.players = append(w.players, p)
	w.mu.Unlock()
	return p
}

// Items returns every item entity spawned so far.
func (w *World) Items() []SpawnedItem {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.items)
}

func (w *World) Time() int64                           { return w.TimeOfDay }
func (w *World) Dimension() int                        { return w.Dim }
func (w *World) Raining() bool                         { return w.Rain }
func (w *World) Thundering() bool                      { return w.Thunder }
func (w *World) Difficulty() host.Difficulty           { return w.Diff }
func (w *World) AdditionalDifficulty(host.Pos) float64 { return w.LocalDifficulty }
func (w *World) Spawn() host.Pos                       { return w.SpawnPoint }
func (w *World) Light(host.Pos) int                    { return w.LightLevel }
func (w *World) CanSeeSky(host.Pos) bool               { return w.Sky }
func (w *World) Biome(host.Pos) host.Biome             { return w.BiomeInfo }

func (w *World) InStructure(name string, _ host.Pos) bool {
	return slices.Contains(w.Structures, name)
}

func (w *World) BlockState(pos host.Pos) host.BlockState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if s, ok := w.blocks[pos]; ok {
		return s
	}
	return Air
}

func (w *World) BlockEnergy(pos host.Pos) (int, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.energy[pos]
	return e, ok
}

func (w *World) BlockInventory(pos host.Pos) []host.ItemStack {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.inventories[pos])
}

func (w *World) LookTarget(host.Player) (host.Pos, bool) {
	if w.LookAt == nil {
		return host.Pos{}, false
	}
	return *w.LookAt, true
}

// ClosestPlayer returns the nearest player within radius, or nil.
func (w *World) ClosestPlayer(pos host.Pos, radius float64) host.Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var (
		best     *Player
		bestDist = radius * radius
	)
	for _, p := range w.players {
		if d := p.Pos().DistanceSq(pos); d <= bestDist {
			best, bestDist = p, d
		}
	}
	if best == nil {
		return nil
	}
	return best
}

func (w *World) SetBlockState(pos host.Pos, state host.BlockState) {
	w.Place(pos, state)
	w.log.add("world", "setblock", "%s %s", formatPos(pos), formatState(state))
}

func (w *World) SpawnItem(pos host.Pos, stack host.ItemStack) {
	w.mu.Lock()
	w.items = append(w.items, SpawnedItem{Pos: pos, Stack: stack})
	w.mu.Unlock()
	w.log.add("world", "spawnitem", "%s %s", formatPos(pos), formatStack(stack))
}

func (w *World) Explode(pos host.Pos, strength float64, flaming, smoking bool) {
	w.log.add("world", "explode", "%s strength=%g flaming=%t smoking=%t", formatPos(pos), strength, flaming, smoking)
}

func formatPos(p host.Pos) string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}
