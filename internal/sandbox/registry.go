package sandbox

import (
	"maps"
	"sync"

	"github.com/roach88/rulekit/internal/host"
)

// Registry is an in-memory host.Registry. Populate it before handing it to
// a compiler; reads are safe from any goroutine.
type Registry struct {
	mu      sync.RWMutex
	items   map[string]host.ItemDef
	blocks  map[string]host.BlockDef
	potions map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		items:   make(map[string]host.ItemDef),
		blocks:  make(map[string]host.BlockDef),
		potions: make(map[string]bool),
	}
}

// AddItem registers an item with optional ore tags.
func (r *Registry) AddItem(id string, oreTags ...string) *Registry {
	id = host.Normalize(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = host.ItemDef{ID: id, OreTags: oreTags}
	return r
}

// AddBlock registers a block whose default state carries props. The block is
// also registered as an item, as placeable blocks are in the game.
func (r *Registry) AddBlock(id string, props map[string]string, oreTags ...string) *Registry {
	id = host.Normalize(id)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[id] = host.BlockDef{
		ID:      id,
		Default: host.BlockState{ID: id, Props: maps.Clone(props)},
		OreTags: oreTags,
	}
	if _, ok := r.items[id]; !ok {
		r.items[id] = host.ItemDef{ID: id, OreTags: oreTags}
	}
	return r
}

// AddPotion registers a potion effect id.
func (r *Registry) AddPotion(id string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.potions[host.Normalize(id)] = true
	return r
}

func (r *Registry) Item(id string) (host.ItemDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.items[host.Normalize(id)]
	return d, ok
}

func (r *Registry) Block(id string) (host.BlockDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.blocks[host.Normalize(id)]
	return d, ok
}

func (r *Registry) Potion(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.potions[host.Normalize(id)]
}

// Vanilla returns a registry holding a small slice of the base game, enough
// for scenarios and examples.
func Vanilla() *Registry {
	r := NewRegistry()
	for _, id := range []string{
		"stick", "apple", "bread", "coal", "diamond", "iron_ingot", "gold_ingot",
		"diamond_sword", "iron_sword", "bow", "arrow", "shield", "torch",
		"iron_helmet", "iron_chestplate", "iron_leggings", "iron_boots",
		"diamond_helmet", "diamond_chestplate", "diamond_leggings", "diamond_boots",
		"golden_apple", "rotten_flesh", "bone", "string", "enchanted_book",
	} {
		r.AddItem(id)
	}
	r.AddItem("iron_ingot", "ingotIron")
	r.AddItem("gold_ingot", "ingotGold")
	r.AddItem("diamond", "gemDiamond")

	r.AddBlock("air", nil)
	r.AddBlock("stone", nil, "stone")
	r.AddBlock("dirt", nil)
	r.AddBlock("grass", map[string]string{"snowy": "false"})
	r.AddBlock("sand", nil, "sand")
	r.AddBlock("log", map[string]string{"axis": "y", "variant": "oak"}, "logWood")
	r.AddBlock("chest", map[string]string{"facing": "north"})
	r.AddBlock("iron_ore", nil, "oreIron")
	r.AddBlock("gold_ore", nil, "oreGold")
	r.AddBlock("diamond_ore", nil, "oreDiamond")
	r.AddBlock("glowstone", nil)
	r.AddBlock("wool", map[string]string{"color": "white"}, "blockWool")

	for _, id := range []string{
		"speed", "slowness", "haste", "strength", "regeneration", "resistance",
		"fire_resistance", "invisibility", "night_vision", "poison", "wither",
		"weakness", "glowing", "levitation",
	} {
		r.AddPotion(id)
	}
	return r
}
