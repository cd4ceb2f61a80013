package sandbox

import (
	"sync"

	"github.com/roach88/rulekit/internal/host"
)

// Compat installs whichever optional systems are non-nil.
type Compat struct {
	Acc    *Accessories
	Stage  *Stages
	Zone   *Zones
	Season *Seasons
	State  *States

	// BiomeNames overrides biome display names by biome ID.
	BiomeNames map[string]string
}

var _ host.Compat = (*Compat)(nil)

// FullCompat returns a Compat with every system installed and empty.
func FullCompat() *Compat {
	return &Compat{
		Acc:    NewAccessories(),
		Stage:  NewStages(),
		Zone:   &Zones{},
		Season: &Seasons{Current: host.Spring},
		State:  NewStates(),
	}
}

func (c *Compat) Accessories() (host.Accessories, bool) {
	if c == nil || c.Acc == nil {
		return nil, false
	}
	return c.Acc, true
}

func (c *Compat) Stages() (host.Stages, bool) {
	if c == nil || c.Stage == nil {
		return nil, false
	}
	return c.Stage, true
}

func (c *Compat) Zones() (host.Zones, bool) {
	if c == nil || c.Zone == nil {
		return nil, false
	}
	return c.Zone, true
}

func (c *Compat) Seasons() (host.Seasons, bool) {
	if c == nil || c.Season == nil {
		return nil, false
	}
	return c.Season, true
}

func (c *Compat) States() (host.States, bool) {
	if c == nil || c.State == nil {
		return nil, false
	}
	return c.State, true
}

func (c *Compat) BiomeName(b host.Biome) string {
	if c != nil {
		if name, ok := c.BiomeNames[b.ID]; ok {
			return name
		}
	}
	return b.Name
}

// Accessories keeps per-player accessory slots.
type Accessories struct {
	mu     sync.RWMutex
	slots  map[host.AccessorySlot][]int
	stacks map[string]map[int]host.ItemStack
}

// NewAccessories uses the classic seven-slot layout: amulet 0, rings 1-2,
// belt 3, head 4, body 5, charm 6; trinkets fit anywhere.
func NewAccessories() *Accessories {
	return &Accessories{
		slots: map[host.AccessorySlot][]int{
			host.AccessoryAmulet:  {0},
			host.AccessoryRing:    {1, 2},
			host.AccessoryBelt:    {3},
			host.AccessoryHead:    {4},
			host.AccessoryBody:    {5},
			host.AccessoryCharm:   {6},
			host.AccessoryTrinket: {0, 1, 2, 3, 4, 5, 6},
		},
		stacks: make(map[string]map[int]host.ItemStack),
	}
}

// Put places a stack in a player's accessory slot.
func (a *Accessories) Put(player string, slot int, stack host.ItemStack) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stacks[player] == nil {
		a.stacks[player] = make(map[int]host.ItemStack)
	}
	a.stacks[player][slot] = stack
}

func (a *Accessories) Slots(kind host.AccessorySlot) []int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.slots[kind]
}

func (a *Accessories) Stack(p host.Player, slot int) host.ItemStack {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stacks[p.Name()][slot]
}

// Stages tracks granted stages per player name.
type Stages struct {
	mu     sync.RWMutex
	stages map[string]map[string]bool
}

func NewStages() *Stages {
	return &Stages{stages: make(map[string]map[string]bool)}
}

// Grant gives a player a stage.
func (s *Stages) Grant(player, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stages[player] == nil {
		s.stages[player] = make(map[string]bool)
	}
	s.stages[player][stage] = true
}

func (s *Stages) HasStage(p host.Player, stage string) bool {
	if p == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stages[p.Name()][stage]
}

// Zones answers every position with the same fixed classification.
type Zones struct {
	City     bool
	Street   bool
	Sphere   bool
	Building bool
}

func (z *Zones) IsCity(host.Query, host.Event) bool     { return z.City }
func (z *Zones) IsStreet(host.Query, host.Event) bool   { return z.Street }
func (z *Zones) InSphere(host.Query, host.Event) bool   { return z.Sphere }
func (z *Zones) IsBuilding(host.Query, host.Event) bool { return z.Building }

// Seasons reports a fixed season.
type Seasons struct {
	Current host.Season
}

func (s *Seasons) Season(host.World) host.Season { return s.Current }

// States stores world and player state values. Writes made through a
// sandbox world or player are recorded in that world's log.
type States struct {
	mu     sync.RWMutex
	world  map[string]string
	player map[string]map[string]string
}

func NewStates() *States {
	return &States{
		world:  make(map[string]string),
		player: make(map[string]map[string]string),
	}
}

func (s *States) State(_ host.World, name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world[name]
}

func (s *States) PlayerState(p host.Player, name string) string {
	if p == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.player[p.Name()][name]
}

func (s *States) SetState(w host.World, name, value string) {
	s.mu.Lock()
	s.world[name] = value
	s.mu.Unlock()
	if sw, ok := w.(*World); ok {
		sw.log.add("world", "state", "%s=%s", name, value)
	}
}

func (s *States) SetPlayerState(p host.Player, name, value string) {
	if p == nil {
		return
	}
	s.mu.Lock()
	if s.player[p.Name()] == nil {
		s.player[p.Name()] = make(map[string]string)
	}
	s.player[p.Name()][name] = value
	s.mu.Unlock()
	if sp, ok := p.(*Player); ok {
		sp.world.log.add(sp.id, "pstate", "%s=%s", name, value)
	}
}
