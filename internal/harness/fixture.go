package harness

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/matcher"
	"github.com/roach88/rulekit/internal/nbt"
	"github.com/roach88/rulekit/internal/sandbox"
)

// fixture is a scenario's sandbox, built once before the first event.
type fixture struct {
	world    *sandbox.World
	compat   host.Compat
	full     *sandbox.Compat
	entities map[string]*sandbox.Entity
	players  map[string]*sandbox.Player
}

var errNoCompat = errors.New("requires compat: full")

func buildFixture(s *Scenario, reg host.Registry) (*fixture, error) {
	f := &fixture{
		world:    sandbox.NewWorld(),
		compat:   host.NoCompat{},
		entities: make(map[string]*sandbox.Entity),
		players:  make(map[string]*sandbox.Player),
	}
	if s.Compat != "none" {
		f.full = sandbox.FullCompat()
		f.compat = f.full
	}

	if err := f.applyWorld(s.World, reg); err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}
	for _, spec := range s.Entities {
		if err := f.addEntity(spec, reg); err != nil {
			return nil, fmt.Errorf("entity %s: %w", spec.ID, err)
		}
	}
	for _, spec := range s.Players {
		if err := f.addPlayer(spec, reg); err != nil {
			return nil, fmt.Errorf("player %s: %w", spec.Name, err)
		}
	}

	// Setup goes through the logging setters; only rule effects belong in
	// the log.
	f.world.Log().Reset()
	return f, nil
}

func (f *fixture) applyWorld(spec WorldSpec, reg host.Registry) error {
	w := f.world
	w.TimeOfDay = spec.Time
	w.Dim = spec.Dimension
	w.Rain = spec.Raining
	w.Thunder = spec.Thundering
	w.LocalDifficulty = spec.LocalDifficulty
	w.Structures = spec.Structures

	if spec.Difficulty != "" {
		d, ok := host.ParseDifficulty(spec.Difficulty)
		if !ok {
			return fmt.Errorf("unknown difficulty %q", spec.Difficulty)
		}
		w.Diff = d
	}
	if spec.Light != nil {
		w.LightLevel = *spec.Light
	}
	if spec.Sky != nil {
		w.Sky = *spec.Sky
	}
	if spec.Spawn != "" {
		pos, err := parsePos(spec.Spawn)
		if err != nil {
			return fmt.Errorf("spawn: %w", err)
		}
		w.SpawnPoint = pos
	}
	if spec.LookAt != "" {
		pos, err := parsePos(spec.LookAt)
		if err != nil {
			return fmt.Errorf("look_at: %w", err)
		}
		w.LookAt = &pos
	}
	if spec.Biome != nil {
		biome := host.Biome{
			ID:    host.Normalize(spec.Biome.ID),
			Name:  spec.Biome.Name,
			Temp:  host.Medium,
			Types: spec.Biome.Types,
		}
		if spec.Biome.Temp != "" {
			t, ok := host.ParseTempCategory(spec.Biome.Temp)
			if !ok {
				return fmt.Errorf("unknown temperature %q", spec.Biome.Temp)
			}
			biome.Temp = t
		}
		w.BiomeInfo = biome
	}

	if spec.Season != "" {
		if f.full == nil {
			return fmt.Errorf("season %w", errNoCompat)
		}
		season, ok := parseSeason(spec.Season)
		if !ok {
			return fmt.Errorf("unknown season %q", spec.Season)
		}
		f.full.Season.Current = season
	}
	if len(spec.Zones) > 0 {
		if f.full == nil {
			return fmt.Errorf("zones %w", errNoCompat)
		}
		for _, z := range spec.Zones {
			switch strings.ToLower(z) {
			case "city":
				f.full.Zone.City = true
			case "street":
				f.full.Zone.Street = true
			case "sphere":
				f.full.Zone.Sphere = true
			case "building":
				f.full.Zone.Building = true
			default:
				return fmt.Errorf("unknown zone %q", z)
			}
		}
	}
	if len(spec.States) > 0 {
		if f.full == nil {
			return fmt.Errorf("states %w", errNoCompat)
		}
		for name, value := range spec.States {
			f.full.State.SetState(w, name, value)
		}
	}

	for i, b := range spec.Blocks {
		if err := f.placeBlock(b, reg); err != nil {
			return fmt.Errorf("block[%d]: %w", i, err)
		}
	}
	return nil
}

func (f *fixture) placeBlock(spec BlockSpec, reg host.Registry) error {
	pos, err := parsePos(spec.At)
	if err != nil {
		return err
	}
	state, err := matcher.ParseBlockState(reg, spec.Block)
	if err != nil {
		return err
	}
	f.world.Place(pos, state)
	if spec.Energy != nil {
		f.world.SetEnergy(pos, *spec.Energy)
	}
	if len(spec.Inventory) > 0 {
		stacks, err := itemStacks(reg, spec.Inventory)
		if err != nil {
			return err
		}
		f.world.SetInventory(pos, stacks...)
	}
	return nil
}

func (f *fixture) addEntity(spec EntitySpec, reg host.Registry) error {
	pos, err := parsePos(spec.At)
	if err != nil {
		return err
	}
	e := f.world.NewEntity(spec.ID, pos)
	if spec.MaxHealth != nil {
		e.SetAttribute(host.MaxHealth, *spec.MaxHealth)
	}
	if spec.Health != nil {
		e.SetHealth(*spec.Health)
	}
	if err := equip(e, spec.Equipment, reg); err != nil {
		return err
	}
	if spec.NBT != "" {
		tag, err := nbt.ParseCompound(spec.NBT)
		if err != nil {
			return fmt.Errorf("nbt: %w", err)
		}
		e.ApplyNBT(tag)
	}
	f.entities[spec.ID] = e
	return nil
}

func (f *fixture) addPlayer(spec PlayerSpec, reg host.Registry) error {
	pos, err := parsePos(spec.At)
	if err != nil {
		return err
	}
	p := f.world.NewPlayer(spec.Name, pos)
	if spec.Capacity != nil {
		p.SetCapacity(*spec.Capacity)
	}
	if err := equip(p.Entity, spec.Equipment, reg); err != nil {
		return err
	}

	if len(spec.Stages)+len(spec.States)+len(spec.Accessories) > 0 && f.full == nil {
		return fmt.Errorf("stages, states and accessories %w", errNoCompat)
	}
	for _, stage := range spec.Stages {
		f.full.Stage.Grant(spec.Name, stage)
	}
	for name, value := range spec.States {
		f.full.State.SetPlayerState(p, name, value)
	}
	for slot, raw := range spec.Accessories {
		stack, err := itemStack(reg, raw)
		if err != nil {
			return fmt.Errorf("accessory %d: %w", slot, err)
		}
		f.full.Acc.Put(spec.Name, slot, stack)
	}

	f.players[spec.Name] = p
	return nil
}

// event builds the sandbox event for one step. Names were checked when the
// scenario was validated.
func (f *fixture) event(step EventStep) (*sandbox.Event, error) {
	ev := &sandbox.Event{Kind: step.Kind, World: f.world}
	if step.Entity != "" {
		if e, ok := f.entities[step.Entity]; ok {
			ev.Entity = e
		} else if p, ok := f.players[step.Entity]; ok {
			ev.Entity = p.Entity
		}
	}
	if step.Player != "" {
		ev.Player = f.players[step.Player]
		if ev.Player == nil {
			return nil, fmt.Errorf("%q is not a player", step.Player)
		}
	}
	if step.At != "" {
		pos, err := parsePos(step.At)
		if err != nil {
			return nil, err
		}
		ev.At = &pos
	}
	return ev, nil
}

func equip(e *sandbox.Entity, slots map[string]string, reg host.Registry) error {
	for name, raw := range slots {
		slot, ok := parseSlot(name)
		if !ok {
			return fmt.Errorf("unknown slot %q", name)
		}
		stack, err := itemStack(reg, raw)
		if err != nil {
			return fmt.Errorf("slot %s: %w", name, err)
		}
		e.Wear(slot, stack)
	}
	return nil
}

// itemStack reads a fixture stack with the same syntax rules use for give.
func itemStack(reg host.Registry, raw string) (host.ItemStack, error) {
	entries, errs := matcher.ParseWeightedItems(reg, []string{raw})
	if len(errs) > 0 {
		return host.ItemStack{}, errs[0]
	}
	return entries[0].Value, nil
}

func itemStacks(reg host.Registry, raws []string) ([]host.ItemStack, error) {
	stacks := make([]host.ItemStack, 0, len(raws))
	for _, raw := range raws {
		s, err := itemStack(reg, raw)
		if err != nil {
			return nil, err
		}
		stacks = append(stacks, s)
	}
	return stacks, nil
}

// parsePos reads "x,y,z".
func parsePos(s string) (host.Pos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return host.Pos{}, fmt.Errorf("position %q: want x,y,z", s)
	}
	var xyz [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return host.Pos{}, fmt.Errorf("position %q: %w", s, err)
		}
		xyz[i] = n
	}
	return host.Pos{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func parseSlot(name string) (host.Slot, bool) {
	name = strings.ToLower(name)
	for s := host.MainHand; s <= host.Feet; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

var seasons = map[string]host.Season{
	"spring": host.Spring,
	"summer": host.Summer,
	"autumn": host.Autumn,
	"fall":   host.Autumn,
	"winter": host.Winter,
}

func parseSeason(name string) (host.Season, bool) {
	s, ok := seasons[strings.ToLower(name)]
	return s, ok
}
