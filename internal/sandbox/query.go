package sandbox

import "github.com/roach88/rulekit/internal/host"

// Event is the sandbox trigger: the world it happens in, the acting entity
// and/or player, and an optional explicit position.
type Event struct {
	Kind   string
	World  *World
	Entity *Entity
	Player *Player
	At     *host.Pos
}

// Label names the event in journals.
func (e *Event) Label() string { return e.Kind }

// Query reads *Event values. Anything else yields nil facades.
type Query struct{}

var _ host.Query = Query{}

func asEvent(ev host.Event) *Event {
	e, _ := ev.(*Event)
	return e
}

func (Query) World(ev host.Event) host.World {
	if e := asEvent(ev); e != nil && e.World != nil {
		return e.World
	}
	return nil
}

// Entity returns the acting entity, falling back to the player.
func (Query) Entity(ev host.Event) host.Entity {
	e := asEvent(ev)
	switch {
	case e == nil:
		return nil
	case e.Entity != nil:
		return e.Entity
	case e.Player != nil:
		return e.Player
	}
	return nil
}

func (Query) Player(ev host.Event) host.Player {
	if e := asEvent(ev); e != nil && e.Player != nil {
		return e.Player
	}
	return nil
}

func (Query) Pos(ev host.Event) host.Pos {
	e := asEvent(ev)
	switch {
	case e == nil:
		return host.Pos{}
	case e.At != nil:
		return *e.At
	case e.Entity != nil:
		return e.Entity.Pos()
	case e.Player != nil:
		return e.Player.Pos()
	}
	return host.Pos{}
}

// ValidPos is Pos, moved one block down when Pos is air (an entity standing
// on the ground occupies the air block above it).
func (q Query) ValidPos(ev host.Event) host.Pos {
	pos := q.Pos(ev)
	e := asEvent(ev)
	if e == nil || e.World == nil {
		return pos
	}
	if e.World.BlockState(pos).ID == Air.ID {
		return pos.Add(0, -1, 0)
	}
	return pos
}

func (q Query) Y(ev host.Event) int { return q.Pos(ev).Y }
