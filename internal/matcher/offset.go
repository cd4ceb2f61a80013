package matcher

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/rulekit/internal/host"
)

// PosFunc resolves the position a block check inspects.
type PosFunc func(ev host.Event, q host.Query) host.Pos

// ValidPos is the default PosFunc: the event's valid block position.
func ValidPos(ev host.Event, q host.Query) host.Pos { return q.ValidPos(ev) }

// ParseOffset compiles {"offset": {"x","y","z"}, "look": bool}.
//
// Without look the result is the valid position plus the offset. With look
// the player's line-of-sight target is used; when the probe misses, or there
// is no player, the player's (or else the event's) position is used instead.
func ParseOffset(raw string) (PosFunc, error) {
	s := strings.TrimSpace(raw)
	if !gjson.Valid(s) {
		return nil, malformed("invalid offset JSON %s", s)
	}
	obj := gjson.Parse(s)
	if !obj.IsObject() {
		return nil, malformed("offset must be an object")
	}

	var dx, dy, dz int
	off := obj.Get("offset")
	if off.Exists() {
		if !off.IsObject() {
			return nil, malformed("offset must be an object with x, y and z")
		}
		for _, axis := range []struct {
			name string
			dst  *int
		}{{"x", &dx}, {"y", &dy}, {"z", &dz}} {
			v := off.Get(axis.name)
			if !v.Exists() {
				continue
			}
			if v.Type != gjson.Number {
				return nil, malformed("offset.%s must be a number", axis.name)
			}
			*axis.dst = int(v.Int())
		}
	}

	look := obj.Get("look")
	if look.Exists() && !isBool(look) {
		return nil, malformed("look must be a boolean")
	}
	if !off.Exists() && !look.Exists() {
		return nil, malformed("offset needs offset or look")
	}

	if !look.Bool() {
		return func(ev host.Event, q host.Query) host.Pos {
			return q.ValidPos(ev).Add(dx, dy, dz)
		}, nil
	}
	return func(ev host.Event, q host.Query) host.Pos {
		p := q.Player(ev)
		if p == nil {
			return q.Pos(ev).Add(dx, dy, dz)
		}
		if w := q.World(ev); w != nil {
			if target, ok := w.LookTarget(p); ok {
				return target.Add(dx, dy, dz)
			}
		}
		return p.Pos().Add(dx, dy, dz)
	}, nil
}
