package compiler

import (
	"sync"

	"github.com/roach88/rulekit/internal/host"
)

// damageSources is built on first use and read-only afterwards.
var damageSources = sync.OnceValue(func() map[string]host.DamageSource {
	type props struct{ fire, bypass, magic, explosion bool }
	table := map[string]props{
		"inFire":        {fire: true},
		"lightningBolt": {},
		"onFire":        {fire: true, bypass: true},
		"lava":          {fire: true},
		"hotFloor":      {fire: true},
		"inWall":        {bypass: true},
		"cramming":      {bypass: true},
		"drown":         {bypass: true},
		"starve":        {bypass: true},
		"cactus":        {},
		"fall":          {bypass: true},
		"flyIntoWall":   {bypass: true},
		"outOfWorld":    {bypass: true},
		"generic":       {bypass: true},
		"magic":         {bypass: true, magic: true},
		"wither":        {bypass: true, magic: true},
		"anvil":         {},
		"fallingBlock":  {},
		"dragonBreath":  {magic: true},
		"fireworks":     {explosion: true},
	}
	out := make(map[string]host.DamageSource, len(table))
	for name, p := range table {
		out[name] = host.DamageSource{
			Name:        name,
			Fire:        p.fire,
			BypassArmor: p.bypass,
			Magic:       p.magic,
			Explosion:   p.explosion,
		}
	}
	return out
})

// DamageSource looks up a named damage source.
func DamageSource(name string) (host.DamageSource, bool) {
	src, ok := damageSources()[name]
	return src, ok
}
