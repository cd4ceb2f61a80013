package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulekit/internal/host"
)

func TestRegistry_NormalizesIDs(t *testing.T) {
	r := Vanilla()
	def, ok := r.Item("stick")
	require.True(t, ok)
	assert.Equal(t, "minecraft:stick", def.ID)

	block, ok := r.Block("minecraft:log")
	require.True(t, ok)
	assert.Equal(t, "y", block.Default.Props["axis"])

	_, ok = r.Item("log")
	assert.True(t, ok, "blocks double as items")
	assert.True(t, r.Potion("speed"))
	assert.False(t, r.Potion("flight"))
}

func TestQuery_NilFacades(t *testing.T) {
	q := Query{}
	assert.Nil(t, q.World("not an event"))
	assert.Nil(t, q.Player(&Event{}))
	assert.Nil(t, q.Entity(&Event{}))
	assert.Equal(t, host.Pos{}, q.Pos(nil))
}

func TestQuery_EntityFallsBackToPlayer(t *testing.T) {
	w := NewWorld()
	p := w.NewPlayer("steve", host.Pos{X: 1, Y: 64, Z: 1})
	ev := &Event{World: w, Player: p}

	q := Query{}
	require.NotNil(t, q.Entity(ev))
	assert.Equal(t, host.Pos{X: 1, Y: 64, Z: 1}, q.Pos(ev))
	assert.Equal(t, 64, q.Y(ev))
}

func TestQuery_ValidPosDropsThroughAir(t *testing.T) {
	w := NewWorld()
	at := host.Pos{Y: 65}
	ev := &Event{World: w, At: &at}

	assert.Equal(t, host.Pos{Y: 64}, Query{}.ValidPos(ev))

	w.Place(at, host.BlockState{ID: "minecraft:stone"})
	assert.Equal(t, at, Query{}.ValidPos(ev))
}

func TestWorld_ClosestPlayer(t *testing.T) {
	w := NewWorld()
	assert.Nil(t, w.ClosestPlayer(host.Pos{}, 50))

	w.NewPlayer("far", host.Pos{X: 40})
	w.NewPlayer("near", host.Pos{X: 5})

	p := w.ClosestPlayer(host.Pos{}, 50)
	require.NotNil(t, p)
	assert.Equal(t, "near", p.Name())
	assert.Nil(t, w.ClosestPlayer(host.Pos{X: -100}, 50))
}

func TestPlayer_GiveRespectsCapacity(t *testing.T) {
	w := NewWorld()
	p := w.NewPlayer("steve", host.Pos{})
	p.SetCapacity(1)

	apple := host.ItemStack{Item: "minecraft:apple", Count: 1}
	assert.True(t, p.Give(apple))
	assert.False(t, p.Give(apple))
	assert.Len(t, p.Inventory(), 1)
}

func TestLog_RecordsMutationsInOrder(t *testing.T) {
	w := NewWorld()
	zombie := w.NewEntity("zombie", host.Pos{})
	zombie.SetHealth(10)
	w.SetBlockState(host.Pos{X: 1}, host.BlockState{ID: "minecraft:log", Props: map[string]string{"variant": "oak", "axis": "x"}})
	zombie.Damage(host.DamageSource{Name: "fall"}, 2)

	assert.Equal(t, []string{
		"zombie health 10",
		"world setblock 1,0,0 minecraft:log[axis=x,variant=oak]",
		"zombie damage fall 2",
	}, w.Log().Lines())

	w.Log().Reset()
	assert.Empty(t, w.Log().Entries())
}

func TestCompat_PartialInstall(t *testing.T) {
	c := &Compat{Stage: NewStages()}
	_, ok := c.Stages()
	assert.True(t, ok)
	_, ok = c.Accessories()
	assert.False(t, ok)

	var nilCompat *Compat
	_, ok = nilCompat.Seasons()
	assert.False(t, ok)
}

func TestStates_LogWrites(t *testing.T) {
	w := NewWorld()
	p := w.NewPlayer("alex", host.Pos{})
	s := NewStates()

	s.SetState(w, "phase", "night")
	s.SetPlayerState(p, "quest", "done")

	assert.Equal(t, "night", s.State(w, "phase"))
	assert.Equal(t, "done", s.PlayerState(p, "quest"))
	assert.Equal(t, []string{"world state phase=night", "alex pstate quest=done"}, w.Log().Lines())
}

func TestCompat_BiomeName(t *testing.T) {
	b := host.Biome{ID: "minecraft:plains", Name: "Plains"}
	var none *Compat
	assert.Equal(t, "Plains", none.BiomeName(b))
	assert.Equal(t, "Plains", FullCompat().BiomeName(b))

	c := &Compat{BiomeNames: map[string]string{"minecraft:plains": "Grassland"}}
	assert.Equal(t, "Grassland", c.BiomeName(b))
	assert.Equal(t, "Desert", c.BiomeName(host.Biome{ID: "minecraft:desert", Name: "Desert"}))
}
