package nbt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompound(t *testing.T) {
	c, err := ParseCompound(`{"foo":1,"name":"x","ratio":0.5,"flag":true,"items":[{"id":2}]}`)
	require.NoError(t, err)

	assert.Equal(t, Int(1), c["foo"])
	assert.Equal(t, String("x"), c["name"])
	assert.Equal(t, Double(0.5), c["ratio"])
	assert.Equal(t, Int(1), c["flag"])
	require.Len(t, c.Compounds("items"), 1)
	assert.Equal(t, int64(2), c.Compounds("items")[0].Int("id"))
}

func TestParseCompound_Errors(t *testing.T) {
	_, err := ParseCompound(`{"foo":`)
	require.Error(t, err)

	_, err = ParseCompound(`[1,2]`)
	require.ErrorIs(t, err, ErrNotCompound)

	_, err = ParseCompound(`{"foo":null}`)
	require.Error(t, err)
}

func TestCompoundInt_MissingReadsZero(t *testing.T) {
	var nilCompound Compound
	assert.Equal(t, int64(0), nilCompound.Int("x"))
	assert.Equal(t, int64(0), Compound{"x": String("a")}.Int("x"))
	assert.Equal(t, int64(3), Compound{"x": Double(3.7)}.Int("x"))
}

func TestCanonical_KeyOrderIndependent(t *testing.T) {
	a, err := ParseCompound(`{"b":1,"a":{"y":2,"x":"s"}}`)
	require.NoError(t, err)
	b, err := ParseCompound(`{"a":{"x":"s","y":2},"b":1}`)
	require.NoError(t, err)

	assert.True(t, Equal(a, b))
	assert.Equal(t, `{"a":{"x":"s","y":2},"b":1}`, string(Canonical(a)))
}

func TestCanonical_DistinguishesKinds(t *testing.T) {
	assert.False(t, Equal(Compound{"v": Int(1)}, Compound{"v": Double(1)}))
	assert.Equal(t, "1.0", string(Canonical(Double(1))))
	assert.False(t, Equal(nil, Compound{}))
	assert.True(t, Equal(nil, Compound(nil)))
}

func TestCanonical_NoHTMLEscape(t *testing.T) {
	assert.Equal(t, `"<a&b>"`, string(Canonical(String("<a&b>"))))
}

func TestClone_IsDeep(t *testing.T) {
	orig := Compound{"inner": Compound{"v": Int(1)}, "list": List{Int(1)}}
	cp := orig.Clone()
	cp["inner"].(Compound)["v"] = Int(2)
	cp["list"].(List)[0] = Int(9)

	assert.Equal(t, int64(1), orig["inner"].(Compound).Int("v"))
	assert.Equal(t, Int(1), orig["list"].(List)[0])
}

func TestMerge(t *testing.T) {
	dst := Compound{"a": Int(1), "nested": Compound{"x": Int(1)}}
	dst.Merge(Compound{"b": Int(2), "nested": Compound{"y": Int(2)}})

	assert.Equal(t, `{"a":1,"b":2,"nested":{"x":1,"y":2}}`, dst.String())
}
