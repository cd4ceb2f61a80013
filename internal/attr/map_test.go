package attr

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testKeys struct {
	schema  *Schema
	minTime Key[int]
	chance  Key[float64]
	seeSky  Key[bool]
	biome   Key[string]
	block   Key[string]
}

func newTestKeys() testKeys {
	s := NewSchema()
	return testKeys{
		schema:  s,
		minTime: Int(s, "mintime"),
		chance:  Float(s, "random"),
		seeSky:  Bool(s, "seesky"),
		biome:   String(s, "biome"),
		block:   JSON(s, "block"),
	}
}

func TestBuild_ScalarValues(t *testing.T) {
	k := newTestKeys()
	m, err := Build(k.schema, map[string]any{
		"mintime": 100,
		"random":  0.5,
		"seesky":  true,
		"biome":   "Plains",
	})
	require.NoError(t, err)

	v, err := Get(m, k.minTime)
	require.NoError(t, err)
	assert.Equal(t, 100, v)

	f, err := Get(m, k.chance)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f, 1e-9)

	b, err := Get(m, k.seeSky)
	require.NoError(t, err)
	assert.True(t, b)

	assert.Equal(t, []string{"Plains"}, List(m, k.biome))
	assert.Equal(t, []string{"biome", "mintime", "random", "seesky"}, m.Keys())
}

func TestBuild_AbsentKey(t *testing.T) {
	k := newTestKeys()
	m, err := Build(k.schema, map[string]any{"mintime": 1})
	require.NoError(t, err)

	assert.False(t, Has(m, k.biome))
	_, err = Get(m, k.biome)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKey))

	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "biome", missing.Key)

	list := List(m, k.biome)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestBuild_Lists(t *testing.T) {
	k := newTestKeys()
	m, err := Build(k.schema, map[string]any{
		"biome": []any{"Plains", "Desert"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Plains", "Desert"}, List(m, k.biome))
	first, err := Get(m, k.biome)
	require.NoError(t, err)
	assert.Equal(t, "Plains", first)
}

func TestBuild_EmptyListIsAbsent(t *testing.T) {
	k := newTestKeys()
	m, err := Build(k.schema, map[string]any{"biome": []any{}})
	require.NoError(t, err)
	assert.False(t, Has(m, k.biome))
}

func TestBuild_NumericCoercion(t *testing.T) {
	k := newTestKeys()

	tests := []struct {
		name string
		raw  any
		want int
	}{
		{"int", 7, 7},
		{"int64", int64(7), 7},
		{"integral float", 7.0, 7},
		{"json number", json.Number("7"), 7},
		{"uint8", uint8(7), 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Build(k.schema, map[string]any{"mintime": tc.raw})
			require.NoError(t, err)
			got, err := Get(m, k.minTime)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	m, err := Build(k.schema, map[string]any{"random": 1})
	require.NoError(t, err)
	f, err := Get(m, k.chance)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f, 1e-9)
}

func TestBuild_TypeMismatch(t *testing.T) {
	k := newTestKeys()

	tests := []struct {
		name string
		raw  map[string]any
		key  string
	}{
		{"string for int", map[string]any{"mintime": "noon"}, "mintime"},
		{"fraction for int", map[string]any{"mintime": 1.5}, "mintime"},
		{"int for bool", map[string]any{"seesky": 1}, "seesky"},
		{"int for string", map[string]any{"biome": 3}, "biome"},
		{"bad list element", map[string]any{"biome": []any{"Plains", 4}}, "biome"},
		{"null json", map[string]any{"block": nil}, "block"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Build(k.schema, tc.raw)
			require.Error(t, err)
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, ErrTypeMismatch))

			var te *TypeError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tc.key, te.Key)
		})
	}
}

func TestBuild_UnknownKey(t *testing.T) {
	k := newTestKeys()
	_, err := Build(k.schema, map[string]any{"mintim": 100})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownKey))
	assert.Contains(t, err.Error(), "mintim")
}

func TestBuild_JSONKeyEncodesStructures(t *testing.T) {
	k := newTestKeys()
	m, err := Build(k.schema, map[string]any{
		"block": []any{
			"minecraft:stone",
			map[string]any{"block": "minecraft:log", "properties": []any{map[string]any{"name": "axis", "value": "y"}}},
		},
	})
	require.NoError(t, err)

	got := List(m, k.block)
	require.Len(t, got, 2)
	assert.Equal(t, "minecraft:stone", got[0])
	assert.JSONEq(t, `{"block":"minecraft:log","properties":[{"name":"axis","value":"y"}]}`, got[1])
}

func TestSchema_DuplicateRegistrationPanics(t *testing.T) {
	s := NewSchema()
	Int(s, "mintime")
	assert.Panics(t, func() { Float(s, "mintime") })
}

func TestMap_MarshalJSONIsOrderIndependent(t *testing.T) {
	k := newTestKeys()
	a, err := Build(k.schema, map[string]any{"mintime": 5, "biome": []any{"Plains"}})
	require.NoError(t, err)
	b, err := Build(k.schema, map[string]any{"biome": "Plains", "mintime": 5.0})
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
	assert.JSONEq(t, `{"biome":["Plains"],"mintime":[5]}`, string(ja))
}

func TestGetOr(t *testing.T) {
	k := newTestKeys()
	m, err := Build(k.schema, map[string]any{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, GetOr(m, k.chance, 1.0), 1e-9)
	assert.Equal(t, 0, m.Len())
}
