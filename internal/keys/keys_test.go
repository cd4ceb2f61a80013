package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulekit/internal/attr"
)

func TestSchema_KnowsConditionAndActionKeys(t *testing.T) {
	for _, name := range []string{"random", "mintime", "block", "blockoffset", "helditem", "charm", "sethelditem", "armorboots", "setpstate"} {
		_, ok := Schema.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestSchema_KindsMatchUsage(t *testing.T) {
	tests := []struct {
		key  attr.AnyKey
		kind attr.Kind
	}{
		{Random, attr.KindFloat},
		{Dimension, attr.KindInt},
		{SeeSky, attr.KindBool},
		{Weather, attr.KindString},
		{Block, attr.KindJSON},
		{Give, attr.KindJSON},
		{Fire, attr.KindInt},
	}
	for _, tc := range tests {
		t.Run(tc.key.Name(), func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.key.Kind())
		})
	}
}

func TestBuild_RuleWithStructuredItem(t *testing.T) {
	m, err := attr.Build(Schema, map[string]any{
		"mintime":  1000,
		"helditem": []any{"stick", map[string]any{"item": "minecraft:diamond_sword", "damage": "<10"}},
		"give":     "0.5=minecraft:apple",
	})
	require.NoError(t, err)

	assert.Len(t, attr.List(m, HeldItem), 2)
	assert.Equal(t, []string{"0.5=minecraft:apple"}, attr.List(m, Give))
}
