package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/metrics"
	"github.com/roach88/rulekit/internal/store"
)

func rulesPath(t *testing.T, name string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("testdata", "rules", name))
	require.NoError(t, err)
	return abs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return s
}

func TestRun_NightBoost(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/night_boost.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, DefaultGeneration, result.Generation)
	assert.Empty(t, result.Diagnostics)
	assert.Len(t, result.Log, 8)
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/night_boost.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), s)
	require.NoError(t, err)
	second, err := Run(context.Background(), s)
	require.NoError(t, err)

	a, err := Snapshot(s.Name, first)
	require.NoError(t, err)
	b, err := Snapshot(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	s := mustParse(t, `
name: mismatch
description: d
rules: [`+rulesPath(t, "night.yaml")+`]
world: { time: 14000, difficulty: hard }
entities: [{ id: zombie, at: "0,64,0" }]
events:
  - kind: spawn
    entity: zombie
    expect:
      fired: [desert-husk]
      errors: 1
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "fired [night-boost], want [desert-husk]")
	assert.Contains(t, result.Errors[1], "0 errors, want 1")
}

func TestRun_NoCompatDropsChecks(t *testing.T) {
	s := mustParse(t, `
name: bare
description: d
rules: [`+rulesPath(t, "night.yaml")+`]
compat: none
entities: [{ id: zombie, at: "0,64,0" }]
players: [{ name: alex, at: "3,64,0" }]
events:
  - kind: spawn
    entity: zombie
    player: alex
    expect:
      fired: [quest-reward]
      mutations: ["alex give 1xminecraft:golden_apple"]
assertions:
  - { type: diagnostic, code: W201, rule: quest-reward }
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{
		"[W201] quest-reward/gamestage: stage system is not installed: gamestage is ignored",
		"[W201] quest-reward/setpstate: state system is not installed: setpstate is ignored",
	}, result.Diagnostics)
}

func TestRun_NoCompatRejectsCompatFixtures(t *testing.T) {
	s := mustParse(t, `
name: bare
description: d
rules: [`+rulesPath(t, "night.yaml")+`]
compat: none
players: [{ name: alex, at: "3,64,0", stages: [nether] }]
events: [{ kind: tick, player: alex }]
`)

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires compat: full")
}

func TestRun_RandomSourceForcesBranch(t *testing.T) {
	tests := []struct {
		name   string
		random string
		fired  string
	}{
		{name: "low draw passes", random: "[0.1]", fired: "[lucky-drop]"},
		{name: "high draw fails", random: "[0.9]", fired: "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, `
name: chance
description: d
rules: [`+rulesPath(t, "chance.yaml")+`]
random: `+tt.random+`
entities: [{ id: zombie, at: "0,64,0" }]
events:
  - kind: death
    entity: zombie
    expect: { fired: `+tt.fired+` }
`)
			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_SeededSourceIsRepeatable(t *testing.T) {
	yaml := `
name: seeded
description: d
rules: [` + rulesPath(t, "chance.yaml") + `]
seed: 42
entities: [{ id: zombie, at: "0,64,0" }]
events: [{kind: a, entity: zombie}, {kind: b, entity: zombie}, {kind: c, entity: zombie}, {kind: d, entity: zombie}]
`
	first, err := Run(context.Background(), mustParse(t, yaml))
	require.NoError(t, err)
	second, err := Run(context.Background(), mustParse(t, yaml))
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}

func TestRun_LoadErrorAborts(t *testing.T) {
	s := mustParse(t, `
name: missing
description: d
rules: [`+filepath.Join(t.TempDir(), "nope.yaml")+`]
events: [{ kind: tick }]
`)

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load rules")
}

func TestRun_FixtureErrors(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{name: "bad position", extra: `entities: [{ id: z, at: "0,64" }]`, wantErr: "want x,y,z"},
		{name: "bad difficulty", extra: `world: { difficulty: brutal }`, wantErr: `unknown difficulty "brutal"`},
		{name: "bad slot", extra: `entities: [{ id: z, at: "0,0,0", equipment: { tail: stick } }]`, wantErr: `unknown slot "tail"`},
		{name: "unknown item", extra: `entities: [{ id: z, at: "0,0,0", equipment: { mainhand: nope } }]`, wantErr: "slot mainhand"},
		{name: "bad season", extra: `world: { season: monsoon }`, wantErr: `unknown season "monsoon"`},
		{name: "bad zone", extra: `world: { zones: [village] }`, wantErr: `unknown zone "village"`},
		{name: "unknown block", extra: `world: { blocks: [{ at: "0,0,0", block: nope }] }`, wantErr: "block[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, `
name: fixture
description: d
rules: [`+rulesPath(t, "chance.yaml")+`]
events: [{ kind: tick }]
`+tt.extra)
			_, err := Run(context.Background(), s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_WorldFixtureFeedsConditions(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	writeFile(t, rules, `
- name: desert-city
  biome: Desert
  incity: true
  summer: true
  state: phase=siege
  block: sand
  helditem: diamond_sword
  ring: gold_ingot
  setstate: phase=over
`)

	s := mustParse(t, `
name: fixtures
description: d
rules: [`+rules+`]
world:
  biome: { id: desert, name: Desert, temp: warm, types: [SANDY] }
  season: summer
  zones: [city]
  states: { phase: siege }
  blocks: [{ at: "0,63,0", block: sand }]
entities: [{ id: husk, at: "0,64,0" }]
players:
  - name: alex
    at: "1,64,0"
    equipment: { mainhand: diamond_sword }
    accessories: { 1: gold_ingot }
events:
  - kind: spawn
    entity: husk
    player: alex
    expect:
      fired: [desert-city]
      mutations: ["world state phase=over"]
assertions:
  - { type: state, name: phase, value: over }
  - { type: no_diagnostics }
`)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Metrics(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/night_boost.yaml")
	require.NoError(t, err)
	m := metrics.New()

	_, err = Run(context.Background(), s, WithMetrics(m))
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RulesCompiledTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DispatchesTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RulesLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FiringsTotal.WithLabelValues("night-boost", "fired")))
}

func TestRun_SharedJournalContinuesSeq(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/night_boost.yaml")
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	for _, gen := range []string{"first", "second"} {
		result, err := Run(ctx, s, WithJournal(st), WithGenerator(engine.NewFixedGenerator(gen)))
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
		assert.Equal(t, gen, result.Generation)
	}

	last, err := st.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), last)

	second, err := st.Firings(ctx, store.Filter{Generation: "second"})
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, int64(3), second[0].Seq)

	_, found, err := st.ReadGeneration(ctx, "first")
	require.NoError(t, err)
	assert.True(t, found)
}
