package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ResolvesRulePaths(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/night_boost.yaml")
	require.NoError(t, err)

	assert.Equal(t, "night_boost", s.Name)
	require.Len(t, s.Rules, 1)
	assert.Equal(t, filepath.Join("testdata", "rules", "night.yaml"), s.Rules[0])
	assert.Equal(t, int64(14000), s.World.Time)
	require.Len(t, s.Events, 2)
	assert.Equal(t, []string{"night-boost", "quest-reward"}, s.Events[0].Expect.Fired)
	require.Len(t, s.Assertions, 7)
	require.NotNil(t, s.Assertions[0].Count)
	assert.Equal(t, 2, *s.Assertions[0].Count)
}

func TestLoadScenario_AbsolutePathsKept(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "rules.yaml")
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: abs
description: d
rules: [`+abs+`]
events: [{kind: tick}]
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, []string{abs}, s.Rules)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: d
rules: [r.yaml]
events: [{kind: tick}]
assertion: []
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nrules: [r]\nevents: [{kind: a}]",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nrules: [r]\nevents: [{kind: a}]",
			wantErr: "description is required",
		},
		{
			name:    "missing rules",
			yaml:    "name: n\ndescription: d\nevents: [{kind: a}]",
			wantErr: "rules list is required",
		},
		{
			name:    "missing events",
			yaml:    "name: n\ndescription: d\nrules: [r]",
			wantErr: "events list is required",
		},
		{
			name:    "bad compat",
			yaml:    "name: n\ndescription: d\nrules: [r]\ncompat: some\nevents: [{kind: a}]",
			wantErr: "compat must be full or none",
		},
		{
			name:    "event without kind",
			yaml:    "name: n\ndescription: d\nrules: [r]\nevents: [{entity: z}]",
			wantErr: "kind is required",
		},
		{
			name:    "unknown entity",
			yaml:    "name: n\ndescription: d\nrules: [r]\nevents: [{kind: a, entity: z}]",
			wantErr: `unknown entity "z"`,
		},
		{
			name: "duplicate actor",
			yaml: `name: n
description: d
rules: [r]
entities: [{id: alex, at: "0,0,0"}]
players: [{name: alex, at: "0,0,0"}]
events: [{kind: a}]`,
			wantErr: `duplicate name "alex"`,
		},
		{
			name:    "unknown assertion",
			yaml:    "name: n\ndescription: d\nrules: [r]\nevents: [{kind: a}]\nassertions: [{type: vibes}]",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "fired without rule",
			yaml:    "name: n\ndescription: d\nrules: [r]\nevents: [{kind: a}]\nassertions: [{type: fired}]",
			wantErr: "fired requires rule",
		},
		{
			name:    "log_count without count",
			yaml:    "name: n\ndescription: d\nrules: [r]\nevents: [{kind: a}]\nassertions: [{type: log_count, line: x}]",
			wantErr: "requires line and count",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
