package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rulekit/internal/config"
	"github.com/roach88/rulekit/internal/logging"
)

func defaultConfig() config.Config {
	return config.Config{LogLevel: "info", LogFormat: logging.FormatText}
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if args == nil {
		// cobra falls back to os.Args for nil.
		args = []string{}
	}
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(defaultConfig())
	require.NotNil(t, cmd)
	assert.Equal(t, "rulekit", cmd.Use)
	assert.Contains(t, cmd.Long, "spawn and event rules")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(defaultConfig())
	commands := []string{"compile", "validate", "run", "test", "journal"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cfg := defaultConfig()
	cfg.LogLevel = "warn"
	cfg.LogFormat = logging.FormatJSON
	cmd := NewRootCommand(cfg)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	// Config supplies the log defaults.
	assert.Equal(t, "warn", cmd.PersistentFlags().Lookup("log-level").DefValue)
	assert.Equal(t, "json", cmd.PersistentFlags().Lookup("log-format").DefValue)
}

func TestConfigDefaultsFlags(t *testing.T) {
	cfg := defaultConfig()
	cfg.Journal = "/var/lib/rulekit/journal.db"
	cfg.Strict = true
	cmd := NewRootCommand(cfg)

	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)
	assert.Equal(t, cfg.Journal, runCmd.Flags().Lookup("db").DefValue)

	validateCmd, _, err := cmd.Find([]string{"validate"})
	require.NoError(t, err)
	assert.Equal(t, "true", validateCmd.Flags().Lookup("strict").DefValue)
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand(defaultConfig())
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	compatFlag := compileCmd.Flags().Lookup("compat")
	require.NotNil(t, compatFlag)
	assert.Equal(t, "full", compatFlag.DefValue)
}

func TestRootInvalidFormat(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"format", []string{"--format", "xml", "validate", "testdata/rules"}, `invalid format "xml"`},
		{"log format", []string{"--log-format", "yaml", "validate", "testdata/rules"}, `invalid log format "yaml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewRootCommand(defaultConfig()), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestRootVerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, NewRootCommand(defaultConfig()),
		"--verbose", "--format", "json", "compile", "testdata/rules")
	require.NoError(t, err)

	assert.Contains(t, stderr, "rule compiled")
	assert.NotContains(t, stdout, "rule compiled")
}
