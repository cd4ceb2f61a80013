package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/harness"
	"github.com/roach88/rulekit/internal/metrics"
	"github.com/roach88/rulekit/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Seed     uint64
	Metrics  bool

	// Generator overrides the generation id source (for testing).
	// If nil, a journal run uses UUIDv7Generator.
	Generator engine.GenerationGenerator
}

// RunResult is the outcome of one scenario run.
type RunResult struct {
	Scenario   string               `json:"scenario"`
	Generation string               `json:"generation"`
	Pass       bool                 `json:"pass"`
	Journal    string               `json:"journal,omitempty"`
	Trace      []harness.TraceEvent `json:"trace"`
	Errors     []string             `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run one scenario and print its trace",
		Long: `Run a single scenario file and print what each event fired and changed.

With --db (or RULEKIT_JOURNAL) firings are appended to a SQLite journal
under a fresh UUIDv7 generation, continuing the journal's sequence numbers.
Inspect it afterwards with "rulekit journal".

Example:
  rulekit run ./scenarios/night_boost.yaml
  rulekit run --db ./journal.db ./scenarios/night_boost.yaml --seed 7`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarioFile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Config.Journal, "path to SQLite journal (empty: in-memory)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for random conditions (overrides the scenario and RULEKIT_SEED)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "write Prometheus metrics to stderr after the run")

	return cmd
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := opts.Logger()
	ctx := commandContext(cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return commandError(formatter, ErrCodeScenario, err.Error())
	}
	switch {
	case cmd.Flags().Changed("seed"):
		seed := opts.Seed
		scenario.Seed = &seed
		scenario.Random = nil
	case opts.Config.HasSeed && scenario.Seed == nil && len(scenario.Random) == 0:
		seed := uint64(opts.Config.Seed)
		scenario.Seed = &seed
	}

	m := metrics.New()
	hopts := []harness.Option{
		harness.WithLogger(logger),
		harness.WithMetrics(m),
	}

	if opts.Database != "" {
		logger.Info("opening journal", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return commandError(formatter, ErrCodeJournal, fmt.Sprintf("failed to open journal: %v", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		hopts = append(hopts, harness.WithJournal(st))

		gen := opts.Generator
		if gen == nil && scenario.Generation == "" {
			gen = engine.UUIDv7Generator{}
		}
		if gen != nil {
			hopts = append(hopts, harness.WithGenerator(gen))
		}
	}

	result, err := harness.Run(ctx, scenario, hopts...)
	if err != nil {
		return commandError(formatter, ErrCodeScenario, err.Error())
	}
	logger.Info("scenario finished", "scenario", scenario.Name, "generation", result.Generation, "pass", result.Pass)

	if opts.Metrics {
		if err := m.WriteText(cmd.ErrOrStderr()); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
	}

	out := RunResult{
		Scenario:   scenario.Name,
		Generation: result.Generation,
		Pass:       result.Pass,
		Journal:    opts.Database,
		Trace:      result.Trace,
		Errors:     result.Errors,
	}
	if err := outputRun(formatter, out); err != nil {
		return err
	}
	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
	}
	return nil
}

func outputRun(formatter *OutputFormatter, out RunResult) error {
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: out, TraceID: out.Generation}
		if !out.Pass {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeScenario, Message: fmt.Sprintf("scenario %s failed", out.Scenario)}
		}
		return formatter.Response(resp)
	}

	w := formatter.Writer
	mark := "✓"
	if !out.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s (generation %s)\n\n", mark, out.Scenario, out.Generation)

	for _, ev := range out.Trace {
		fired := "nothing"
		if len(ev.Fired) > 0 {
			fired = strings.Join(ev.Fired, ", ")
		}
		fmt.Fprintf(w, "[%d] %s: %s\n", ev.Seq, ev.Event, fired)
		for _, m := range ev.Mutations {
			fmt.Fprintf(w, "      %s\n", m)
		}
		for _, e := range ev.Errors {
			fmt.Fprintf(w, "      error: %s\n", e)
		}
	}

	if len(out.Errors) > 0 {
		fmt.Fprintln(w)
		for _, e := range out.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	if out.Journal != "" {
		fmt.Fprintf(w, "\nJournal: %s\n", out.Journal)
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command is run without Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
