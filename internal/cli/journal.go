package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Generation string
	Rule       string
	Outcome    string
	Limit      int
	Summary    bool
}

// JournalSummary is the --summary output.
type JournalSummary struct {
	Generation *store.Generation `json:"generation,omitempty"`
	Counts     []store.RuleCount `json:"counts"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal [db]",
		Short: "Query the firing journal",
		Long: `List recorded rule firings in sequence order, or tally them per rule.

The database defaults to RULEKIT_JOURNAL.

Examples:
  rulekit journal ./journal.db
  rulekit journal ./journal.db --rule night-boost --limit 20
  rulekit journal ./journal.db --outcome panic
  rulekit journal ./journal.db --generation 0193... --summary`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config.Journal
			if len(args) == 1 {
				path = args[0]
			}
			return runJournal(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Generation, "generation", "", "only this generation")
	cmd.Flags().StringVar(&opts.Rule, "rule", "", "only this rule name")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "only this outcome (fired|panic|quota)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rows (0: all)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "tally firings per rule and outcome")

	return cmd
}

func runJournal(opts *JournalOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	ctx := commandContext(cmd)

	if path == "" {
		return commandError(formatter, ErrCodeInvalidFlag, "no journal given: pass a path or set RULEKIT_JOURNAL")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("journal not found: %s", path))
	}

	outcome := engine.Outcome(opts.Outcome)
	switch outcome {
	case "", engine.OutcomeFired, engine.OutcomePanic, engine.OutcomeQuota:
	default:
		return commandError(formatter, ErrCodeInvalidFlag,
			fmt.Sprintf("invalid outcome %q: must be fired, panic or quota", opts.Outcome))
	}

	st, err := store.Open(path)
	if err != nil {
		return commandError(formatter, ErrCodeJournal, fmt.Sprintf("failed to open journal: %v", err))
	}
	defer st.Close()

	if opts.Summary {
		summary := JournalSummary{}
		if opts.Generation != "" {
			gen, found, err := st.ReadGeneration(ctx, opts.Generation)
			if err != nil {
				return commandError(formatter, ErrCodeJournal, err.Error())
			}
			if !found {
				return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("generation not found: %s", opts.Generation))
			}
			summary.Generation = &gen
		}
		summary.Counts, err = st.Summary(ctx, opts.Generation)
		if err != nil {
			return commandError(formatter, ErrCodeJournal, err.Error())
		}
		return outputJournalSummary(formatter, summary)
	}

	firings, err := st.Firings(ctx, store.Filter{
		Generation: opts.Generation,
		Rule:       opts.Rule,
		Outcome:    outcome,
		Limit:      opts.Limit,
	})
	if err != nil {
		return commandError(formatter, ErrCodeJournal, err.Error())
	}
	return outputFirings(formatter, firings)
}

func outputFirings(formatter *OutputFormatter, firings []engine.Firing) error {
	if formatter.Format == "json" {
		return formatter.Success(firings)
	}
	if len(firings) == 0 {
		fmt.Fprintln(formatter.Writer, "No firings recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tGENERATION\tRULE\tEVENT\tOUTCOME\tDETAIL")
	for _, f := range firings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			f.Seq, shortGeneration(f.Generation), f.Rule, f.Event, f.Outcome, f.Detail)
	}
	return tw.Flush()
}

func outputJournalSummary(formatter *OutputFormatter, summary JournalSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	w := formatter.Writer
	if g := summary.Generation; g != nil {
		fmt.Fprintf(w, "Generation %s: %d rule(s)\n", g.ID, len(g.Rules))
		if len(g.Rules) > 0 {
			fmt.Fprintf(w, "  %s\n", strings.Join(g.Rules, ", "))
		}
		fmt.Fprintln(w)
	}
	if len(summary.Counts) == 0 {
		fmt.Fprintln(w, "No firings recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tOUTCOME\tCOUNT")
	for _, c := range summary.Counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Rule, c.Outcome, c.Count)
	}
	return tw.Flush()
}

// shortGeneration trims UUIDv7 generation ids for the table view.
func shortGeneration(id string) string {
	if len(id) > 13 {
		return id[:13]
	}
	return id
}
