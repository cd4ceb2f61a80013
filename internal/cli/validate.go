package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rulekit/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool
	Compat string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                  `json:"valid"`
	Rules       int                   `json:"rules"`
	Errors      []LoadIssue           `json:"errors,omitempty"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <rules-path>",
		Short: "Check rule files without running them",
		Long: `Load and compile every rule file under a path and report problems.

Load errors (bad syntax, unknown keys, mistyped values, duplicate names) and
error diagnostics fail validation. Warning diagnostics, such as a clause that
needs an optional system, fail only with --strict.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", rootOpts.Config.Strict, "treat warnings as failures")
	cmd.Flags().StringVar(&opts.Compat, "compat", compatFull, "optional systems to compile against (full|none)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	compat, err := compatFor(opts.Compat)
	if err != nil {
		return commandError(formatter, ErrCodeInvalidFlag, err.Error())
	}

	compiled := compileRules(path, newCompiler(opts.RootOptions, compat, nil))
	if le, ok := compiled.pathFailure(); ok {
		return commandError(formatter, le.Code, le.Message)
	}
	formatter.VerboseLog("Loaded %d rule(s) from %s", len(compiled.Loaded), path)

	result := ValidationResult{
		Rules:       len(compiled.Loaded),
		Errors:      loadIssues(compiled.LoadErrors),
		Diagnostics: compiled.Diagnostics,
	}
	failures := len(result.Errors)
	for _, d := range result.Diagnostics {
		if d.Severity == compiler.SeverityError || opts.Strict {
			failures++
		}
	}
	result.Valid = failures == 0

	if result.Valid {
		return outputValidateSuccess(formatter, result)
	}
	return outputValidationErrors(formatter, result, failures)
}

// outputValidateSuccess reports a passing run. Warnings are still listed.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d rule(s) valid\n", result.Rules)
	if len(result.Diagnostics) > 0 {
		fmt.Fprintln(formatter.Writer)
		for _, d := range result.Diagnostics {
			fmt.Fprintf(formatter.Writer, "  warning %s\n", d)
		}
	}
	return nil
}

// outputValidationErrors reports a failing run. Validation failures exit 1.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult, failures int) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", failures))

	if formatter.Format == "json" {
		code, message := firstProblem(result)
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: code, Message: message},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", issue)
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintf(formatter.Writer, "  %s %s\n", d.Severity, d)
	}
	return exitErr
}

func firstProblem(result ValidationResult) (code, message string) {
	if len(result.Errors) > 0 {
		return result.Errors[0].Code, result.Errors[0].Message
	}
	for _, d := range result.Diagnostics {
		if d.Severity == compiler.SeverityError {
			return d.Code, d.String()
		}
	}
	if len(result.Diagnostics) > 0 {
		return result.Diagnostics[0].Code, result.Diagnostics[0].String()
	}
	return ErrCodeGeneric, "validation failed"
}
