package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rulekit/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Compat string
}

// CompiledRule summarises one compiled rule.
type CompiledRule struct {
	Name    string   `json:"name"`
	ID      string   `json:"id"`
	File    string   `json:"file"`
	Index   int      `json:"index"`
	Checks  []string `json:"checks"`
	Actions []string `json:"actions"`
	Explain string   `json:"explain"`
}

// CompilationResult holds the compiled rules and their diagnostics.
type CompilationResult struct {
	Rules       []CompiledRule        `json:"rules"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules-path>",
		Short: "Compile rule files and explain the result",
		Long: `Compile every rule file under a path and print each compiled rule: its
checks in evaluation order and its actions in execution order.

Clauses the compiler dropped are listed as diagnostics. Load errors exit 2;
error diagnostics exit 1 after the rules are printed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compilation result as JSON to this file")
	cmd.Flags().StringVar(&opts.Compat, "compat", compatFull, "optional systems to compile against (full|none)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
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
	if len(compiled.LoadErrors) > 0 {
		return outputCompileErrors(formatter, loadIssues(compiled.LoadErrors))
	}

	result := &CompilationResult{Diagnostics: compiled.Diagnostics}
	for i, rule := range compiled.Rules {
		lr := compiled.Loaded[i]
		formatter.VerboseLog("Compiled %s from %s[%d]", rule.Name, lr.File, lr.Index)
		result.Rules = append(result.Rules, CompiledRule{
			Name:    rule.Name,
			ID:      rule.ID,
			File:    lr.File,
			Index:   lr.Index,
			Checks:  rule.Checks(),
			Actions: rule.Actions(),
			Explain: rule.Explain(),
		})
	}

	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if err := outputCompileSuccess(formatter, result, opts.Output); err != nil {
		return err
	}
	if compiler.HasErrors(result.Diagnostics) {
		return NewExitError(ExitFailure, "compiled with errors")
	}
	return nil
}

// outputCompileSuccess prints every compiled rule and its diagnostics.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d rule(s), %d diagnostic(s)\n\n",
		len(result.Rules), len(result.Diagnostics))

	for _, rule := range result.Rules {
		fmt.Fprintln(formatter.Writer, rule.Explain)
	}

	if len(result.Diagnostics) > 0 {
		fmt.Fprintln(formatter.Writer, "Diagnostics:")
		for _, d := range result.Diagnostics {
			fmt.Fprintf(formatter.Writer, "  %s %s\n", d.Severity, d)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote compilation result to %s\n", outputFile)
	}
	return nil
}

// outputCompileErrors reports load failures. Nothing is compiled when any
// file fails to load, so these are command errors (exit 2).
func outputCompileErrors(formatter *OutputFormatter, issues []LoadIssue) error {
	exitErr := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(issues)))

	if formatter.Format == "json" {
		if err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   issues,
			Error:  &CLIError{Code: issues[0].Code, Message: issues[0].Message},
		}); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		fmt.Fprintf(formatter.Writer, "  %s\n", issue)
	}
	return exitErr
}

func writeResultToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
