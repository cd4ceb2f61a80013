package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/rulekit/internal/compiler"
	"github.com/roach88/rulekit/internal/engine"
	"github.com/roach88/rulekit/internal/host"
	"github.com/roach88/rulekit/internal/loader"
	"github.com/roach88/rulekit/internal/random"
	"github.com/roach88/rulekit/internal/sandbox"
)

// Values for --compat.
const (
	compatFull = "full"
	compatNone = "none"
)

// compatFor maps a --compat value to the optional systems compiled against.
func compatFor(name string) (host.Compat, error) {
	switch name {
	case compatFull:
		return sandbox.FullCompat(), nil
	case compatNone:
		return host.NoCompat{}, nil
	}
	return nil, fmt.Errorf("invalid compat %q: must be %q or %q", name, compatFull, compatNone)
}

// newCompiler builds a compiler against the sandbox registry. RULEKIT_SEED
// pins the random source used by random conditions.
func newCompiler(opts *RootOptions, compat host.Compat, m compiler.Metrics) *compiler.Compiler {
	src := random.Default()
	if opts.Config.HasSeed {
		src = random.NewLocked(uint64(opts.Config.Seed))
	}
	copts := []compiler.Option{
		compiler.WithLogger(opts.Logger()),
		compiler.WithRegistry(sandbox.Vanilla()),
		compiler.WithCompat(compat),
		compiler.WithRandom(src),
	}
	if m != nil {
		copts = append(copts, compiler.WithMetrics(m))
	}
	return compiler.New(copts...)
}

// compiledRules is one rule path after loading and compiling.
type compiledRules struct {
	Loaded      []loader.Rule
	Rules       []*engine.Rule
	Diagnostics []compiler.Diagnostic
	LoadErrors  []error
}

// compileRules loads every rule under path, collecting all load errors, and
// compiles whatever loaded.
func compileRules(path string, c *compiler.Compiler) *compiledRules {
	loaded, errs := loader.LoadPath(path, loader.LoadModeCollectAll)
	out := &compiledRules{Loaded: loaded, LoadErrors: errs}
	for _, lr := range loaded {
		rule, diags := c.Compile(lr.Name, lr.Attrs)
		out.Rules = append(out.Rules, rule)
		out.Diagnostics = append(out.Diagnostics, diags...)
	}
	return out
}

// pathFailure returns the load error when nothing under the path could be
// read at all (missing path, empty directory).
func (r *compiledRules) pathFailure() (*loader.LoadError, bool) {
	if len(r.Loaded) > 0 || len(r.LoadErrors) != 1 {
		return nil, false
	}
	var le *loader.LoadError
	if !errors.As(r.LoadErrors[0], &le) {
		return nil, false
	}
	if le.Code == loader.ErrCodeNotFound || le.Code == loader.ErrCodeNoFiles {
		return le, true
	}
	return nil, false
}

// LoadIssue is the serialisable form of a loader error.
type LoadIssue struct {
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`
	Index   int    `json:"index"`
	Message string `json:"message"`
}

func (i LoadIssue) String() string {
	switch {
	case i.File == "":
		return fmt.Sprintf("[%s] %s", i.Code, i.Message)
	case i.Index < 0:
		return fmt.Sprintf("[%s] %s: %s", i.Code, i.File, i.Message)
	}
	return fmt.Sprintf("[%s] %s[%d]: %s", i.Code, i.File, i.Index, i.Message)
}

func loadIssues(errs []error) []LoadIssue {
	issues := make([]LoadIssue, 0, len(errs))
	for _, err := range errs {
		var le *loader.LoadError
		if errors.As(err, &le) {
			issues = append(issues, LoadIssue{Code: le.Code, File: le.File, Index: le.Index, Message: le.Message})
			continue
		}
		issues = append(issues, LoadIssue{Code: ErrCodeGeneric, Index: -1, Message: err.Error()})
	}
	return issues
}
