// Package loader reads rule files into named attribute maps.
//
// A rule file is YAML, JSON or CUE. YAML and JSON files hold either a list
// of rule objects or an object with a "rules" list; CUE files define a
// top-level "rules" list. Every rule object is a flat map of condition and
// action keys plus the optional meta fields "name" and "id", which are
// stripped before the attributes are built.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rulekit/internal/attr"
	"github.com/roach88/rulekit/internal/keys"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Format is a rule file encoding.
type Format int

const (
	FormatYAML Format = iota + 1
	FormatJSON
	FormatCUE
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatCUE:
		return "cue"
	}
	return "unknown"
}

// FormatFor picks a format from a file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".cue":
		return FormatCUE, true
	}
	return 0, false
}

// Rule is one rule definition as read from a file.
type Rule struct {
	Name  string
	File  string
	Index int
	Attrs *attr.Map
}

// Error codes.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeReadFailed = "E002" // File could not be read
	ErrCodeNoFiles    = "E003" // No rule files found
	ErrCodeParse      = "E004" // YAML/JSON/CUE syntax error
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeBuild      = "E006" // CUE evaluation failed

	ErrCodeUnknownKey   = "E101" // Attribute name not in the key catalog
	ErrCodeTypeMismatch = "E102" // Attribute value does not fit its key
	ErrCodeShape        = "E103" // Document or rule has the wrong structure
	ErrCodeDuplicate    = "E104" // Two rules share a name
)

// LoadError is a fatal problem with one file or one rule. Index is -1 for
// file-level errors.
type LoadError struct {
	Code    string
	File    string
	Index   int
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	switch {
	case e.File == "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Index < 0:
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s[%d]: %s: %s", e.File, e.Index, e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

func fileError(code, file string, err error) *LoadError {
	return &LoadError{Code: code, File: file, Index: -1, Message: err.Error(), Err: err}
}

// LoadPath loads a single file, or every rule file below a directory in
// lexical path order.
func LoadPath(path string, mode LoadMode) ([]Rule, []error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Index: -1, Message: fmt.Sprintf("path not found: %s", path), Err: err}}
	}
	if err != nil {
		return nil, []error{fileError(ErrCodeReadFailed, path, err)}
	}
	if !info.IsDir() {
		return LoadFile(path, mode)
	}

	files, err := FindRuleFiles(path)
	if err != nil {
		return nil, []error{fileError(ErrCodeReadFailed, path, err)}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Index: -1, Message: fmt.Sprintf("no rule files found in %s", path)}}
	}

	var (
		rules []Rule
		errs  []error
	)
	for _, f := range files {
		got, ferrs := loadFile(f, mode)
		rules = append(rules, got...)
		errs = append(errs, ferrs...)
		if len(errs) > 0 && mode == LoadModeFailFast {
			return rules, errs
		}
	}
	return rules, append(errs, duplicates(rules, mode)...)
}

// FindRuleFiles walks dir and returns every file with a known extension,
// sorted.
func FindRuleFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := FormatFor(path); ok {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// LoadFile reads and parses one rule file.
func LoadFile(path string, mode LoadMode) ([]Rule, []error) {
	rules, errs := loadFile(path, mode)
	if len(errs) > 0 && mode == LoadModeFailFast {
		return rules, errs
	}
	return rules, append(errs, duplicates(rules, mode)...)
}

func loadFile(path string, mode LoadMode) ([]Rule, []error) {
	format, ok := FormatFor(path)
	if !ok {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, File: path, Index: -1, Message: "unsupported file extension"}}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{fileError(ErrCodeReadFailed, path, err)}
	}
	return parse(path, data, format, mode)
}

// Parse decodes rules from data. file is used for default rule names and
// error messages only.
func Parse(file string, data []byte, format Format, mode LoadMode) ([]Rule, []error) {
	rules, errs := parse(file, data, format, mode)
	if len(errs) > 0 && mode == LoadModeFailFast {
		return rules, errs
	}
	return rules, append(errs, duplicates(rules, mode)...)
}

func parse(file string, data []byte, format Format, mode LoadMode) ([]Rule, []error) {
	docs, err := decode(file, data, format)
	if err != nil {
		return nil, []error{err}
	}

	var (
		rules []Rule
		errs  []error
	)
	for i, doc := range docs {
		r, err := buildRule(file, i, doc)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return rules, errs
			}
			continue
		}
		rules = append(rules, r)
	}
	return rules, errs
}

// decode returns the raw rule objects of a document.
func decode(file string, data []byte, format Format) ([]any, error) {
	var doc any
	switch format {
	case FormatYAML, FormatJSON:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fileError(ErrCodeParse, file, err)
		}
	case FormatCUE:
		v, err := decodeCUE(file, data)
		if err != nil {
			return nil, err
		}
		doc = v
	default:
		return nil, &LoadError{Code: ErrCodeGeneric, File: file, Index: -1, Message: "unknown format " + format.String()}
	}

	switch d := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		return d, nil
	case map[string]any:
		list, ok := d["rules"]
		if !ok {
			return nil, &LoadError{Code: ErrCodeShape, File: file, Index: -1, Message: `document has no "rules" list`}
		}
		items, ok := list.([]any)
		if !ok {
			return nil, &LoadError{Code: ErrCodeShape, File: file, Index: -1, Message: `"rules" must be a list`}
		}
		return items, nil
	}
	return nil, &LoadError{Code: ErrCodeShape, File: file, Index: -1, Message: fmt.Sprintf("document must be a list or an object, got %T", doc)}
}

// decodeCUE evaluates a CUE file and re-reads it as JSON so numbers arrive as
// json.Number, which the attribute store coerces to either int or float.
func decodeCUE(file string, data []byte) (any, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(file))
	if err := v.Err(); err != nil {
		return nil, fileError(ErrCodeParse, file, err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fileError(ErrCodeBuild, file, err)
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, fileError(ErrCodeBuild, file, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fileError(ErrCodeBuild, file, err)
	}
	return doc, nil
}

func buildRule(file string, index int, doc any) (Rule, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return Rule{}, &LoadError{Code: ErrCodeShape, File: file, Index: index, Message: fmt.Sprintf("rule must be an object, got %T", doc)}
	}

	name := defaultName(file, index)
	raw := make(map[string]any, len(obj))
	for k, v := range obj {
		switch k {
		case "name", "id":
			s, isString := v.(string)
			if !isString || strings.TrimSpace(s) == "" {
				return Rule{}, &LoadError{Code: ErrCodeShape, File: file, Index: index, Message: k + " must be a non-empty string"}
			}
			if k == "name" || obj["name"] == nil {
				name = strings.TrimSpace(s)
			}
		default:
			raw[k] = v
		}
	}

	m, err := attr.Build(keys.Schema, raw)
	if err != nil {
		return Rule{}, &LoadError{Code: codeForBuild(err), File: file, Index: index, Message: err.Error(), Err: err}
	}
	return Rule{Name: name, File: file, Index: index, Attrs: m}, nil
}

func codeForBuild(err error) string {
	switch {
	case errors.Is(err, attr.ErrUnknownKey):
		return ErrCodeUnknownKey
	case errors.Is(err, attr.ErrTypeMismatch):
		return ErrCodeTypeMismatch
	}
	return ErrCodeGeneric
}

// defaultName names an anonymous rule after its file and position.
func defaultName(file string, index int) string {
	base := filepath.Base(file)
	return fmt.Sprintf("%s#%d", strings.TrimSuffix(base, filepath.Ext(base)), index)
}

// duplicates reports every rule whose name was already used. Fail-fast mode
// reports only the first.
func duplicates(rules []Rule, mode LoadMode) []error {
	seen := make(map[string]Rule, len(rules))
	var errs []error
	for _, r := range rules {
		if prev, ok := seen[r.Name]; ok {
			errs = append(errs, &LoadError{
				Code:    ErrCodeDuplicate,
				File:    r.File,
				Index:   r.Index,
				Message: fmt.Sprintf("rule %q already defined at %s[%d]", r.Name, prev.File, prev.Index),
			})
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}
		seen[r.Name] = r
	}
	return errs
}
