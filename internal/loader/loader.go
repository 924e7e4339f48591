package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/storygen/internal/compiler"
	"github.com/roach88/storygen/internal/grammar"
	"github.com/roach88/storygen/internal/ir"
)

// Load reads a grammar from a file or a directory.
// Files are dispatched by extension; directories are scanned one level deep.
func Load(path string) (*ir.GrammarSpec, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "grammar path not found", Path: path, Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing grammar path: %v", err), Path: path, Err: err}
	}

	if info.IsDir() {
		return LoadDir(path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		return loadCUE(filepath.Dir(path), []string{filepath.Base(path)}, path)
	case ".yaml", ".yml":
		return LoadYAMLFile(path)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported grammar file extension %q", ext), Path: path}
	}
}

// LoadDir loads every grammar file in dir. All .cue files form a single CUE
// instance; YAML files are parsed individually in name order.
func LoadDir(dir string) (*ir.GrammarSpec, error) {
	cueFiles, yamlFiles, err := FindGrammarFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Path: dir, Err: err}
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no grammar files found", Path: dir}
	}

	var parts []*ir.GrammarSpec
	if len(cueFiles) > 0 {
		spec, err := loadCUE(dir, []string{"."}, dir)
		if err != nil {
			return nil, err
		}
		parts = append(parts, spec)
	}
	for _, f := range yamlFiles {
		spec, err := LoadYAMLFile(f)
		if err != nil {
			return nil, err
		}
		parts = append(parts, spec)
	}

	merged, err := Merge(parts...)
	if err != nil {
		return nil, err
	}
	merged.Source = dir
	return merged, nil
}

// FindGrammarFiles lists the .cue and YAML files directly inside dir.
func FindGrammarFiles(dir string) (cueFiles, yamlFiles []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	return cueFiles, yamlFiles, nil
}

// Merge combines grammar parts in order. Rules are concatenated, so a rule
// defined in several parts accumulates alternatives. Title and entry come
// from whichever part sets them; two parts setting different values is an
// error.
func Merge(parts ...*ir.GrammarSpec) (*ir.GrammarSpec, error) {
	out := &ir.GrammarSpec{}
	var titleFrom, entryFrom string
	for _, p := range parts {
		if p == nil {
			continue
		}
		if p.Title != "" {
			if out.Title != "" && out.Title != p.Title {
				return nil, &LoadError{
					Code:    ErrCodeHeaderClash,
					Message: fmt.Sprintf("title %q conflicts with %q from %s", p.Title, out.Title, titleFrom),
					Path:    p.Source,
				}
			}
			out.Title, titleFrom = p.Title, p.Source
		}
		if p.Entry != "" {
			if out.Entry != "" && !sameRule(out.Entry, p.Entry) {
				return nil, &LoadError{
					Code:    ErrCodeHeaderClash,
					Message: fmt.Sprintf("entry %q conflicts with %q from %s", p.Entry, out.Entry, entryFrom),
					Path:    p.Source,
				}
			}
			out.Entry, entryFrom = p.Entry, p.Source
		}
		out.Rules = append(out.Rules, p.Rules...)
	}
	return out, nil
}

// sameRule reports whether two entry names address the same rule. Names that
// do not canonicalize are compared as written.
func sameRule(a, b string) bool {
	ca, errA := grammar.Canonical(a)
	cb, errB := grammar.Canonical(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return ca == cb
}

func loadCUE(dir string, args []string, source string) (*ir.GrammarSpec, error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded", Path: source}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err), Path: source, Err: inst.Err}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), Path: source, Err: err}
	}
	// Err only reports a failed root; conflicts inside fields surface here.
	if err := value.Validate(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("validating CUE value: %v", err), Path: source, Err: err}
	}

	spec, err := compiler.CompileGrammar(value)
	if err != nil {
		return nil, convertCompileError(err, source)
	}
	spec.Source = source
	return spec, nil
}

// convertCompileError converts a compiler error to a LoadError, keeping the
// CUE position in the message when one is available.
func convertCompileError(err error, source string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{Code: ErrCodeCompile, Message: compileErr.Error(), Path: source, Err: err}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Path: source, Err: err}
}
