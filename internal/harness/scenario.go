package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storygen/internal/loader"
)

// Scenario defines a conformance test scenario: a grammar, how to generate
// from it, and what the generated stories must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Grammar is the path to a grammar file or directory.
	// Relative paths are resolved against the scenario's directory.
	Grammar string `yaml:"grammar,omitempty"`

	// Rules are inserted after the grammar is loaded.
	Rules []RuleStep `yaml:"rules,omitempty"`

	// Title overrides the grammar title.
	Title string `yaml:"title,omitempty"`

	// Entry overrides the grammar entry point.
	Entry string `yaml:"entry,omitempty"`

	// Seed is the seed of the first story. Zero means 1.
	Seed uint64 `yaml:"seed,omitempty"`

	// Count is the number of stories to generate. Zero means 1.
	Count int `yaml:"count,omitempty"`

	// MaxPasses bounds each expansion. Zero means unbounded.
	MaxPasses int `yaml:"max_passes,omitempty"`

	// Assertions validate the generated stories.
	Assertions []Assertion `yaml:"assertions"`
}

// RuleStep is an inline rule.
type RuleStep struct {
	Name         string              `yaml:"name"`
	Alternatives loader.Alternatives `yaml:"alternatives"`
}

// Assertion validates generated stories.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is the expected text (text_equals, text_contains).
	Text string `yaml:"text,omitempty"`

	// Texts are the allowed texts (one_of).
	Texts []string `yaml:"texts,omitempty"`

	// Count is the bound for max_passes and distinct.
	Count int `yaml:"count,omitempty"`

	// Error is the expected error kind (error).
	Error string `yaml:"error,omitempty"`
}

// Assertion type constants.
const (
	AssertTextEquals   = "text_equals"
	AssertTextContains = "text_contains"
	AssertOneOf        = "one_of"
	AssertNoTokens     = "no_tokens"
	AssertMaxPasses    = "max_passes"
	AssertDistinct     = "distinct"
	AssertError        = "error"
	AssertReplays      = "replays"
)

// LoadScenario reads and parses a scenario YAML file, resolving the grammar
// path relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the grammar path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Grammar != "" && !filepath.IsAbs(scenario.Grammar) && basePath != "" {
		scenario.Grammar = filepath.Join(basePath, scenario.Grammar)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the YAML scenario files directly inside dir whose
// base name (without extension) matches the glob filter, if one is given.
// Subdirectories are not searched, so grammars can live beside scenarios in
// a subdirectory.
func FindScenarios(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Grammar == "" && len(s.Rules) == 0 {
		return fmt.Errorf("grammar or rules is required")
	}

	if s.Grammar != "" {
		if _, err := os.Stat(s.Grammar); os.IsNotExist(err) {
			return &GrammarNotFoundError{Scenario: s.Name, Path: s.Grammar}
		}
	}

	if s.Count < 0 {
		return fmt.Errorf("count must be non-negative")
	}
	if s.MaxPasses < 0 {
		return fmt.Errorf("max_passes must be non-negative")
	}

	for i, r := range s.Rules {
		if r.Name == "" {
			return fmt.Errorf("rules[%d]: name is required", i)
		}
		if len(r.Alternatives) == 0 {
			return fmt.Errorf("rules[%d]: alternatives is required", i)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTextEquals, AssertTextContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertOneOf:
		if len(a.Texts) == 0 {
			return fmt.Errorf("assertions[%d]: texts list is required for one_of", index)
		}
	case AssertMaxPasses, AssertDistinct:
		if a.Count <= 0 {
			return fmt.Errorf("assertions[%d]: count must be positive for %s", index, a.Type)
		}
	case AssertError:
		if !knownErrorKind(a.Error) {
			return fmt.Errorf("assertions[%d]: unknown error kind %q", index, a.Error)
		}
	case AssertNoTokens, AssertReplays:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// GrammarNotFoundError is returned when a scenario's grammar doesn't exist.
type GrammarNotFoundError struct {
	Scenario string
	Path     string
}

func (e *GrammarNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references grammar %q which does not exist", e.Scenario, e.Path)
}
