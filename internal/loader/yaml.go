package loader

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storygen/internal/ir"
)

// yamlGrammar is the on-disk YAML shape. Rules is kept as a node so that
// rule order follows the file.
type yamlGrammar struct {
	Title string    `yaml:"title,omitempty"`
	Entry string    `yaml:"entry,omitempty"`
	Rules yaml.Node `yaml:"rules"`
}

// Alternatives decodes either a scalar or a sequence of scalars.
type Alternatives []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Alternatives) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*a = Alternatives{s}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*a = list
		return nil
	default:
		return fmt.Errorf("line %d: rule must be a string or a list of strings", node.Line)
	}
}

// LoadYAMLFile reads and parses a YAML grammar file.
func LoadYAMLFile(path string) (*ir.GrammarSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "failed to read grammar file", Path: path, Err: err}
	}
	spec, err := ParseYAML(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), Path: path, Err: err}
	}
	spec.Source = path
	return spec, nil
}

// ParseYAML parses a YAML grammar document.
// Unknown top-level fields are rejected to catch typos such as "rule:".
func ParseYAML(data []byte) (*ir.GrammarSpec, error) {
	var doc yamlGrammar
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	spec := &ir.GrammarSpec{Title: doc.Title, Entry: doc.Entry}

	if doc.Rules.Kind == 0 {
		return nil, fmt.Errorf("missing required field: rules")
	}
	if doc.Rules.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: rules must be a mapping of rule name to alternatives", doc.Rules.Line)
	}

	content := doc.Rules.Content
	for i := 0; i+1 < len(content); i += 2 {
		var name string
		if err := content[i].Decode(&name); err != nil {
			return nil, fmt.Errorf("line %d: invalid rule name: %w", content[i].Line, err)
		}
		var alts Alternatives
		if err := content[i+1].Decode(&alts); err != nil {
			return nil, fmt.Errorf("rule %q: %w", name, err)
		}
		if len(alts) == 0 {
			return nil, fmt.Errorf("rule %q: at least one alternative is required", name)
		}
		spec.Rules = append(spec.Rules, ir.RuleSpec{Name: name, Alternatives: alts})
	}

	if len(spec.Rules) == 0 {
		return nil, fmt.Errorf("at least one rule is required")
	}
	return spec, nil
}

// MarshalYAML renders a spec in the YAML grammar format.
// Single-alternative rules are written as scalars.
func MarshalYAML(spec ir.GrammarSpec) ([]byte, error) {
	rules := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range spec.Rules {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: r.Name}
		var val yaml.Node
		if len(r.Alternatives) == 1 {
			if err := val.Encode(r.Alternatives[0]); err != nil {
				return nil, err
			}
		} else {
			if err := val.Encode(r.Alternatives); err != nil {
				return nil, err
			}
		}
		rules.Content = append(rules.Content, key, &val)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlGrammar{Title: spec.Title, Entry: spec.Entry, Rules: *rules}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
