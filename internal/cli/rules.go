package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storygen/internal/grammar"
	"github.com/roach88/storygen/internal/ir"
	"github.com/roach88/storygen/internal/loader"
)

// RuleEntry is one rule in the rules command output.
type RuleEntry struct {
	Name         string   `json:"name"`
	Alternatives []string `json:"alternatives"`
}

// RulesOutput is the JSON payload of the rules command.
type RulesOutput struct {
	Title       string      `json:"title,omitempty"`
	Entry       string      `json:"entry,omitempty"`
	GrammarHash string      `json:"grammar_hash"`
	Rules       []RuleEntry `json:"rules"`
}

// RulesOptions holds flags for the rules command.
type RulesOptions struct {
	*RootOptions
	YAML bool // print the merged grammar as a YAML grammar file
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules <grammar>",
		Short: "List the rules of a grammar",
		Long: `Load a grammar and print its rules as the engine holds them:
canonical names in sorted order, alternatives merged in insertion order.

With --yaml the merged rules are printed as a YAML grammar file, which
converts a CUE grammar or a directory of grammar files into one YAML file.

Examples:
  storygen rules ./grammars/fairytale.cue
  storygen rules ./grammars --format json
  storygen rules ./grammars --yaml > merged.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "print the merged grammar as YAML")

	return cmd
}

func runRules(cmd *cobra.Command, opts *RulesOptions, path string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	spec, err := loader.Load(path)
	if err != nil {
		return grammarError(f, err)
	}

	store := grammar.New(grammar.WithLogger(opts.Logger()))
	if err := store.AddSpec(*spec); err != nil {
		return grammarError(f, err)
	}
	hash, err := store.Hash()
	if err != nil {
		return f.fail(ExitCommandError, loader.ErrCodeGeneric, "failed to hash grammar", err)
	}

	out := RulesOutput{
		Title:       spec.Title,
		GrammarHash: hash,
		Rules:       []RuleEntry{},
	}
	if spec.Entry != "" {
		if canonical, err := grammar.Canonical(spec.Entry); err == nil {
			out.Entry = canonical
		}
	}
	for _, name := range store.Names() {
		if name == grammar.SentinelName {
			continue
		}
		out.Rules = append(out.Rules, RuleEntry{Name: name, Alternatives: store.Alternatives(name)})
	}

	if opts.YAML {
		return writeRulesYAML(f, out)
	}
	if f.IsJSON() {
		return f.Success(out)
	}

	w := f.Writer
	if out.Title != "" {
		fmt.Fprintf(w, "%s\n", out.Title)
	}
	if out.Entry != "" {
		fmt.Fprintf(w, "entry: %s\n", out.Entry)
	}
	fmt.Fprintf(w, "hash:  %s\n\n", out.GrammarHash)
	for _, r := range out.Rules {
		fmt.Fprintf(w, "%s\n", r.Name)
		for _, alt := range r.Alternatives {
			fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(alt))
		}
	}
	fmt.Fprintf(w, "\n%d rules\n", len(out.Rules))
	return nil
}

// writeRulesYAML prints the merged rules as a grammar file that loads back to
// the same rule table.
func writeRulesYAML(f *OutputFormatter, out RulesOutput) error {
	merged := ir.GrammarSpec{Title: out.Title, Entry: out.Entry}
	for _, r := range out.Rules {
		merged.Rules = append(merged.Rules, ir.RuleSpec{Name: r.Name, Alternatives: r.Alternatives})
	}
	data, err := loader.MarshalYAML(merged)
	if err != nil {
		return f.fail(ExitCommandError, loader.ErrCodeGeneric, "failed to render grammar", err)
	}
	_, err = f.Writer.Write(data)
	return err
}
