package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/storygen/internal/compiler"
	"github.com/roach88/storygen/internal/loader"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // treat analysis warnings as failures
}

// ValidateOutput is the JSON payload of the validate command.
type ValidateOutput struct {
	Valid    bool                       `json:"valid"`
	Rules    int                        `json:"rules"`
	Errors   []compiler.ValidationError `json:"errors"`
	Analysis compiler.Report            `json:"analysis"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <grammar>",
		Short: "Validate a grammar",
		Long: `Validate a grammar file or directory.

Validation reports problems that make a grammar unusable: empty rule names,
rules without alternatives, an entry point that is not a rule, rules that can
never finish expanding. Analysis adds warnings for recursion, rule-shaped
tokens that are not rules, and rules the entry point never reaches.

Exit codes:
  0 - Grammar is valid
  1 - Validation failed (or warnings with --strict)
  2 - Grammar could not be loaded

Examples:
  storygen validate ./grammars/fairytale.cue
  storygen validate ./grammars --strict`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on analysis warnings")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, path string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	spec, err := loader.Load(path)
	if err != nil {
		return grammarError(f, err)
	}
	f.VerboseLog("Loaded %d rules from %s", spec.RuleCount(), path)

	errs := compiler.Validate(*spec)
	report := compiler.Analyze(*spec)
	out := ValidateOutput{
		Valid:    len(errs) == 0,
		Rules:    len(compiler.BuildTable(*spec)) - 1,
		Errors:   errs,
		Analysis: report,
	}
	if out.Errors == nil {
		out.Errors = []compiler.ValidationError{}
	}
	failed := !out.Valid || (opts.Strict && !report.Clean())

	if f.IsJSON() {
		if failed {
			_ = f.Failure(ErrCodeInvalid, "grammar validation failed", out)
		} else if err := f.Success(out); err != nil {
			return err
		}
	} else {
		writeValidateText(f, out)
	}

	if failed {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: grammar validation failed", ErrCodeInvalid))
	}
	return nil
}

func writeValidateText(f *OutputFormatter, out ValidateOutput) {
	w := f.Writer
	for _, e := range out.Errors {
		fmt.Fprintf(w, "✗ %s\n", e.Error())
	}
	for _, c := range out.Analysis.Cycles {
		fmt.Fprintf(w, "⚠ %s\n", c.Message)
	}
	for _, u := range out.Analysis.Undefined {
		fmt.Fprintf(w, "⚠ %s uses %s, which is not a rule\n", u.Rule, u.Token)
	}
	for _, name := range out.Analysis.Unreachable {
		fmt.Fprintf(w, "⚠ %s is unreachable from the entry point\n", name)
	}

	if out.Valid {
		fmt.Fprintf(w, "✓ Grammar valid (%d rules)\n", out.Rules)
	} else {
		fmt.Fprintf(w, "✗ Grammar invalid: %d errors\n", len(out.Errors))
	}
}
