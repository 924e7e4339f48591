package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/storygen/internal/archive"
	"github.com/roach88/storygen/internal/compiler"
	"github.com/roach88/storygen/internal/expand"
	"github.com/roach88/storygen/internal/ir"
	"github.com/roach88/storygen/internal/loader"
	"github.com/roach88/storygen/internal/story"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	DB      string
	Grammar string // replay against this grammar instead of the archived one
}

// Replay statuses.
const (
	ReplayMatch    = "match"
	ReplayMismatch = "mismatch"
	ReplayDrift    = "drift"   // grammar differs from the archived one
	ReplaySkipped  = "skipped" // generation has no seed
)

// ReplayEntry is the replay outcome for one generation.
type ReplayEntry struct {
	ID          string `json:"id"`
	Seq         int64  `json:"seq"`
	Status      string `json:"status"`
	Expected    string `json:"expected"`
	Actual      string `json:"actual,omitempty"`
	GrammarHash string `json:"grammar_hash,omitempty"` // hash replayed against, when it differs
}

// ReplayOutput is the JSON payload of the replay command.
type ReplayOutput struct {
	Generations []ReplayEntry `json:"generations"`
	Matched     int           `json:"matched"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [generation-id...]",
		Short: "Replay archived stories and verify the text",
		Long: `Regenerate archived stories from their seed and rule table and compare
the text with the archived text. Without ids every archived story is replayed.

With --grammar the stories are replayed against a grammar on disk instead of
the archived rule table; a story whose text then differs is reported as
drift.

Exit codes:
  0 - Every replayed story matches
  1 - A story differs from the archive
  2 - Command error (missing archive, unknown id, unreadable grammar)

Examples:
  storygen replay --db stories.db
  storygen replay --db stories.db 0192f0c4-...
  storygen replay --db stories.db --grammar ./grammars/fairytale.cue`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", os.Getenv(DBEnv), "archive database path (default $"+DBEnv+")")
	cmd.Flags().StringVar(&opts.Grammar, "grammar", "", "replay against this grammar file or directory")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions, ids []string) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	ar, err := openExistingArchive(f, opts.DB)
	if err != nil {
		return err
	}
	defer ar.Close()

	var override ir.RuleTable
	if opts.Grammar != "" {
		spec, err := loader.Load(opts.Grammar)
		if err != nil {
			return grammarError(f, err)
		}
		override = compiler.BuildTable(*spec)
	}

	var gens []ir.Generation
	if len(ids) == 0 {
		gens, err = ar.ListGenerations(ctx, archive.ListOptions{})
		if err != nil {
			return f.fail(ExitCommandError, ErrCodeArchive, "failed to list generations", err)
		}
	} else {
		for _, id := range ids {
			gen, err := ar.ReadGeneration(ctx, id)
			if errors.Is(err, archive.ErrNotFound) {
				return f.fail(ExitCommandError, loader.ErrCodeNotFound, fmt.Sprintf("generation not found: %s", id), nil)
			}
			if err != nil {
				return f.fail(ExitCommandError, ErrCodeArchive, "failed to read generation", err)
			}
			gens = append(gens, gen)
		}
	}

	out := ReplayOutput{Generations: make([]ReplayEntry, 0, len(gens))}
	for _, gen := range gens {
		table := override
		if table == nil {
			table, err = ar.ReadGrammar(ctx, gen.GrammarHash)
			if err != nil {
				return f.fail(ExitCommandError, ErrCodeArchive, fmt.Sprintf("failed to read grammar of %s", gen.ID), err)
			}
		}

		entry, err := replayOne(cmd, opts, gen, table)
		if err != nil {
			return f.fail(ExitFailure, ErrCodeGenerate, "replay failed", err)
		}
		switch entry.Status {
		case ReplayMatch:
			out.Matched++
		case ReplaySkipped:
			out.Skipped++
		default:
			out.Failed++
		}
		out.Generations = append(out.Generations, entry)
		f.VerboseLog("Replayed %s: %s", gen.ID, entry.Status)
	}

	if f.IsJSON() {
		if out.Failed > 0 {
			_ = f.Failure(ErrCodeMismatch, fmt.Sprintf("%d of %d stories differ from the archive", out.Failed, len(gens)), out)
		} else if err := f.Success(out); err != nil {
			return err
		}
	} else {
		writeReplayText(f, out)
	}

	if out.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d stories differ from the archive", ErrCodeMismatch, out.Failed))
	}
	return nil
}

func replayOne(cmd *cobra.Command, opts *ReplayOptions, gen ir.Generation, table ir.RuleTable) (ReplayEntry, error) {
	entry := ReplayEntry{ID: gen.ID, Seq: gen.Seq, Expected: gen.Text}
	if !gen.Replayable() {
		entry.Status = ReplaySkipped
		return entry, nil
	}

	hash, err := ir.GrammarHash(table)
	if err != nil {
		return entry, err
	}
	drifted := hash != gen.GrammarHash

	// The archived grammar and seed reproduce the archived pass count, so
	// that count bounds the replay whatever --max-passes the story was
	// generated with. Another grammar may loop and gets the default guard.
	maxPasses := gen.Passes
	if drifted || maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	res, err := story.Replay(cmd.Context(), gen, table,
		story.WithMaxPasses(maxPasses),
		story.WithLogger(opts.Logger()),
	)
	switch {
	case err != nil && drifted:
		// A changed grammar that no longer expands is drift, not a failure.
		entry.Status = ReplayDrift
		entry.GrammarHash = hash
		entry.Actual = err.Error()
		return entry, nil
	case errors.Is(err, expand.ErrPassLimit):
		// Needing more passes than the archived run means the text diverged.
		entry.Status = ReplayMismatch
		entry.Actual = err.Error()
		return entry, nil
	case err != nil:
		return entry, err
	}
	entry.Actual = res.Text

	switch {
	case res.Match():
		entry.Status = ReplayMatch
	case drifted:
		entry.Status = ReplayDrift
		entry.GrammarHash = hash
	default:
		entry.Status = ReplayMismatch
	}
	return entry, nil
}

func writeReplayText(f *OutputFormatter, out ReplayOutput) {
	w := f.Writer
	for _, g := range out.Generations {
		switch g.Status {
		case ReplayMatch:
			fmt.Fprintf(w, "✓ %s\n", g.ID)
		case ReplaySkipped:
			fmt.Fprintf(w, "- %s (not seeded)\n", g.ID)
		default:
			fmt.Fprintf(w, "✗ %s (%s)\n", g.ID, g.Status)
			fmt.Fprintf(w, "  expected: %s\n", g.Expected)
			fmt.Fprintf(w, "  actual:   %s\n", g.Actual)
		}
	}
	fmt.Fprintf(w, "\n%d matched, %d failed, %d skipped\n", out.Matched, out.Failed, out.Skipped)
}

// openExistingArchive opens an archive that must already exist. Reading
// commands never create a database.
func openExistingArchive(f *OutputFormatter, path string) (*archive.Archive, error) {
	if path == "" {
		return nil, f.fail(ExitCommandError, ErrCodeArchive, "no archive: pass --db or set "+DBEnv, nil)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, f.fail(ExitCommandError, loader.ErrCodeNotFound, fmt.Sprintf("archive not found: %s", path), nil)
	}
	ar, err := archive.Open(path)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeArchive, "failed to open archive", err)
	}
	return ar, nil
}
