package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/storygen/internal/archive"
	"github.com/roach88/storygen/internal/ir"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DB    string
	Title string
	Limit int
}

// HistoryOutput is the JSON payload of the history command.
type HistoryOutput struct {
	Generations []ir.Generation `json:"generations"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived stories",
		Long: `List archived stories in the order they were generated.

Examples:
  storygen history --db stories.db
  storygen history --db stories.db --title "Fairy Tale" --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", os.Getenv(DBEnv), "archive database path (default $"+DBEnv+")")
	cmd.Flags().StringVar(&opts.Title, "title", "", "only stories with this title")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the most recent N stories (0 lists all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	ar, err := openExistingArchive(f, opts.DB)
	if err != nil {
		return err
	}
	defer ar.Close()

	gens, err := ar.ListGenerations(cmd.Context(), archive.ListOptions{
		Title: opts.Title,
		Limit: opts.Limit,
	})
	if err != nil {
		return f.fail(ExitCommandError, ErrCodeArchive, "failed to list generations", err)
	}

	if f.IsJSON() {
		return f.Success(HistoryOutput{Generations: gens})
	}

	if len(gens) == 0 {
		fmt.Fprintln(f.Writer, "No stories archived.")
		return nil
	}
	for _, g := range gens {
		fmt.Fprintf(f.Writer, "%4d  %s  %-16s seed=%-20d %s\n",
			g.Seq, g.ID, formatStoryLine(g.Title, 16), g.Seed, formatStoryLine(g.Text, 60))
	}
	return nil
}
