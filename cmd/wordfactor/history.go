package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/wordfactor/internal/database"
	"github.com/nao1215/wordfactor/internal/model"
	"github.com/nao1215/wordfactor/internal/report"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved categorization runs or show one of them",
		Long: `History lists the categorization runs saved in the wordfactor database,
newest first. With --id or --latest the full report of one run is printed.

The database also caches fetched pages; --prune-pages removes cached pages
older than the given age.

Examples:
  # List the last 20 runs
  wordfactor history

  # Show run 3 as Markdown
  wordfactor history --id 3 --markdown

  # Show the most recent run
  wordfactor history --latest

  # Drop cached pages older than 30 days
  wordfactor history --prune-pages 720h`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("id", 0, "Show the run with this ID")
	cmd.Flags().Bool("latest", false, "Show the most recent run")
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of runs listed")
	cmd.Flags().Duration("prune-pages", 0, "Remove cached pages older than this age")
	addDBFlag(cmd)
	addFormatFlags(cmd)
	cmd.MarkFlagsMutuallyExclusive("id", "latest")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	pruneAge, err := cmd.Flags().GetDuration("prune-pages")
	if err != nil {
		return err
	}
	format, err := getFormat(cmd)
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	dir, err := dbDir(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd)
	store, err := openStore(dir, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	if pruneAge > 0 {
		n, err := store.PruneOlderThan(ctx, time.Now().Add(-pruneAge))
		if err != nil {
			return fmt.Errorf("failed to prune cached pages: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached page(s) older than %s\n", n, pruneAge)
		return nil
	}

	out, closeOut, err := openOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck // idempotent; the explicit close reports the error

	if id != 0 || latest {
		if err := showRun(ctx, store, out, format, id); err != nil {
			return err
		}
		return closeOut()
	}

	if err := listRuns(ctx, store, out, limit); err != nil {
		return err
	}
	return closeOut()
}

// showRun writes the report of run id, or of the latest run when id is 0.
func showRun(ctx context.Context, store *database.Store, out io.Writer, format report.Format, id int64) error {
	var run *model.Run
	var err error
	if id == 0 {
		run, err = store.LatestRun(ctx)
	} else {
		run, err = store.GetRun(ctx, id)
	}
	if err != nil {
		if errors.Is(err, database.ErrNotFound) && id == 0 {
			return errors.New("no categorization runs found in the database")
		}
		return fmt.Errorf("failed to load run: %w", err)
	}

	if _, err := report.NewWriter(format, out, getVersion()).Write(run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// listRuns writes an aligned table of the most recent runs.
func listRuns(ctx context.Context, store *database.Store, out io.Writer, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No categorization runs found in the database.")
		fmt.Fprintln(out, "\nUse 'wordfactor categorize' to categorize a list of URLs.")
		return nil
	}

	rows := make([][]string, 0, len(runs)+1)
	rows = append(rows, []string{"ID", "DATE", "DOCS", "WORDS", "K", "RESIDUAL", "NAME"})
	for _, r := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.Itoa(r.Documents),
			strconv.Itoa(r.Words),
			strconv.Itoa(r.Rank),
			strconv.FormatFloat(r.Residual, 'g', 6, 64),
			r.Name,
		})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Categorization runs (%d):\n\n", len(runs))
	for _, line := range report.AlignedTable(rows) {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\nUse 'wordfactor history --id <id>' to show a run.\n")

	_, err = io.WriteString(out, sb.String())
	return err
}
