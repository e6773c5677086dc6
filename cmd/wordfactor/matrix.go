package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/wordfactor/internal/config"
	"github.com/nao1215/wordfactor/internal/model"
	"github.com/nao1215/wordfactor/internal/pipeline"
)

// NewMatrixCmd creates the matrix command.
func NewMatrixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Build a word-count table from a list of URLs",
		Long: `Matrix fetches every URL of a list, extracts the text of each page, and writes
a words × documents count table.

The first line of the table holds the document labels; every following line
is a word followed by its count in each document. The table can be passed to
"wordfactor categorize --table" later.

Pages are cached in the wordfactor database and reused for --cache-ttl.

Examples:
  # Write wordcount.txt for the URLs in urls.txt
  wordfactor matrix --urls urls.txt

  # Keep words that occur on at least two pages and write to stdout
  wordfactor matrix --urls urls.txt --min-df 2 --out -

  # Follow links one level deep on each site
  wordfactor matrix --urls urls.txt --depth 1`,
		Args: cobra.NoArgs,
		RunE: runMatrixCmd,
	}

	addCorpusFlags(cmd)
	cmd.Flags().String("out", config.DefaultWordTableFile,
		`Word-count table output path ("-" for stdout)`)

	return cmd
}

// runMatrixCmd executes the matrix command.
func runMatrixCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCorpusConfig(cmd)
	if err != nil {
		return err
	}
	cfg.WordTableFile, err = cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runMatrix(ctx, cmd, cfg, logger)
}

// runMatrix fetches the URL list and writes the word-count table.
func runMatrix(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	if cfg.URLListPath == "" {
		return config.ErrNoInput
	}
	urls, err := readURLList(cfg.URLListPath)
	if err != nil {
		return err
	}

	tok, err := newTokenizer(cfg)
	if err != nil {
		return err
	}
	defer tok.Close()

	var cache pipeline.PageCache
	if cfg.UseCache {
		store, err := openStore(cfg.DBDir, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		cache = store
	}

	// The table is buffered so a failed run leaves an existing file intact.
	var table bytes.Buffer
	run := model.NewRun(cfg.URLListPath, urls)
	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(corpusSteps(cfg, cache, tok, logger)...)
	p.AddStep(pipeline.NewWriteTableStep(&table))

	if err := p.Execute(ctx, run); err != nil {
		return fmt.Errorf("matrix failed: %w", err)
	}
	reportFailures(cmd, run)

	out, closeOut, err := openOutput(cmd, cfg.WordTableFile)
	if err != nil {
		return err
	}
	if _, err := table.WriteTo(out); err != nil {
		_ = closeOut()
		return fmt.Errorf("failed to write word-count table: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("failed to write word-count table: %w", err)
	}

	if cfg.WordTableFile != "-" {
		words, docs := run.Dims()
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote word-count table (%d words × %d documents): %s\n",
			words, docs, cfg.WordTableFile)
	}
	return nil
}

// reportFailures prints the URLs that could not be fetched to stderr.
func reportFailures(cmd *cobra.Command, run *model.Run) {
	if len(run.Failures) == 0 {
		return
	}
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "warning: %d of %d URLs could not be fetched:\n", len(run.Failures), len(run.URLs))
	for _, f := range run.Failures {
		fmt.Fprintf(w, "  %s: %s\n", f.URL, f.Error)
	}
}
