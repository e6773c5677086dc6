package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/wordfactor/internal/config"
	"github.com/nao1215/wordfactor/internal/database"
	"github.com/nao1215/wordfactor/internal/model"
	"github.com/nao1215/wordfactor/internal/nmf"
	"github.com/nao1215/wordfactor/internal/pipeline"
	"github.com/nao1215/wordfactor/internal/report"
)

// NewCategorizeCmd creates the categorize command.
func NewCategorizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize pages by non-negative matrix factorization",
		Long: `Categorize builds the words × documents count matrix V for a list of URLs, or
reads it from a word-count table, and factorizes V ≈ W·H with k features.

The report lists the top words of each feature (the largest entries of the
columns of W) and assigns every document to the feature with the largest
weight in its column of H.

Runs are saved to the wordfactor database; see "wordfactor history".

Examples:
  # Categorize the pages in urls.txt into 3 features
  wordfactor categorize --urls urls.txt -k 3

  # Categorize a table written by "wordfactor matrix"
  wordfactor categorize --table wordcount.txt -k 2 --top 5

  # Write a Markdown report
  wordfactor categorize --urls urls.txt -k 4 --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: runCategorizeCmd,
	}

	addCorpusFlags(cmd)
	cmd.Flags().StringP("table", "T", "",
		"Word-count table to categorize instead of fetching --urls")

	// Factorization flags
	cmd.Flags().IntP("features", "k", config.DefaultRank,
		"Number of features (rank of the factorization)")
	cmd.Flags().Int("top", config.DefaultTopWords,
		"Number of words listed per feature")
	cmd.Flags().Int("max-iter", config.DefaultMaxIter,
		"Maximum number of factorization iterations")
	cmd.Flags().Float64("tol", config.DefaultTolerance,
		"Relative residual change that ends the factorization")
	cmd.Flags().Uint64("seed", config.DefaultSeed,
		"Seed of the random initial factors")
	cmd.Flags().Bool("no-save", false,
		"Do not save the run to the database")

	addFormatFlags(cmd)

	return cmd
}

// runCategorizeCmd executes the categorize command.
func runCategorizeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCategorizeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runCategorize(ctx, cmd, cfg, logger)
}

// buildCategorizeConfig adds the categorize flags to the corpus config.
func buildCategorizeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := buildCorpusConfig(cmd)
	if err != nil {
		return nil, err
	}

	cfg.TablePath, err = cmd.Flags().GetString("table")
	if err != nil {
		return nil, err
	}
	cfg.Rank, err = cmd.Flags().GetInt("features")
	if err != nil {
		return nil, err
	}
	cfg.TopWords, err = cmd.Flags().GetInt("top")
	if err != nil {
		return nil, err
	}
	cfg.MaxIter, err = cmd.Flags().GetInt("max-iter")
	if err != nil {
		return nil, err
	}
	cfg.Tolerance, err = cmd.Flags().GetFloat64("tol")
	if err != nil {
		return nil, err
	}
	cfg.Seed, err = cmd.Flags().GetUint64("seed")
	if err != nil {
		return nil, err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// runCategorize builds the pipeline for cfg, runs it, and writes the report.
func runCategorize(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	var store *database.Store
	if cfg.SaveToDB || (cfg.UseCache && cfg.TablePath == "") {
		var err error
		store, err = openStore(cfg.DBDir, logger)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	var run *model.Run
	if cfg.TablePath != "" {
		run = model.NewRun(cfg.TablePath, nil)
		p.AddStep(pipeline.NewTableStep(cfg.TablePath))
	} else {
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
			cache = store
		}
		run = model.NewRun(cfg.URLListPath, urls)
		p.AddSteps(corpusSteps(cfg, cache, tok, logger)...)
	}

	p.AddSteps(
		pipeline.NewFactorizeStep(nmf.Config{
			Rank:      cfg.Rank,
			MaxIter:   cfg.MaxIter,
			Tolerance: cfg.Tolerance,
			Seed:      cfg.Seed,
		}),
		pipeline.NewCategorizeStep(cfg.TopWords),
	)
	if cfg.SaveToDB {
		p.AddStep(pipeline.NewPersistStep(store))
	}

	logger.Info("starting categorization",
		"input", run.Name,
		"urls", len(run.URLs),
		"rank", cfg.Rank,
		"steps", p.StepNames(),
	)

	if err := p.Execute(ctx, run); err != nil {
		return fmt.Errorf("categorization failed: %w", err)
	}
	reportFailures(cmd, run)

	return outputRun(cmd, cfg, run)
}

// outputRun writes the run report in the format selected by cfg.
func outputRun(cmd *cobra.Command, cfg *config.Config, run *model.Run) error {
	format, err := formatFor(cfg.JSONReport, cfg.MarkdownReport)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}

	var w report.Writer
	if format == report.FormatSimple {
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	} else {
		w = report.NewWriter(format, out, getVersion())
	}

	if _, err := w.Write(run); err != nil {
		_ = closeOut()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return closeOut()
}
