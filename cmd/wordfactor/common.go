package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/wordfactor/internal/config"
	"github.com/nao1215/wordfactor/internal/database"
	wflog "github.com/nao1215/wordfactor/internal/log"
	"github.com/nao1215/wordfactor/internal/report"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the structured logger used by every command and makes
// it the default. Secrets such as cookies and URL credentials are redacted.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	logger := wflog.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openOutput returns the file at path, or the command's stdout when path is
// empty or "-". Parent directories are created as needed. The returned close
// function closes the file once; later calls return the first result.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path is provided by the user
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, sync.OnceValue(f.Close), nil
}

// addFormatFlags registers --json, --markdown and --output.
func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write output to the specified file path (creates directories if needed)")
}

// getFormat reads the format flags registered by addFormatFlags.
func getFormat(cmd *cobra.Command) (report.Format, error) {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return report.FormatSimple, err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return report.FormatSimple, err
	}
	return formatFor(jsonOut, markdownOut)
}

func formatFor(jsonOut, markdownOut bool) (report.Format, error) {
	switch {
	case jsonOut && markdownOut:
		return report.FormatSimple, config.ErrConflictingReportFormats
	case jsonOut:
		return report.FormatJSON, nil
	case markdownOut:
		return report.FormatMarkdown, nil
	default:
		return report.FormatSimple, nil
	}
}

// addDBFlag registers --db-dir.
func addDBFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"Directory of the wordfactor database (default: XDG data directory)")
}

// dbDir returns the --db-dir flag value or the XDG data directory.
func dbDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return "", err
	}
	if dir == "" {
		return config.XDGDataDir(), nil
	}
	return dir, nil
}

// openStore opens the database in dir.
func openStore(dir string, logger *slog.Logger) (*database.Store, error) {
	store, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", store.Path())
	return store, nil
}
