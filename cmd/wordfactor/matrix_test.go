package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/wordfactor/internal/config"
	"github.com/nao1215/wordfactor/internal/pipeline"
)

func TestMatrixCmd(t *testing.T) {
	t.Parallel()

	t.Run("writes the word-count table", func(t *testing.T) {
		t.Parallel()
		env := newCorpusEnv(t, "/finance1", "/sport1", "/missing")
		outPath := filepath.Join(env.dir, "out", "wordcount.txt")

		out, stderr, err := executeCmd(t, env.args("matrix", "--out", outPath)...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Wrote word-count table") {
			t.Errorf("unexpected output: %q", out)
		}
		if !strings.Contains(stderr, "1 of 3 URLs could not be fetched") {
			t.Errorf("expected failure warning, got %q", stderr)
		}

		data, err := os.ReadFile(outPath)
		if err != nil {
			t.Fatalf("failed to read table: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if !strings.HasPrefix(lines[0], "word ") {
			t.Errorf("unexpected header: %q", lines[0])
		}
		table := string(data)
		for _, w := range []string{"stocks", "bonds", "football", "goals"} {
			if !strings.Contains(table, "\n"+w+" ") {
				t.Errorf("expected word %q in table:\n%s", w, table)
			}
		}
		if strings.Contains(table, "\ntonight ") {
			t.Error("stopword from the config file was counted")
		}

		info, err := os.Stat(outPath)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
		}
		if _, err := os.Stat(filepath.Join(env.dbDir, "wordfactor.db")); err != nil {
			t.Errorf("expected page cache database: %v", err)
		}
	})

	t.Run("writes to stdout", func(t *testing.T) {
		t.Parallel()
		env := newCorpusEnv(t, "/finance1", "/finance2")

		out, _, err := executeCmd(t, env.args("matrix", "--out", "-", "--no-cache")...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(out, "word ") || !strings.Contains(out, "stocks") {
			t.Errorf("unexpected table:\n%s", out)
		}
		if _, err := os.Stat(env.dbDir); !os.IsNotExist(err) {
			t.Error("--no-cache should not open the database")
		}
	})

	t.Run("all URLs fail", func(t *testing.T) {
		t.Parallel()
		env := newCorpusEnv(t, "/missing")
		outPath := filepath.Join(env.dir, "wordcount.txt")
		writeTestFile(t, outPath, "previous")

		_, _, err := executeCmd(t, env.args("matrix", "--out", outPath)...)
		if !errors.Is(err, pipeline.ErrAllFetchesFailed) {
			t.Fatalf("expected ErrAllFetchesFailed, got %v", err)
		}
		data, _ := os.ReadFile(outPath)
		if string(data) != "previous" {
			t.Error("failed run overwrote the existing table")
		}
	})

	t.Run("no URL list", func(t *testing.T) {
		t.Parallel()
		cfgPath := filepath.Join(t.TempDir(), ".wordfactor")
		writeTestFile(t, cfgPath, "")

		_, _, err := executeCmd(t, "matrix", "--config", cfgPath, "--db-dir", t.TempDir())
		if !errors.Is(err, config.ErrNoInput) {
			t.Errorf("expected ErrNoInput, got %v", err)
		}
	})

	t.Run("invalid min length", func(t *testing.T) {
		t.Parallel()
		env := newCorpusEnv(t, "/finance1")
		_, _, err := executeCmd(t, env.args("matrix", "--min-length", "0")...)
		if !errors.Is(err, config.ErrInvalidMinWordLength) {
			t.Errorf("expected ErrInvalidMinWordLength, got %v", err)
		}
	})

	t.Run("zero max pages", func(t *testing.T) {
		t.Parallel()
		env := newCorpusEnv(t, "/finance1")
		_, _, err := executeCmd(t, env.args("matrix", "--max-pages", "0")...)
		if !errors.Is(err, config.ErrInvalidMaxPages) {
			t.Errorf("expected ErrInvalidMaxPages, got %v", err)
		}
	})
}
