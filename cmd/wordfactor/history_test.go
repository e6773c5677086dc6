package main

import (
	"strings"
	"testing"
)

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("empty database", func(t *testing.T) {
		t.Parallel()
		out, _, err := executeCmd(t, "history", "--db-dir", t.TempDir())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No categorization runs found") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("latest without runs", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCmd(t, "history", "--db-dir", t.TempDir(), "--latest")
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCmd(t, "history", "--db-dir", t.TempDir(), "--id", "42")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not found error, got %v", err)
		}
	})

	t.Run("id and latest are exclusive", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCmd(t, "history", "--db-dir", t.TempDir(), "--id", "1", "--latest")
		if err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("prune cached pages", func(t *testing.T) {
		t.Parallel()
		env := newCorpusEnv(t, "/finance1", "/sport1")
		if _, _, err := executeCmd(t, env.args("matrix", "--out", "-")...); err != nil {
			t.Fatalf("matrix: %v", err)
		}

		out, _, err := executeCmd(t, "history", "--db-dir", env.dbDir, "--prune-pages", "1h")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Removed 0 cached page(s)") {
			t.Errorf("unexpected output: %q", out)
		}
	})
}
