package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wordfactor/internal/crawler"
	"github.com/nao1215/wordfactor/internal/database"
	"github.com/nao1215/wordfactor/internal/lexer"
	"github.com/nao1215/wordfactor/internal/model"
	"github.com/nao1215/wordfactor/internal/nmf"
	"github.com/nao1215/wordfactor/internal/termmatrix"
)

var testPages = map[string]string{
	"/finance1": "Stocks and bonds. Stocks rallied while bonds slipped; stocks, bonds, markets.",
	"/finance2": "Bonds yields and stocks. Investors sold bonds and bought stocks in volatile markets.",
	"/sport1":   "Football match tonight. The football team scored goals; football fans cheered goals.",
	"/sport2":   "Goals decide every football match. Fans watched the match and celebrated goals.",
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text, ok := testPages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><head><title>%s</title><script>var ignored = 1;</script></head><body><p>%s</p></body></html>", r.URL.Path, text)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(client *http.Client, opts ...BatchOption) *BatchFetcher {
	opts = append(opts, WithBatchLogger(quietLogger()))
	return NewBatchFetcher(func(string) Crawler {
		return crawler.NewSpider(client, crawler.WithDelay(0), crawler.WithLogger(quietLogger()))
	}, opts...)
}

func newTestTokenizer(t *testing.T) *lexer.Tokenizer {
	t.Helper()
	tok, err := lexer.NewTokenizer()
	if err != nil {
		t.Fatalf("NewTokenizer: %v", err)
	}
	t.Cleanup(tok.Close)
	return tok
}

func TestCategorizationPipeline(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	store, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	urls := []string{srv.URL + "/finance1", srv.URL + "/sport1", srv.URL + "/missing", srv.URL + "/finance2", srv.URL + "/sport2"}
	run := model.NewRun("urls.txt", urls)

	var table bytes.Buffer
	p := New(WithLogger(quietLogger()))
	p.AddSteps(
		NewFetchStep(newTestFetcher(srv.Client(), WithPageCache(store, time.Hour))),
		NewTokenizeStep(newTestTokenizer(t)),
		NewMatrixStep(termmatrix.WithMinDocumentFrequency(2)),
		NewWriteTableStep(&table),
		NewFactorizeStep(nmf.Config{Rank: 2, MaxIter: 500, Tolerance: 1e-9, Seed: 7}),
		NewCategorizeStep(3),
		NewPersistStep(store),
	)

	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(run.Documents) != len(urls) {
		t.Fatalf("documents = %d, want %d", len(run.Documents), len(urls))
	}
	if !run.Failed(srv.URL + "/missing") {
		t.Error("expected /missing to be recorded as a failure")
	}

	words, docs := run.Dims()
	if docs != len(urls) {
		t.Errorf("matrix columns = %d, want %d", docs, len(urls))
	}
	for _, w := range []string{"bonds", "football", "goals", "stocks"} {
		found := false
		for _, got := range run.Words {
			found = found || got == w
		}
		if !found {
			t.Errorf("word %q missing from %v", w, run.Words)
		}
	}
	if words == 0 || !strings.HasPrefix(table.String(), "word ") {
		t.Errorf("unexpected table:\n%s", table.String())
	}

	c := run.Categorization
	if c == nil || len(c.Features) != 2 || len(c.Assignments) != len(urls) {
		t.Fatalf("categorization = %+v", c)
	}
	a := c.Assignments
	if a[2].Feature != -1 {
		t.Errorf("failed URL should be unassigned, got feature %d", a[2].Feature)
	}
	if a[0].Feature != a[3].Feature || a[1].Feature != a[4].Feature || a[0].Feature == a[1].Feature {
		t.Errorf("finance and sport pages not separated: %+v", a)
	}

	if run.ID == 0 {
		t.Error("run was not persisted")
	}
	saved, err := store.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if saved.Categorization == nil || saved.Categorization.Rank != 2 {
		t.Errorf("saved categorization = %+v", saved.Categorization)
	}

	cached, err := store.GetPage(context.Background(), srv.URL+"/sport1")
	if err != nil || cached == nil {
		t.Fatalf("page not cached: %v", err)
	}
	if !strings.Contains(cached.Text, "football") || strings.Contains(cached.Text, "ignored") {
		t.Errorf("cached text = %q", cached.Text)
	}
}

func TestFetchStep(t *testing.T) {
	t.Parallel()

	t.Run("fails when every URL fails", func(t *testing.T) {
		t.Parallel()
		srv := newTestServer(t)

		run := model.NewRun("bad", []string{srv.URL + "/nope", srv.URL + "/gone"})
		err := NewFetchStep(newTestFetcher(srv.Client())).Do(context.Background(), run)
		if !errors.Is(err, ErrAllFetchesFailed) {
			t.Errorf("expected ErrAllFetchesFailed, got %v", err)
		}
		if len(run.Failures) != 2 {
			t.Errorf("failures = %+v", run.Failures)
		}
		if !strings.Contains(run.Failures[0].Error, "404") {
			t.Errorf("failure should mention the status: %q", run.Failures[0].Error)
		}
	})

	t.Run("no URLs", func(t *testing.T) {
		t.Parallel()
		err := NewFetchStep(newTestFetcher(http.DefaultClient)).Do(context.Background(), model.NewRun("empty", nil))
		if !errors.Is(err, ErrNoURLs) {
			t.Errorf("expected ErrNoURLs, got %v", err)
		}
	})
}

func TestTableStep(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "wordcount.txt")
	content := "word d1 d2 d3\nbond 4 0 1\nstock 3 0 1\ngoal 0 5 0\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	run := model.NewRun(path, nil)
	p := New(WithLogger(quietLogger()))
	p.AddSteps(
		NewTableStep(path),
		NewFactorizeStep(nmf.Config{Rank: 2, Seed: 1}),
		NewCategorizeStep(2),
	)
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(run.Words) != 3 || run.Words[0] != "bond" || run.Labels[2] != "d3" {
		t.Errorf("words=%v labels=%v", run.Words, run.Labels)
	}
	if got := run.Categorization.Assignments[1].Document; got != "d2" {
		t.Errorf("assignment label = %q", got)
	}

	missing := NewTableStep(filepath.Join(t.TempDir(), "nope.txt"))
	if err := missing.Do(context.Background(), model.NewRun("x", nil)); err == nil {
		t.Error("expected error for missing table")
	}
}

func TestStepPreconditions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		name    string
		step    Step
		wantErr error
	}{
		{"write table without matrix", NewWriteTableStep(&bytes.Buffer{}), ErrNoMatrix},
		{"factorize without matrix", NewFactorizeStep(nmf.Config{Rank: 1}), ErrNoMatrix},
		{"categorize without factors", NewCategorizeStep(5), ErrNotFactorized},
		{"matrix without tokens", NewMatrixStep(), ErrNoMatrix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			run := model.NewRun("x", nil)
			if tt.name == "matrix without tokens" {
				run.AddDocument(&model.Document{URL: "https://example.com/"})
			}
			if err := tt.step.Do(ctx, run); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("rank larger than matrix", func(t *testing.T) {
		t.Parallel()
		run := model.NewRun("x", nil)
		run.AddDocument(&model.Document{URL: "https://example.com/", Text: "stocks bonds"})
		run.Frequencies = []map[string]int{{"stocks": 1, "bonds": 2}}
		if err := NewMatrixStep().Do(ctx, run); err != nil {
			t.Fatal(err)
		}
		err := NewFactorizeStep(nmf.Config{Rank: 2}).Do(ctx, run)
		if !errors.Is(err, nmf.ErrInvalidRank) {
			t.Errorf("expected ErrInvalidRank, got %v", err)
		}
	})
}
