package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wordfactor/internal/impliedvol"
	"github.com/nao1215/wordfactor/internal/model"
	"github.com/nao1215/wordfactor/internal/socp"
)

// createTestRun creates a categorized run with sample data.
func createTestRun() *model.Run {
	run := model.NewRun("urls.txt", []string{
		"https://news.example/markets",
		"https://news.example/football",
		"https://news.example/missing",
	})
	run.ID = 7
	run.CreatedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	run.AddFailure("https://news.example/missing", errors.New("GET https://news.example/missing: 404 Not Found"))
	run.Words = []string{"bonds", "football", "goals", "stocks"}
	run.Labels = run.URLs
	run.Categorization = &model.Categorization{
		Rank:       2,
		Iterations: 42,
		Residual:   0.125,
		Converged:  true,
		Features: []model.Feature{
			{Index: 0, TopWords: []model.WordWeight{{Word: "stocks", Weight: 2.5}, {Word: "bonds", Weight: 1.25}}},
			{Index: 1, TopWords: []model.WordWeight{{Word: "football", Weight: 3}, {Word: "goals", Weight: 1}}},
		},
		Assignments: []model.Assignment{
			{Document: "https://news.example/markets", Feature: 0, Memberships: []float64{0.9, 0.1}},
			{Document: "https://news.example/football", Feature: 1, Memberships: []float64{0.2, 0.8}},
			{Document: "https://news.example/missing", Feature: -1, Memberships: []float64{0, 0}},
		},
	}
	return run
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("returned %d bytes, buffer has %d", n, buf.Len())
		}

		output := buf.String()
		for _, want := range []string{
			"WORDFACTOR REPORT",
			"Input:      urls.txt",
			"Run ID:     7",
			"Documents:  3 (1 failed)",
			"FETCH FAILURES",
			"404 Not Found",
			"[FEATURE 1] 1 document(s)",
			"stocks 2.500",
			"FEATURES",
			"DOCUMENTS",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q\n%s", want, output)
			}
		}
		if strings.Contains(output, "F1") {
			t.Error("memberships should only be shown in verbose mode")
		}
	})

	t.Run("verbose shows memberships", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRun()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "0.900") {
			t.Errorf("expected membership values:\n%s", buf.String())
		}
	})

	t.Run("run without categorization", func(t *testing.T) {
		t.Parallel()

		run := model.NewRun("urls.txt", nil)
		run.Error = "all URLs failed to fetch"

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
			t.Fatal(err)
		}
		output := buf.String()
		if !strings.Contains(output, "ERROR - all URLs failed") {
			t.Errorf("expected error status:\n%s", output)
		}
		if strings.Contains(output, "FEATURES") {
			t.Error("features section should be omitted")
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"# wordfactor Report",
		"## Fetch Failures",
		"## Features",
		"### feature 1",
		"```mermaid",
		"pie",
		"Documents per Feature",
		"unassigned",
		"| stocks",
		"https://news.example/football",
		"## Documents",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatal(err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("compact output should be a single line")
		}

		var got model.Run
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Categorization == nil || got.Categorization.Features[1].TopWords[0].Word != "football" {
			t.Errorf("categorization not encoded: %+v", got.Categorization)
		}
	})

	t.Run("full report with version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewWriter(FormatJSON, &buf, "v1.2.3")
		if _, err := w.Write(createTestRun()); err != nil {
			t.Fatal(err)
		}

		var got JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Version != "v1.2.3" || got.Run == nil || got.Run.ID != 7 {
			t.Errorf("got %+v", got)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	m := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
	n, err := m.Write(createTestRun())
	if err != nil {
		t.Fatal(err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("n = %d, want %d", n, a.Len()+b.Len())
	}
}

func TestWriteSOCP(t *testing.T) {
	t.Parallel()

	p := socp.NewProblem([]float64{1, 0, 0})
	p.Name = "cone.yaml"
	p.Variables = []string{"t", "x", "y"}
	sol := &socp.Solution{X: []float64{1.4142135, 1, 1}, Objective: 1.4142135, Iterations: 23, Gap: 3e-9, Status: socp.StatusOptimal}

	t.Run("simple", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if err := WriteSOCP(&buf, FormatSimple, p, sol); err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"Status     optimal", "Iterations 23", "  t = 1.4142135"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected %q in\n%s", want, buf.String())
			}
		}
	})

	t.Run("markdown warns on failure", func(t *testing.T) {
		t.Parallel()
		failed := &socp.Solution{Status: socp.StatusInfeasible, Gap: math.Inf(1)}
		var buf bytes.Buffer
		if err := WriteSOCP(&buf, FormatMarkdown, p, failed); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "infeasible") || !strings.Contains(buf.String(), "[!WARNING]") {
			t.Errorf("unexpected markdown:\n%s", buf.String())
		}
	})

	t.Run("json with infinite gap", func(t *testing.T) {
		t.Parallel()
		failed := &socp.Solution{Status: socp.StatusUnbounded, Objective: math.Inf(-1), Gap: math.Inf(1)}
		var buf bytes.Buffer
		if err := WriteSOCP(&buf, FormatJSON, p, failed); err != nil {
			t.Fatal(err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["gap"] != nil || got["status"] != "unbounded" {
			t.Errorf("got %v", got)
		}
	})
}

func TestWriteImpliedVol(t *testing.T) {
	t.Parallel()

	results := []impliedvol.Result{
		{Quote: impliedvol.Quote{Type: impliedvol.Call, Price: 10.45, Spot: 100, Strike: 100, Expiry: 1, Rate: 0.05}, Volatility: 0.2, Iterations: 3},
		{Quote: impliedvol.Quote{Type: impliedvol.Put, Price: 0.5, Spot: 100, Strike: 50, Expiry: 1}, Err: impliedvol.ErrPriceBelowIntrinsic},
	}

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatSimple, []string{"TYPE", "0.200000", "put", "intrinsic"}},
		{FormatMarkdown, []string{"# Implied Volatility", "| call", "1 quote(s) could not be solved"}},
		{FormatJSON, []string{`"volatility": 0.2`, `"error": "price is at or below intrinsic value"`}},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := WriteImpliedVol(&buf, tt.format, results); err != nil {
			t.Fatalf("format %d: %v", tt.format, err)
		}
		for _, want := range tt.want {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("format %d: expected %q in\n%s", tt.format, want, buf.String())
			}
		}
	}
}

func TestWriteVolSurface(t *testing.T) {
	t.Parallel()

	grid := &impliedvol.Grid{
		Strikes:  []float64{90, 110},
		Expiries: []float64{0.5, 1},
		Vols:     [][]float64{{0.25, 0.24}, {0.21, math.NaN()}},
	}

	var buf bytes.Buffer
	if err := WriteVolSurface(&buf, FormatSimple, grid); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "STRIKE T=0.5  T=1" || lines[2] != "110    0.2100 -" {
		t.Errorf("unexpected table:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteVolSurface(&buf, FormatJSON, grid); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "null") {
		t.Errorf("missing point should encode as null:\n%s", buf.String())
	}
}

func TestAlignedTable(t *testing.T) {
	t.Parallel()

	got := AlignedTable([][]string{
		{"word", "d1", "d2"},
		{"日本", "10", "2"},
		{"x"},
	})
	want := []string{
		"word d1 d2",
		"日本 10 2",
		"x",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d lines", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"ありがとうございます", 5, "あり..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
