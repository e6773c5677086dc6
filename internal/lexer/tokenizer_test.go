package lexer

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestTokenizer_Tokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		text string
		want []string
	}{
		{
			name: "splits on punctuation and whitespace",
			text: "Markets,rallied;\tbonds\nfell",
			want: []string{"markets", "rallied", "bonds", "fell"},
		},
		{
			name: "drops short tokens",
			text: "an ox ate hay",
			want: []string{"ate", "hay"},
		},
		{
			name: "drops numeric-leading tokens",
			text: "2024 q3 3rd growth covid19",
			want: []string{"growth", "covid19"},
		},
		{
			name: "drops stopwords case-insensitively",
			text: "The price AND the volume",
			want: []string{"price", "volume"},
		},
		{
			name: "apostrophe splits words",
			text: "company's shares",
			want: []string{"company", "shares"},
		},
		{
			name: "unicode folding",
			text: "STRASSE Straße Ünïcode",
			want: []string{"strasse", "strasse", "ünïcode"},
		},
		{
			name: "custom minimum length",
			opts: []Option{WithMinLength(5)},
			text: "bond yields curve",
			want: []string{"yields", "curve"},
		},
		{
			name: "short stopwords with lowered minimum length",
			opts: []Option{WithMinLength(2)},
			text: "It is an example of how to do it in the market",
			want: []string{"example", "market"},
		},
		{
			name: "single letters with minimum length one",
			opts: []Option{WithMinLength(1)},
			text: "a company's x factor",
			want: []string{"company", "x", "factor"},
		},
		{
			name: "extra stopwords",
			opts: []Option{WithStopwords("Reuters", " ")},
			text: "Reuters reports earnings",
			want: []string{"reports", "earnings"},
		},
		{
			name: "without default stopwords",
			opts: []Option{WithoutDefaultStopwords()},
			text: "the market",
			want: []string{"the", "market"},
		},
		{
			name: "empty text",
			text: "  ... ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tok, err := NewTokenizer(tt.opts...)
			if err != nil {
				t.Fatalf("NewTokenizer() error = %v", err)
			}
			defer tok.Close()

			got := tok.Tokens(tt.text)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Tokens(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestTokenizer_Frequencies(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenizer()
	if err != nil {
		t.Fatal(err)
	}
	defer tok.Close()

	freq := tok.Frequencies("Stock stock STOCK bond. Bond! 42 the")
	want := map[string]int{"stock": 3, "bond": 2}
	if diff := cmp.Diff(want, freq); diff != "" {
		t.Errorf("Frequencies() mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizer_Stemming(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenizer(WithStemming(true))
	if err != nil {
		t.Fatalf("NewTokenizer() error = %v", err)
	}
	defer tok.Close()

	got := tok.Tokens("connections running")
	want := []string{"connect", "run"}
	if !slices.Equal(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}

	// Tokens stays usable from several goroutines.
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tok.Frequencies("connections connected connecting")
		}()
	}
	wg.Wait()
}

func TestTokenizer_CloseTwice(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenizer(WithStemming(true))
	if err != nil {
		t.Fatal(err)
	}
	tok.Close()
	tok.Close()

	if got := tok.Tokens("connections"); !slices.Equal(got, []string{"connections"}) {
		t.Errorf("expected unstemmed token after Close, got %v", got)
	}
}

func TestNewTokenizer_InvalidMinLength(t *testing.T) {
	t.Parallel()

	_, err := NewTokenizer(WithMinLength(0))
	if !errors.Is(err, ErrInvalidMinLength) {
		t.Errorf("expected ErrInvalidMinLength, got %v", err)
	}
}

func TestDefaultStopwords(t *testing.T) {
	t.Parallel()

	words := DefaultStopwords()
	if !slices.Contains(words, "the") {
		t.Error("expected built-in list to contain \"the\"")
	}
	for _, w := range []string{"a", "is", "of", "to"} {
		if !slices.Contains(words, w) {
			t.Errorf("expected built-in list to contain %q", w)
		}
	}
	words[0] = "mutated"
	if DefaultStopwords()[0] == "mutated" {
		t.Error("DefaultStopwords must return a copy")
	}
}
