package lexer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/tebeka/snowball"
	"golang.org/x/text/cases"
)

// DefaultMinLength is the minimum token length in runes.
const DefaultMinLength = 3

// ErrInvalidMinLength is returned when the minimum token length is below 1.
var ErrInvalidMinLength = errors.New("minimum token length must be at least 1")

// Tokenizer splits text into filtered, case-folded tokens.
// It is safe for concurrent use.
type Tokenizer struct {
	minLength      int
	stopwords      map[string]struct{}
	stemming       bool
	stemmerLang    string
	extraStopwords []string
	skipDefaults   bool

	mu      sync.Mutex
	stemmer *snowball.Stemmer
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithMinLength sets the minimum token length in runes.
func WithMinLength(n int) Option {
	return func(t *Tokenizer) {
		t.minLength = n
	}
}

// WithStopwords adds stopwords to the built-in list.
func WithStopwords(words ...string) Option {
	return func(t *Tokenizer) {
		t.extraStopwords = append(t.extraStopwords, words...)
	}
}

// WithoutDefaultStopwords disables the built-in stopword list.
func WithoutDefaultStopwords() Option {
	return func(t *Tokenizer) {
		t.skipDefaults = true
	}
}

// WithStemming enables Snowball English stemming of surviving tokens.
func WithStemming(enabled bool) Option {
	return func(t *Tokenizer) {
		t.stemming = enabled
	}
}

// NewTokenizer creates a Tokenizer. Call Close when stemming is enabled.
func NewTokenizer(opts ...Option) (*Tokenizer, error) {
	t := &Tokenizer{
		minLength:   DefaultMinLength,
		stemmerLang: "english",
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.minLength < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMinLength, t.minLength)
	}

	fold := cases.Fold()
	t.stopwords = make(map[string]struct{}, len(englishStopwords)+len(t.extraStopwords))
	if !t.skipDefaults {
		for _, w := range englishStopwords {
			t.stopwords[w] = struct{}{}
		}
	}
	for _, w := range t.extraStopwords {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		t.stopwords[fold.String(w)] = struct{}{}
	}

	if t.stemming {
		stemmer, err := snowball.New(t.stemmerLang)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s stemmer: %w", t.stemmerLang, err)
		}
		t.stemmer = stemmer
	}
	return t, nil
}

// Close releases the stemmer, if any.
func (t *Tokenizer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stemmer != nil {
		t.stemmer.Close()
		t.stemmer = nil
	}
}

// IsStopword reports whether the folded word is a stopword.
func (t *Tokenizer) IsStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

// Tokens returns the surviving tokens of text in order of appearance.
func (t *Tokenizer) Tokens(text string) []string {
	// Casers carry state and must not be shared between goroutines.
	fold := cases.Fold()

	fields := strings.FieldsFunc(text, isSeparator)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		word := fold.String(field)
		if !t.keep(word) {
			continue
		}
		tokens = append(tokens, t.stem(word))
	}
	return tokens
}

// Frequencies counts the surviving tokens of text.
func (t *Tokenizer) Frequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range t.Tokens(text) {
		freq[tok]++
	}
	return freq
}

func (t *Tokenizer) keep(word string) bool {
	if utf8.RuneCountInString(word) < t.minLength {
		return false
	}
	first, _ := utf8.DecodeRuneInString(word)
	if unicode.IsDigit(first) {
		return false
	}
	return !t.IsStopword(word)
}

func (t *Tokenizer) stem(word string) string {
	if !t.stemming {
		return word
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stemmer == nil {
		return word
	}
	return t.stemmer.Stem(word)
}

// isSeparator reports whether r splits two tokens.
func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
