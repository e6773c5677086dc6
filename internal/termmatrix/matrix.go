package termmatrix

import (
	"cmp"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Document is one column of the matrix: a label, normally the page URL, and
// the frequencies of its filtered tokens.
type Document struct {
	Label       string
	Frequencies map[string]int
}

// Vocabulary is the ordered list of distinct words with a reverse index.
type Vocabulary struct {
	words []string
	index map[string]int
}

// NewVocabulary creates a Vocabulary in the given order.
func NewVocabulary(words []string) *Vocabulary {
	v := &Vocabulary{
		words: words,
		index: make(map[string]int, len(words)),
	}
	for i, w := range words {
		v.index[w] = i
	}
	return v
}

// Len returns the number of words.
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Words returns the words in row order.
func (v *Vocabulary) Words() []string {
	return v.words
}

// Index returns the row of word.
func (v *Vocabulary) Index(word string) (int, bool) {
	i, ok := v.index[word]
	return i, ok
}

// Matrix is a dense words × documents count matrix.
type Matrix struct {
	Words     []string
	Documents []string
	Counts    *mat.Dense

	vocab *Vocabulary
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	minDocFreq int
	maxWords   int
}

// WithMinDocumentFrequency drops words that occur in fewer than n documents.
func WithMinDocumentFrequency(n int) Option {
	return func(o *buildOptions) {
		o.minDocFreq = n
	}
}

// WithMaxWords keeps the n most frequent words. Zero means unlimited.
func WithMaxWords(n int) Option {
	return func(o *buildOptions) {
		o.maxWords = n
	}
}

type wordStat struct {
	word    string
	total   int
	docFreq int
}

// Build assembles the matrix from per-document frequencies.
func Build(docs []Document, opts ...Option) (*Matrix, error) {
	o := &buildOptions{minDocFreq: 1}
	for _, opt := range opts {
		opt(o)
	}
	if len(docs) == 0 {
		return nil, ErrEmptyMatrix
	}

	stats := make(map[string]*wordStat)
	for _, doc := range docs {
		for word, n := range doc.Frequencies {
			if n <= 0 || word == "" {
				continue
			}
			s, ok := stats[word]
			if !ok {
				s = &wordStat{word: word}
				stats[word] = s
			}
			s.total += n
			s.docFreq++
		}
	}

	kept := make([]*wordStat, 0, len(stats))
	for _, s := range stats {
		if s.docFreq >= o.minDocFreq {
			kept = append(kept, s)
		}
	}
	if o.maxWords > 0 && len(kept) > o.maxWords {
		slices.SortFunc(kept, func(a, b *wordStat) int {
			if c := cmp.Compare(b.total, a.total); c != 0 {
				return c
			}
			return cmp.Compare(a.word, b.word)
		})
		kept = kept[:o.maxWords]
	}
	if len(kept) == 0 {
		return nil, ErrEmptyMatrix
	}

	words := make([]string, len(kept))
	for i, s := range kept {
		words[i] = s.word
	}
	sort.Strings(words)

	labels := make([]string, len(docs))
	counts := mat.NewDense(len(words), len(docs), nil)
	for j, doc := range docs {
		labels[j] = doc.Label
		for i, w := range words {
			if n := doc.Frequencies[w]; n > 0 {
				counts.Set(i, j, float64(n))
			}
		}
	}

	return &Matrix{
		Words:     words,
		Documents: labels,
		Counts:    counts,
		vocab:     NewVocabulary(words),
	}, nil
}

// Dims returns the number of words and documents.
func (m *Matrix) Dims() (words, documents int) {
	return len(m.Words), len(m.Documents)
}

// Column returns the counts of document j.
func (m *Matrix) Column(j int) []float64 {
	return mat.Col(nil, j, m.Counts)
}

// Vocabulary returns the row index of the matrix.
func (m *Matrix) Vocabulary() *Vocabulary {
	if m.vocab == nil {
		m.vocab = NewVocabulary(m.Words)
	}
	return m.vocab
}

// TotalCount returns how often word occurs across all documents.
func (m *Matrix) TotalCount(word string) int {
	i, ok := m.Vocabulary().Index(word)
	if !ok {
		return 0
	}
	total := 0.0
	for _, v := range mat.Row(nil, i, m.Counts) {
		total += v
	}
	return int(total)
}
