package model

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// Run is the state of one categorization run. Pipeline steps fill it in
// order: documents, token frequencies, the count matrix, and finally the
// categorization.
type Run struct {
	// ID is the run history row id. Zero until persisted.
	ID int64 `json:"id,omitempty"`

	// Name identifies the run, normally the URL list or table path.
	Name string `json:"name"`

	// CreatedAt is when the run started.
	CreatedAt time.Time `json:"created_at"`

	// URLs is the input URL list in order.
	URLs []string `json:"urls,omitempty"`

	// Documents are the fetched pages, in URL list order.
	Documents []*Document `json:"documents,omitempty"`

	// Failures records URLs that could not be fetched.
	Failures []FetchFailure `json:"failures,omitempty"`

	// Frequencies holds the token counts of each document, aligned with Documents.
	Frequencies []map[string]int `json:"-"`

	// Words are the matrix rows.
	Words []string `json:"words,omitempty"`

	// Labels are the matrix columns.
	Labels []string `json:"labels,omitempty"`

	// Counts is the words × documents count matrix.
	Counts *mat.Dense `json:"-"`

	// W (words × features) and H (features × documents) are the factors.
	W *mat.Dense `json:"-"`
	H *mat.Dense `json:"-"`

	// Categorization is the factorization result.
	Categorization *Categorization `json:"categorization,omitempty"`

	// Steps lists the pipeline steps that ran.
	Steps []string `json:"steps,omitempty"`

	// Error is the message of the step error that ended the run, if any.
	Error string `json:"error,omitempty"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// FetchFailure is a URL that could not be fetched and why.
type FetchFailure struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// NewRun creates a Run for the given URLs.
func NewRun(name string, urls []string) *Run {
	return &Run{
		Name:      name,
		CreatedAt: time.Now(),
		URLs:      urls,
	}
}

// AddDocument appends a fetched document.
func (r *Run) AddDocument(doc *Document) {
	r.Documents = append(r.Documents, doc)
}

// AddFailure records a failed URL once.
func (r *Run) AddFailure(url string, err error) {
	for _, f := range r.Failures {
		if f.URL == url {
			return
		}
	}
	r.Failures = append(r.Failures, FetchFailure{URL: url, Error: err.Error()})
}

// HasMatrix reports whether the count matrix has been built.
func (r *Run) HasMatrix() bool {
	return r.Counts != nil && len(r.Words) > 0 && len(r.Labels) > 0
}

// Failed reports whether url is recorded as a fetch failure.
func (r *Run) Failed(url string) bool {
	for _, f := range r.Failures {
		if f.URL == url {
			return true
		}
	}
	return false
}

// Dims returns the number of words and documents of the matrix.
func (r *Run) Dims() (words, documents int) {
	return len(r.Words), len(r.Labels)
}
