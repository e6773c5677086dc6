package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/nao1215/wordfactor/internal/model"
	"github.com/nao1215/wordfactor/internal/nmf"
	"github.com/nao1215/wordfactor/internal/termmatrix"
)

var (
	// ErrNoURLs is returned by FetchStep for a run without URLs.
	ErrNoURLs = errors.New("no URLs to fetch")
	// ErrAllFetchesFailed is returned when not a single URL could be fetched.
	ErrAllFetchesFailed = errors.New("all URLs failed to fetch")
	// ErrNoMatrix is returned by steps that need the count matrix before it exists.
	ErrNoMatrix = errors.New("run has no count matrix")
	// ErrNotFactorized is returned by CategorizeStep before FactorizeStep ran.
	ErrNotFactorized = errors.New("run has not been factorized")
)

// FetchStep fetches every URL of the run. Failed URLs are recorded in
// run.Failures and keep an empty document so that columns line up with
// the URL list. The step fails only when every URL failed.
type FetchStep struct {
	fetcher *BatchFetcher
}

// NewFetchStep creates a FetchStep using fetcher.
func NewFetchStep(fetcher *BatchFetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, run *model.Run) error {
	if len(run.URLs) == 0 {
		return ErrNoURLs
	}

	failed := 0
	for _, result := range s.fetcher.FetchAll(ctx, run.URLs) {
		if result.Err != nil {
			failed++
			run.AddFailure(result.URL, result.Err)
			run.AddDocument(&model.Document{URL: result.URL})
			continue
		}
		run.AddDocument(result.Document)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed == len(run.URLs) {
		return fmt.Errorf("%w (%d URLs)", ErrAllFetchesFailed, failed)
	}
	return nil
}

// Tokenizer turns text into token frequencies.
type Tokenizer interface {
	Frequencies(text string) map[string]int
}

// TokenizeStep counts the tokens of every document.
type TokenizeStep struct {
	tokenizer Tokenizer
}

// NewTokenizeStep creates a TokenizeStep.
func NewTokenizeStep(tokenizer Tokenizer) *TokenizeStep {
	return &TokenizeStep{tokenizer: tokenizer}
}

// Name returns the step name.
func (s *TokenizeStep) Name() string {
	return "tokenize"
}

// Do executes the tokenize step.
func (s *TokenizeStep) Do(ctx context.Context, run *model.Run) error {
	run.Frequencies = make([]map[string]int, len(run.Documents))
	for i, doc := range run.Documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		run.Frequencies[i] = s.tokenizer.Frequencies(doc.Text)
	}
	return nil
}

// MatrixStep builds the words × documents count matrix.
type MatrixStep struct {
	opts []termmatrix.Option
}

// NewMatrixStep creates a MatrixStep passing opts to termmatrix.Build.
func NewMatrixStep(opts ...termmatrix.Option) *MatrixStep {
	return &MatrixStep{opts: opts}
}

// Name returns the step name.
func (s *MatrixStep) Name() string {
	return "matrix"
}

// Do executes the matrix step.
func (s *MatrixStep) Do(_ context.Context, run *model.Run) error {
	if len(run.Frequencies) != len(run.Documents) {
		return fmt.Errorf("%w: documents have not been tokenized", ErrNoMatrix)
	}

	docs := make([]termmatrix.Document, len(run.Documents))
	for i, doc := range run.Documents {
		docs[i] = termmatrix.Document{Label: doc.Label(), Frequencies: run.Frequencies[i]}
	}

	m, err := termmatrix.Build(docs, s.opts...)
	if err != nil {
		return fmt.Errorf("failed to build count matrix: %w", err)
	}
	setMatrix(run, m)
	return nil
}

// TableStep loads the count matrix from a word-count table file instead of
// fetching pages.
type TableStep struct {
	path string
}

// NewTableStep creates a TableStep reading path.
func NewTableStep(path string) *TableStep {
	return &TableStep{path: path}
}

// Name returns the step name.
func (s *TableStep) Name() string {
	return "load_table"
}

// Do executes the table step.
func (s *TableStep) Do(_ context.Context, run *model.Run) error {
	f, err := os.Open(s.path) //nolint:gosec // path is provided by the user
	if err != nil {
		return fmt.Errorf("failed to open word-count table: %w", err)
	}
	defer f.Close()

	m, err := termmatrix.ReadTable(f)
	if err != nil {
		return fmt.Errorf("failed to read word-count table %s: %w", s.path, err)
	}
	setMatrix(run, m)
	return nil
}

func setMatrix(run *model.Run, m *termmatrix.Matrix) {
	run.Words = m.Words
	run.Labels = m.Documents
	run.Counts = m.Counts
}

// WriteTableStep writes the count matrix as a word-count table.
type WriteTableStep struct {
	w io.Writer
}

// NewWriteTableStep creates a WriteTableStep writing to w.
func NewWriteTableStep(w io.Writer) *WriteTableStep {
	return &WriteTableStep{w: w}
}

// Name returns the step name.
func (s *WriteTableStep) Name() string {
	return "write_table"
}

// Do executes the write step.
func (s *WriteTableStep) Do(_ context.Context, run *model.Run) error {
	if !run.HasMatrix() {
		return ErrNoMatrix
	}
	m := &termmatrix.Matrix{Words: run.Words, Documents: run.Labels, Counts: run.Counts}
	return m.WriteTable(s.w)
}

// FactorizeStep factorizes the count matrix into W and H.
type FactorizeStep struct {
	cfg nmf.Config
}

// NewFactorizeStep creates a FactorizeStep with the given configuration.
func NewFactorizeStep(cfg nmf.Config) *FactorizeStep {
	return &FactorizeStep{cfg: cfg}
}

// Name returns the step name.
func (s *FactorizeStep) Name() string {
	return "factorize"
}

// Do executes the factorize step.
func (s *FactorizeStep) Do(_ context.Context, run *model.Run) error {
	if !run.HasMatrix() {
		return ErrNoMatrix
	}

	res, err := nmf.Factorize(run.Counts, s.cfg)
	if err != nil {
		words, docs := run.Dims()
		return fmt.Errorf("failed to factorize %d×%d matrix with rank %d: %w", words, docs, s.cfg.Rank, err)
	}

	run.W = res.W
	run.H = res.H
	run.Categorization = &model.Categorization{
		Rank:       s.cfg.Rank,
		Iterations: res.Iterations,
		Residual:   res.Residual,
		Converged:  res.Converged,
	}
	return nil
}

// CategorizeStep turns the factors into top words per feature and a
// dominant feature per document.
type CategorizeStep struct {
	topWords int
}

// NewCategorizeStep creates a CategorizeStep listing topWords words per feature.
func NewCategorizeStep(topWords int) *CategorizeStep {
	return &CategorizeStep{topWords: topWords}
}

// Name returns the step name.
func (s *CategorizeStep) Name() string {
	return "categorize"
}

// Do executes the categorize step.
func (s *CategorizeStep) Do(_ context.Context, run *model.Run) error {
	if run.W == nil || run.H == nil || run.Categorization == nil {
		return ErrNotFactorized
	}
	c := run.Categorization

	_, rank := run.W.Dims()
	c.Features = make([]model.Feature, rank)
	for k := range rank {
		top := nmf.TopWords(run.W, run.Words, k, s.topWords)
		words := make([]model.WordWeight, len(top))
		for i, ww := range top {
			words[i] = model.WordWeight{Word: ww.Word, Weight: ww.Weight}
		}
		c.Features[k] = model.Feature{Index: k, TopWords: words}
	}

	dominant := nmf.DominantFeatures(run.H)
	memberships := nmf.Memberships(run.H)
	c.Assignments = make([]model.Assignment, len(dominant))
	for j, feature := range dominant {
		c.Assignments[j] = model.Assignment{
			Document:    label(run, j),
			Feature:     feature,
			Memberships: mat.Col(nil, j, memberships),
		}
	}
	return nil
}

func label(run *model.Run, j int) string {
	if j < len(run.Labels) {
		return run.Labels[j]
	}
	return fmt.Sprintf("doc%d", j+1)
}

// RunStore saves finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.Run) (int64, error)
}

// PersistStep saves the run to the run history.
type PersistStep struct {
	store RunStore
}

// NewPersistStep creates a PersistStep.
func NewPersistStep(store RunStore) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, run *model.Run) error {
	if _, err := s.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}
