package termmatrix

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/mat"

	"github.com/nao1215/wordfactor/internal/report"
)

// headerWord is the first header cell of a word-count table.
const headerWord = "word"

// WriteTable writes the matrix as a word-count table: a header line with the
// document labels, then one line per word with its counts.
func (m *Matrix) WriteTable(w io.Writer) error {
	rows := make([][]string, 0, len(m.Words)+1)
	rows = append(rows, append([]string{headerWord}, m.columnLabels()...))

	for i, word := range m.Words {
		row := make([]string, 0, len(m.Documents)+1)
		row = append(row, word)
		for j := range m.Documents {
			row = append(row, strconv.FormatInt(int64(m.Counts.At(i, j)), 10))
		}
		rows = append(rows, row)
	}

	bw := bufio.NewWriter(w)
	for _, line := range report.AlignedTable(rows) {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write word-count table: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write word-count table: %w", err)
	}
	return nil
}

// columnLabels returns the header labels. Labels that are empty or contain
// whitespace would break the table, so all columns fall back to doc1..docN.
func (m *Matrix) columnLabels() []string {
	usable := true
	for _, label := range m.Documents {
		if label == "" || strings.IndexFunc(label, unicode.IsSpace) >= 0 {
			usable = false
			break
		}
	}
	if usable {
		return m.Documents
	}
	labels := make([]string, len(m.Documents))
	for j := range labels {
		labels[j] = "doc" + strconv.Itoa(j+1)
	}
	return labels
}

// ReadTable parses a word-count table written by WriteTable or any other
// whitespace-delimited table with the same layout. Rows keep file order and
// rows whose counts are all zero are dropped.
func ReadTable(r io.Reader) (*Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		labels []string
		words  []string
		data   []float64
		seen   = make(map[string]int)
		lineNo int
	)

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if labels == nil {
			if len(fields) < 2 {
				return nil, &ParseError{Line: lineNo, Err: ErrMissingHeader}
			}
			labels = fields[1:]
			continue
		}

		if len(fields) != len(labels)+1 {
			return nil, &ParseError{
				Line: lineNo,
				Err:  fmt.Errorf("%w: got %d, want %d", ErrRaggedRow, len(fields), len(labels)+1),
			}
		}
		word := fields[0]
		if first, ok := seen[word]; ok {
			return nil, &ParseError{Line: lineNo, Err: fmt.Errorf("%w %q (first on line %d)", ErrDuplicateWord, word, first)}
		}
		seen[word] = lineNo

		row := make([]float64, len(labels))
		nonZero := false
		for j, field := range fields[1:] {
			n, err := strconv.ParseUint(field, 10, 53)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: fmt.Errorf("%w: %q", ErrInvalidCount, field)}
			}
			row[j] = float64(n)
			nonZero = nonZero || n > 0
		}
		if !nonZero {
			continue
		}
		words = append(words, word)
		data = append(data, row...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word-count table: %w", err)
	}
	if labels == nil {
		return nil, errors.Join(ErrEmptyMatrix, ErrMissingHeader)
	}
	if len(words) == 0 {
		return nil, ErrEmptyMatrix
	}

	return &Matrix{
		Words:     words,
		Documents: labels,
		Counts:    mat.NewDense(len(words), len(labels), data),
		vocab:     NewVocabulary(words),
	}, nil
}
