package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/wordfactor/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the run to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)
}

// MultiWriter writes to multiple Writers in turn.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers and stops on the first error.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Format selects a rendering.
type Format int

const (
	// FormatSimple is plain terminal text.
	FormatSimple Format = iota
	// FormatMarkdown is Markdown.
	FormatMarkdown
	// FormatJSON is indented JSON.
	FormatJSON
)

// NewWriter returns the Writer for format.
func NewWriter(format Format, output io.Writer, version string) Writer {
	switch format {
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint())
	default:
		return NewSimpleWriter(output)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// formatWeight prints a weight with three decimals.
func formatWeight(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// featureName is the display name of feature k.
func featureName(k int) string {
	return fmt.Sprintf("feature %d", k+1)
}

// topWordList joins the words of a feature for one-line display.
func topWordList(f model.Feature) string {
	words := make([]string, len(f.TopWords))
	for i, ww := range f.TopWords {
		words[i] = ww.Word
	}
	return strings.Join(words, ", ")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
