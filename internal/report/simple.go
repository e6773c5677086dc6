package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/wordfactor/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds the membership of every document in every feature.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeFailures(&sb, run)
	w.writeFeatures(&sb, run)
	w.writeAssignments(&sb, run)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       WORDFACTOR REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	words, docs := run.Dims()
	fmt.Fprintf(sb, "Input:      %s\n", run.Name)
	if run.ID > 0 {
		fmt.Fprintf(sb, "Run ID:     %d\n", run.ID)
	}
	fmt.Fprintf(sb, "Date:       %s\n", run.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Documents:  %d (%d failed)\n", docs, len(run.Failures))
	fmt.Fprintf(sb, "Words:      %d\n", words)

	if c := run.Categorization; c != nil {
		status := "converged"
		if !c.Converged {
			status = "iteration limit reached"
		}
		fmt.Fprintf(sb, "Features:   %d\n", c.Rank)
		fmt.Fprintf(sb, "Residual:   %.6g after %d iterations (%s)\n", c.Residual, c.Iterations, status)
	}
	if run.Error != "" {
		fmt.Fprintf(sb, "Status:     ERROR - %s\n", run.Error)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, run *model.Run) {
	if len(run.Failures) == 0 {
		return
	}
	section(sb, "FETCH FAILURES")
	for _, f := range run.Failures {
		fmt.Fprintf(sb, "  %s\n    %s\n", f.URL, f.Error)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFeatures(sb *strings.Builder, run *model.Run) {
	c := run.Categorization
	if c == nil {
		return
	}
	section(sb, "FEATURES")
	for _, f := range c.Features {
		fmt.Fprintf(sb, "[%s] %d document(s)\n", strings.ToUpper(featureName(f.Index)), len(c.DocumentsForFeature(f.Index)))

		rows := make([][]string, 0, len(f.TopWords))
		for _, ww := range f.TopWords {
			rows = append(rows, []string{"  " + ww.Word, formatWeight(ww.Weight)})
		}
		for _, line := range AlignedTable(rows) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		if len(rows) == 0 {
			sb.WriteString("  (no words)\n")
		}
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeAssignments(sb *strings.Builder, run *model.Run) {
	c := run.Categorization
	if c == nil {
		return
	}
	section(sb, "DOCUMENTS")

	header := []string{"DOCUMENT", "FEATURE"}
	if w.verbose {
		for k := range c.Rank {
			header = append(header, "F"+strconv.Itoa(k+1))
		}
	}
	rows := [][]string{header}
	for _, a := range c.Assignments {
		feature := "-"
		if a.Feature >= 0 {
			feature = strconv.Itoa(a.Feature + 1)
		}
		row := []string{truncateString(a.Document, 60), feature}
		if w.verbose {
			for _, m := range a.Memberships {
				row = append(row, formatWeight(m))
			}
		}
		rows = append(rows, row)
	}
	for _, line := range AlignedTable(rows) {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
