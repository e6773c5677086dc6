package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/wordfactor/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeFailures(md, run)
	w.writeFeatures(md, run)
	w.writeAssignments(md, run)
	writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("wordfactor Report")
	md.PlainText("")

	words, docs := run.Dims()
	rows := [][]string{
		{"Input", "`" + run.Name + "`"},
		{"Date", run.CreatedAt.Format("2006-01-02 15:04:05 MST")},
		{"Documents", strconv.Itoa(docs)},
		{"Failed URLs", strconv.Itoa(len(run.Failures))},
		{"Words", strconv.Itoa(words)},
	}
	if run.ID > 0 {
		rows = append([][]string{{"Run ID", strconv.FormatInt(run.ID, 10)}}, rows...)
	}
	if c := run.Categorization; c != nil {
		rows = append(rows,
			[]string{"Features", strconv.Itoa(c.Rank)},
			[]string{"Iterations", strconv.Itoa(c.Iterations)},
			[]string{"Residual", strconv.FormatFloat(c.Residual, 'g', 6, 64)},
		)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case run.Error != "":
		md.Cautionf("The run stopped with an error: %s", run.Error)
		md.PlainText("")
	case run.Categorization != nil && !run.Categorization.Converged:
		md.Note("The factorization reached its iteration limit before converging.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, run *model.Run) {
	if len(run.Failures) == 0 {
		return
	}
	md.H2("Fetch Failures")
	md.PlainText("")
	md.Warningf("%d URL(s) could not be fetched and count as empty documents.", len(run.Failures))
	md.PlainText("")

	rows := make([][]string, len(run.Failures))
	for i, f := range run.Failures {
		rows[i] = []string{f.URL, truncateString(f.Error, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFeatures(md *markdown.Markdown, run *model.Run) {
	c := run.Categorization
	if c == nil {
		return
	}
	md.H2("Features")
	md.PlainText("")

	if len(c.Assignments) > 0 {
		w.writePieChart(md, c)
	}

	for _, f := range c.Features {
		md.H3(featureName(f.Index))
		md.PlainText("")
		if len(f.TopWords) == 0 {
			md.PlainText("No words.")
			md.PlainText("")
			continue
		}
		rows := make([][]string, len(f.TopWords))
		for i, ww := range f.TopWords {
			rows[i] = []string{ww.Word, formatWeight(ww.Weight)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Word", "Weight"},
			Rows:   rows,
		})
		md.PlainText("")

		if docs := c.DocumentsForFeature(f.Index); len(docs) > 0 {
			md.BulletList(docs...)
			md.PlainText("")
		}
	}
}

// writePieChart writes a mermaid pie chart of documents per feature.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, c *model.Categorization) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Documents per Feature"),
		piechart.WithShowData(true),
	)

	for k, n := range c.DocumentsPerFeature() {
		if n > 0 {
			chart.LabelAndIntValue(featureName(k), uint64(n))
		}
	}
	if unassigned := len(c.Unassigned()); unassigned > 0 {
		chart.LabelAndIntValue("unassigned", uint64(unassigned))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAssignments(md *markdown.Markdown, run *model.Run) {
	c := run.Categorization
	if c == nil {
		return
	}
	md.H2("Documents")
	md.PlainText("")

	header := []string{"Document", "Feature"}
	for k := range c.Rank {
		header = append(header, "F"+strconv.Itoa(k+1))
	}
	rows := make([][]string, len(c.Assignments))
	for i, a := range c.Assignments {
		feature := "-"
		if a.Feature >= 0 {
			feature = strconv.Itoa(a.Feature + 1)
		}
		row := []string{a.Document, feature}
		for _, m := range a.Memberships {
			row = append(row, formatWeight(m))
		}
		rows[i] = row
	}
	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")
}

func writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [wordfactor](https://github.com/nao1215/wordfactor)*")
}
