// Package report renders wordfactor results.
//
// Categorization runs are written by the Writer implementations:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: Markdown with tables and a mermaid pie chart
//   - JSONWriter: JSON for other tools
//
// WriteSOCP and WriteImpliedVol render the results of the numerical
// commands, and AlignedTable lays out space-padded columns.
package report
