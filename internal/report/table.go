package report

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// AlignedTable lays rows out in space-separated columns padded to the widest
// cell of each column, measured in terminal display width. Short rows are
// padded with empty cells. Trailing spaces are trimmed.
func AlignedTable(rows [][]string) []string {
	colCount := 0
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}

	colWidths := make([]int, colCount)
	for _, row := range rows {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var sb strings.Builder
		for j := range colCount {
			content := ""
			if j < len(row) {
				content = row[j]
			}
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(content)
			if padding := colWidths[j] - runewidth.StringWidth(content); padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}
		}
		lines = append(lines, strings.TrimRight(sb.String(), " "))
	}
	return lines
}
