package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/wordfactor/internal/impliedvol"
	"github.com/nao1215/wordfactor/internal/socp"
)

// WriteSOCP renders a cone program solution.
func WriteSOCP(w io.Writer, format Format, p *socp.Problem, sol *socp.Solution) error {
	switch format {
	case FormatJSON:
		// Gap and Objective are infinite when the solver stopped early,
		// which JSON cannot represent; they are written as null.
		x := make([]*float64, len(sol.X))
		for i, v := range sol.X {
			x[i] = finite(v)
		}
		return writeIndentedJSON(w, struct {
			Problem    string      `json:"problem,omitempty"`
			Variables  []string    `json:"variables,omitempty"`
			Status     socp.Status `json:"status"`
			Objective  *float64    `json:"objective"`
			Iterations int         `json:"iterations"`
			Gap        *float64    `json:"gap"`
			X          []*float64  `json:"x"`
		}{p.Name, p.Variables, sol.Status, finite(sol.Objective), sol.Iterations, finite(sol.Gap), x})
	case FormatMarkdown:
		return writeSOCPMarkdown(w, p, sol)
	default:
		return writeSOCPSimple(w, p, sol)
	}
}

func socpSummary(p *socp.Problem, sol *socp.Solution) [][]string {
	rows := [][]string{
		{"Status", string(sol.Status)},
		{"Objective", formatFloat(sol.Objective)},
		{"Iterations", strconv.Itoa(sol.Iterations)},
		{"Gap", formatFloat(sol.Gap)},
	}
	if p.Name != "" {
		rows = append([][]string{{"Problem", p.Name}}, rows...)
	}
	return rows
}

func writeSOCPSimple(w io.Writer, p *socp.Problem, sol *socp.Solution) error {
	var sb strings.Builder
	for _, line := range AlignedTable(socpSummary(p, sol)) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(sol.X) > 0 {
		sb.WriteString("\n")
		rows := make([][]string, len(sol.X))
		for i, x := range sol.X {
			rows[i] = []string{"  " + p.VariableName(i), "=", formatFloat(x)}
		}
		for _, line := range AlignedTable(rows) {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeSOCPMarkdown(w io.Writer, p *socp.Problem, sol *socp.Solution) error {
	md := markdown.NewMarkdown(w)
	md.H1("Cone Program Solution")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   socpSummary(p, sol),
	})
	md.PlainText("")

	if sol.Status != socp.StatusOptimal {
		md.Warningf("The solver stopped with status %q.", sol.Status)
		md.PlainText("")
	}

	if len(sol.X) > 0 {
		md.H2("Variables")
		md.PlainText("")
		rows := make([][]string, len(sol.X))
		for i, x := range sol.X {
			rows[i] = []string{p.VariableName(i), formatFloat(x)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Variable", "Value"},
			Rows:   rows,
		})
		md.PlainText("")
	}
	writeFooter(md)
	return md.Build()
}

// WriteImpliedVol renders implied volatility results, one row per quote.
func WriteImpliedVol(w io.Writer, format Format, results []impliedvol.Result) error {
	switch format {
	case FormatJSON:
		type row struct {
			impliedvol.Result
			Error string `json:"error,omitempty"`
		}
		rows := make([]row, len(results))
		for i, r := range results {
			rows[i] = row{Result: r}
			if r.Err != nil {
				rows[i].Error = r.Err.Error()
			}
		}
		return writeIndentedJSON(w, rows)
	case FormatMarkdown:
		md := markdown.NewMarkdown(w)
		md.H1("Implied Volatility")
		md.PlainText("")
		header, rows := impliedVolRows(results)
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		md.PlainText("")
		if failed := countFailed(results); failed > 0 {
			md.Warningf("%d quote(s) could not be solved.", failed)
			md.PlainText("")
		}
		writeFooter(md)
		return md.Build()
	default:
		header, rows := impliedVolRows(results)
		return writeLines(w, AlignedTable(append([][]string{header}, rows...)))
	}
}

func impliedVolRows(results []impliedvol.Result) ([]string, [][]string) {
	header := []string{"TYPE", "STRIKE", "EXPIRY", "PRICE", "VOL", "NOTE"}
	rows := make([][]string, len(results))
	for i, r := range results {
		vol, note := "-", ""
		if r.Err != nil {
			note = r.Err.Error()
		} else {
			vol = fmt.Sprintf("%.6f", r.Volatility)
		}
		rows[i] = []string{
			string(r.Quote.Type),
			formatFloat(r.Quote.Strike),
			formatFloat(r.Quote.Expiry),
			formatFloat(r.Quote.Price),
			vol,
			note,
		}
	}
	return header, rows
}

func countFailed(results []impliedvol.Result) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// WriteVolSurface renders a volatility grid with strikes as rows and
// expiries as columns. Missing points print as "-".
func WriteVolSurface(w io.Writer, format Format, grid *impliedvol.Grid) error {
	header := []string{"STRIKE"}
	for _, t := range grid.Expiries {
		header = append(header, "T="+formatFloat(t))
	}
	rows := make([][]string, len(grid.Strikes))
	for i, k := range grid.Strikes {
		row := []string{formatFloat(k)}
		for j := range grid.Expiries {
			if v := grid.At(i, j); math.IsNaN(v) {
				row = append(row, "-")
			} else {
				row = append(row, fmt.Sprintf("%.4f", v))
			}
		}
		rows[i] = row
	}

	switch format {
	case FormatJSON:
		// NaN is not valid JSON.
		vols := make([][]*float64, len(grid.Vols))
		for i := range grid.Vols {
			vols[i] = make([]*float64, len(grid.Vols[i]))
			for j, v := range grid.Vols[i] {
				vols[i][j] = finite(v)
			}
		}
		return writeIndentedJSON(w, struct {
			Strikes  []float64    `json:"strikes"`
			Expiries []float64    `json:"expiries"`
			Vols     [][]*float64 `json:"vols"`
		}{grid.Strikes, grid.Expiries, vols})
	case FormatMarkdown:
		md := markdown.NewMarkdown(w)
		md.H1("Implied Volatility Surface")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: header, Rows: rows})
		md.PlainText("")
		writeFooter(md)
		return md.Build()
	default:
		return writeLines(w, AlignedTable(append([][]string{header}, rows...)))
	}
}

func writeLines(w io.Writer, lines []string) error {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeIndentedJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// finite returns nil for NaN and infinities.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}
