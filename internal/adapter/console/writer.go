// Package console prints the report as plain text.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/cruise-data-etl/internal/domain"
)

var averageHeaders = []string{"variable", "cruise", "depth_bucket", "mean", "samples"}

// Writer prints the two summary lines followed by the depth average table.
// It implements pipeline.ReportLoader.
type Writer struct {
	out io.Writer
}

// NewWriter creates a Writer printing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) LoadReport(_ context.Context, report domain.Report) error {
	bw := bufio.NewWriter(w.out)
	fmt.Fprintf(bw, "most sampled cruise: %s\n", report.MostSampledCruise)
	fmt.Fprintf(bw, "peak sampling hour: %d\n\n", report.PeakSamplingHour)

	rows := make([][]string, len(report.DepthAverages))
	for i, a := range report.DepthAverages {
		rows[i] = []string{
			a.Variable,
			a.Cruise,
			a.Bucket.Label(),
			FormatMean(a.Mean),
			strconv.Itoa(a.Samples),
		}
	}
	writeTable(bw, averageHeaders, rows, []bool{false, false, false, true, true})
	return bw.Flush()
}

// FormatMean renders a mean with six significant digits, or "nan" when missing.
func FormatMean(mean *float64) string {
	if mean == nil {
		return "nan"
	}
	return strconv.FormatFloat(*mean, 'g', 6, 64)
}

// writeTable renders rows the way psql prints query results: centered
// headers, a dashed rule, " | " separators and a row count footer.
func writeTable(w io.Writer, headers []string, rows [][]string, right []bool) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = center(h, widths[i])
	}
	fmt.Fprintf(w, " %s \n", strings.Join(cells, " | "))

	rules := make([]string, len(headers))
	for i, n := range widths {
		rules[i] = strings.Repeat("-", n+2)
	}
	fmt.Fprintln(w, strings.Join(rules, "+"))

	for _, row := range rows {
		for i, cell := range row {
			cells[i] = pad(cell, widths[i], right[i])
		}
		fmt.Fprintf(w, " %s \n", strings.Join(cells, " | "))
	}

	noun := "rows"
	if len(rows) == 1 {
		noun = "row"
	}
	fmt.Fprintf(w, "(%d %s)\n", len(rows), noun)
}

func pad(s string, width int, right bool) string {
	gap := strings.Repeat(" ", width-utf8.RuneCountInString(s))
	if right {
		return gap + s
	}
	return s + gap
}

func center(s string, width int) string {
	gap := width - utf8.RuneCountInString(s)
	left := gap / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
}
