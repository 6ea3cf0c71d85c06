// Package xlsx exports a report as an Excel workbook.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook.
const (
	SummarySheet  = "summary"
	AveragesSheet = "depth_averages"
)

var averageHeaders = []any{"variable", "cruise", "depth_from", "depth_to", "mean", "samples"}

// Writer saves a report as a two-sheet workbook. It implements
// pipeline.ReportLoader.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a Writer for path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

func (w *Writer) LoadReport(ctx context.Context, report domain.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummary(f, report); err != nil {
		return err
	}

	if _, err := f.NewSheet(AveragesSheet); err != nil {
		return fmt.Errorf("add sheet %s: %w", AveragesSheet, err)
	}
	if err := writeAverages(f, report.DepthAverages); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create workbook dir: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Debug("workbook written", "path", w.path, "rows", len(report.DepthAverages))
	return nil
}

func writeSummary(f *excelize.File, report domain.Report) error {
	rows := [][]any{
		{"rows", report.Rows},
		{"most_sampled_cruise", report.MostSampledCruise},
		{"peak_sampling_hour", report.PeakSamplingHour},
		{"empty_depth_bins", report.EmptyBins()},
		{"generated_at", report.GeneratedAt.UTC().Format(domain.TimestampLayout)},
	}
	for i := range rows {
		if err := setRow(f, SummarySheet, i+1, rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// writeAverages writes a header row then one row per average. Missing means
// are left blank.
func writeAverages(f *excelize.File, averages []domain.DepthAverage) error {
	if err := setRow(f, AveragesSheet, 1, averageHeaders); err != nil {
		return err
	}
	for i, a := range averages {
		var mean any
		if a.Mean != nil {
			mean = *a.Mean
		}
		row := []any{a.Variable, a.Cruise, a.Bucket.Lower, a.Bucket.Upper, mean, a.Samples}
		if err := setRow(f, AveragesSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
