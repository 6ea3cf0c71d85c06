// Package parquetfile exports depth averages as a Parquet file.
package parquetfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	"github.com/parquet-go/parquet-go"
)

// Row is one depth average as stored in the Parquet file.
type Row struct {
	Variable    string   `parquet:"variable"`
	Cruise      string   `parquet:"cruise"`
	DepthFrom   float64  `parquet:"depth_from"`
	DepthTo     float64  `parquet:"depth_to"`
	Mean        *float64 `parquet:"mean"`
	Samples     int64    `parquet:"samples"`
	GeneratedAt int64    `parquet:"generated_at"` // Unix milliseconds
}

// Writer writes the depth averages of a report to a Parquet file, replacing
// any previous file. It implements pipeline.ReportLoader.
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

	rows := Rows(report)
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create parquet dir: %w", err)
	}

	// Written beside the target, then renamed into place.
	tmp := w.path + ".tmp"
	if err := writeRows(tmp, rows); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("replace %s: %w", w.path, err)
	}

	w.logger.Debug("parquet written", "path", w.path, "rows", len(rows))
	return nil
}

// Rows flattens the depth averages of a report.
func Rows(report domain.Report) []Row {
	generatedAt := report.GeneratedAt.UnixMilli()
	rows := make([]Row, len(report.DepthAverages))
	for i, a := range report.DepthAverages {
		rows[i] = Row{
			Variable:    a.Variable,
			Cruise:      a.Cruise,
			DepthFrom:   a.Bucket.Lower,
			DepthTo:     a.Bucket.Upper,
			Mean:        a.Mean,
			Samples:     int64(a.Samples),
			GeneratedAt: generatedAt,
		}
	}
	return rows
}

func writeRows(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer f.Close()

	pw := parquet.NewGenericWriter[Row](f)
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}
