// Package csvfile loads the travel and measurement CSV exports into typed tables.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// nanValues are the cell spellings read as missing.
var nanValues = []string{"", "NA", "NaN", "nan", "null", "NULL"}

// Loader reads both input files. It implements pipeline.Extractor.
type Loader struct {
	travelsPath      string
	measurementsPath string
	logger           *slog.Logger
}

// NewLoader creates a Loader for the given file paths.
func NewLoader(travelsPath, measurementsPath string, logger *slog.Logger) *Loader {
	return &Loader{
		travelsPath:      travelsPath,
		measurementsPath: measurementsPath,
		logger:           logger,
	}
}

// Extract loads the travel table, then the measurement table.
func (l *Loader) Extract(ctx context.Context) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}
	travels, err := LoadTravels(l.travelsPath)
	if err != nil {
		return domain.Dataset{}, err
	}
	l.logger.Debug("table loaded", "table", "travels", "path", l.travelsPath, "rows", travels.Nrow())

	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}
	measurements, err := LoadMeasurements(l.measurementsPath)
	if err != nil {
		return domain.Dataset{}, err
	}
	l.logger.Debug("table loaded", "table", "measurements", "path", l.measurementsPath, "rows", measurements.Nrow())

	return domain.Dataset{Travels: travels, Measurements: measurements}, nil
}

// LoadTravels reads a travel file. The id becomes an int column, station,
// coordinates and bottom depth numeric columns, and the date is rewritten in
// domain.TimestampLayout.
func LoadTravels(path string) (dataframe.DataFrame, error) {
	df, err := readTable(path, domain.TravelColumns)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	cols := []series.Series{}
	id, err := intColumn(df, path, domain.ColID)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	cols = append(cols, id)

	for _, name := range []string{domain.ColStation, domain.ColLongitude, domain.ColLatitude, domain.ColBottomDepth} {
		values, err := floatValues(df, path, name)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		cols = append(cols, domain.NumericSeries(name, values))
	}

	date, err := timestampColumn(df, path, domain.ColDate)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	cols = append(cols, date)

	return mutate(df, path, cols)
}

// LoadMeasurements reads a measurement file. The id becomes an int column and
// depth and value float columns.
func LoadMeasurements(path string) (dataframe.DataFrame, error) {
	df, err := readTable(path, domain.MeasurementColumns)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	id, err := intColumn(df, path, domain.ColID)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	cols := []series.Series{id}

	for _, name := range []string{domain.ColDepth, domain.ColValue} {
		values, err := floatValues(df, path, name)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		cols = append(cols, series.New(values, series.Float, name))
	}

	return mutate(df, path, cols)
}

// readTable loads every column as a string and checks that the required
// columns are present.
func readTable(path string, required []string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, &domain.ParseError{Path: path, Err: err}
	}
	defer f.Close()

	df := dataframe.ReadCSV(f,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, &domain.ParseError{Path: path, Err: df.Err}
	}

	present := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		present[name] = true
	}
	for _, name := range required {
		if !present[name] {
			return dataframe.DataFrame{}, &domain.ParseError{Path: path, Column: name, Err: domain.ErrMissingColumn}
		}
	}
	return df, nil
}

func intColumn(df dataframe.DataFrame, path, name string) (series.Series, error) {
	col := df.Col(name)
	ids := make([]int, col.Len())
	for i := range ids {
		e := col.Elem(i)
		if e.IsNA() {
			return series.Series{}, cellError(path, name, i, "", domain.ErrMissingValue)
		}
		raw := strings.TrimSpace(e.String())
		if n, err := strconv.Atoi(raw); err == nil {
			ids[i] = n
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return series.Series{}, cellError(path, name, i, raw, err)
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return series.Series{}, cellError(path, name, i, raw, errors.New("not an integer"))
		}
		ids[i] = int(f)
	}
	return series.New(ids, series.Int, name), nil
}

// floatValues parses a numeric column. Missing cells become NaN; infinities
// are rejected.
func floatValues(df dataframe.DataFrame, path, name string) ([]float64, error) {
	col := df.Col(name)
	out := make([]float64, col.Len())
	for i := range out {
		e := col.Elem(i)
		if e.IsNA() {
			out[i] = math.NaN()
			continue
		}
		raw := strings.TrimSpace(e.String())
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, cellError(path, name, i, raw, err)
		}
		if math.IsInf(f, 0) {
			return nil, cellError(path, name, i, raw, domain.ErrNotFinite)
		}
		out[i] = f
	}
	return out, nil
}

func timestampColumn(df dataframe.DataFrame, path, name string) (series.Series, error) {
	col := df.Col(name)
	out := make([]string, col.Len())
	for i := range out {
		e := col.Elem(i)
		if e.IsNA() {
			out[i] = "NaN"
			continue
		}
		t, err := domain.ParseTimestamp(e.String())
		if err != nil {
			return series.Series{}, cellError(path, name, i, e.String(), err)
		}
		out[i] = domain.FormatTimestamp(t)
	}
	return series.New(out, series.String, name), nil
}

// mutate replaces the coerced columns in place, keeping the file's column order.
func mutate(df dataframe.DataFrame, path string, cols []series.Series) (dataframe.DataFrame, error) {
	for _, s := range cols {
		df = df.Mutate(s)
		if df.Err != nil {
			return dataframe.DataFrame{}, &domain.ParseError{Path: path, Column: s.Name, Err: df.Err}
		}
	}
	return df, nil
}

// cellError reports row i of the table as its line in the file.
func cellError(path, column string, i int, value string, err error) error {
	return &domain.ParseError{
		Path:   path,
		Column: column,
		Row:    i + 2,
		Value:  value,
		Err:    fmt.Errorf("coerce: %w", err),
	}
}
