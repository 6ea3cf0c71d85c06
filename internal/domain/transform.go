package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Join inner-joins travels and measurements on ColID. Travel rows drive the
// output order and each is followed by its matching measurement rows;
// duplicate travel ids fan out and unmatched rows on either side are dropped.
// The id column comes first, then the other travel columns, then the other
// measurement columns, the same layout dataframe.InnerJoin produces.
// Measurement rows are indexed by id so the cost grows with the output
// rather than with travels times measurements.
func Join(travels, measurements dataframe.DataFrame) (dataframe.DataFrame, error) {
	if !hasColumn(travels, ColID) {
		return dataframe.DataFrame{}, missingColumn("join travels", ColID)
	}
	if !hasColumn(measurements, ColID) {
		return dataframe.DataFrame{}, missingColumn("join measurements", ColID)
	}

	byID := make(map[string][]int)
	mids := measurements.Col(ColID)
	for j := 0; j < mids.Len(); j++ {
		if e := mids.Elem(j); !e.IsNA() {
			byID[e.String()] = append(byID[e.String()], j)
		}
	}

	left, right := []int{}, []int{}
	tids := travels.Col(ColID)
	for i := 0; i < tids.Len(); i++ {
		e := tids.Elem(i)
		if e.IsNA() {
			continue
		}
		for _, j := range byID[e.String()] {
			left = append(left, i)
			right = append(right, j)
		}
	}

	cols := []series.Series{tids.Subset(left)}
	for _, name := range travels.Names() {
		if name != ColID {
			cols = append(cols, travels.Col(name).Subset(left))
		}
	}
	for _, name := range measurements.Names() {
		if name != ColID {
			cols = append(cols, measurements.Col(name).Subset(right))
		}
	}

	joined := dataframe.New(cols...)
	if joined.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("join on %s: %w", ColID, joined.Err)
	}
	return joined, nil
}

// StandardizeDates adds ColStandardizedDate: for every (cruise, station) pair
// the earliest timestamp among its rows, broadcast to every row of the pair.
// The earliest sample of a station visit is taken as the visit time.
//
// Both the raw and the canonical spellings of the date, cruise and station
// columns are recognized.
func StandardizeDates(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const stage = "standardize dates"

	dateCol, ok := findColumn(df, ColDate)
	if !ok {
		return dataframe.DataFrame{}, missingColumn(stage, ColDate)
	}
	cruiseCol, ok := findColumn(df, ColCruise)
	if !ok {
		return dataframe.DataFrame{}, missingColumn(stage, ColCruise)
	}
	stationCol, ok := findColumn(df, ColStation)
	if !ok {
		return dataframe.DataFrame{}, missingColumn(stage, ColStation)
	}

	times, err := timestamps(df.Col(dateCol))
	if err != nil {
		return dataframe.DataFrame{}, &ValidationError{Stage: stage, Column: dateCol, Err: err}
	}
	cruises := df.Col(cruiseCol).Records()
	stations := df.Col(stationCol).Records()

	type visit struct{ cruise, station string }
	earliest := make(map[visit]time.Time)
	for i, t := range times {
		if t.IsZero() {
			continue
		}
		k := visit{cruises[i], stations[i]}
		if cur, seen := earliest[k]; !seen || t.Before(cur) {
			earliest[k] = t
		}
	}

	out := make([]string, len(times))
	for i := range out {
		t, found := earliest[visit{cruises[i], stations[i]}]
		if !found {
			out[i] = missingCell
			continue
		}
		out[i] = FormatTimestamp(t)
	}

	res := df.Mutate(series.New(out, series.String, ColStandardizedDate))
	if res.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", stage, res.Err)
	}
	return res, nil
}

// StandardizeNames renames every column to Canonicalize(name). It fails if two
// columns would end up with the same label.
func StandardizeNames(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const stage = "standardize names"

	names := df.Names()
	owner := make(map[string]string, len(names))
	for _, name := range names {
		c := Canonicalize(name)
		if prev, dup := owner[c]; dup {
			return dataframe.DataFrame{}, &ValidationError{
				Stage:  stage,
				Column: name,
				Err:    fmt.Errorf("collides with %q on %q", prev, c),
			}
		}
		owner[c] = name
	}

	// A canonical label never equals a non-canonical one, so renaming in
	// place cannot collide with a column that has not been renamed yet.
	out := df
	for _, name := range names {
		c := Canonicalize(name)
		if c == name {
			continue
		}
		out = out.Rename(c, name)
		if out.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("%s: rename %q: %w", stage, name, out.Err)
		}
	}
	return out, nil
}

// StandardizeVariable canonicalizes every value of ColVariable. Missing cells
// stay missing. Tables without the column are returned unchanged.
func StandardizeVariable(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if !hasColumn(df, ColVariable) {
		return df, nil
	}

	col := df.Col(ColVariable)
	vals := make([]string, col.Len())
	for i := range vals {
		e := col.Elem(i)
		if e.IsNA() {
			vals[i] = missingCell
			continue
		}
		vals[i] = Canonicalize(e.String())
	}

	res := df.Mutate(series.New(vals, series.String, ColVariable))
	if res.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("standardize variable: %w", res.Err)
	}
	return res, nil
}

// Consolidate runs join, date, name and variable standardization in order.
func Consolidate(ds Dataset) (dataframe.DataFrame, error) {
	df, err := Join(ds.Travels, ds.Measurements)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if df, err = StandardizeDates(df); err != nil {
		return dataframe.DataFrame{}, err
	}
	if df, err = StandardizeNames(df); err != nil {
		return dataframe.DataFrame{}, err
	}
	return StandardizeVariable(df)
}

// NumericSeries builds an int column when every value is integral and a float
// column otherwise. NaN marks a missing value and forces a float column.
func NumericSeries(name string, values []float64) series.Series {
	integral := true
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			integral = false
			break
		}
	}
	if !integral {
		return series.New(values, series.Float, name)
	}

	ints := make([]int, len(values))
	for i, v := range values {
		ints[i] = int(v)
	}
	return series.New(ints, series.Int, name)
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// findColumn looks a column up by its raw label, then by its canonical label.
func findColumn(df dataframe.DataFrame, raw string) (string, bool) {
	if hasColumn(df, raw) {
		return raw, true
	}
	if c := Canonicalize(raw); hasColumn(df, c) {
		return c, true
	}
	return "", false
}
