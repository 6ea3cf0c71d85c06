package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// MostSampledCruise returns the cruise with the most rows. Ties go to the
// cruise seen first.
func MostSampledCruise(df dataframe.DataFrame) (string, error) {
	col, ok := findColumn(df, ColCruise)
	if !ok {
		return "", missingColumn("most sampled cruise", ColCruise)
	}

	s := df.Col(col)
	cruises := make([]string, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		if e := s.Elem(i); !e.IsNA() {
			cruises = append(cruises, e.String())
		}
	}

	cruise, ok := mode(cruises)
	if !ok {
		return "", ErrEmptyTable
	}
	return cruise, nil
}

// AddHourColumn adds ColHour, the hour of day of ColStandardizedDate.
func AddHourColumn(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	const stage = "hour of day"

	if !hasColumn(df, ColStandardizedDate) {
		return dataframe.DataFrame{}, missingColumn(stage, ColStandardizedDate)
	}
	times, err := timestamps(df.Col(ColStandardizedDate))
	if err != nil {
		return dataframe.DataFrame{}, &ValidationError{Stage: stage, Column: ColStandardizedDate, Err: err}
	}

	hours := make([]float64, len(times))
	for i, t := range times {
		if t.IsZero() {
			hours[i] = math.NaN()
			continue
		}
		hours[i] = float64(t.Hour())
	}

	res := df.Mutate(NumericSeries(ColHour, hours))
	if res.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", stage, res.Err)
	}
	return res, nil
}

// PeakSamplingHour returns the hour of day (0-23) with the most rows, counted
// on the standardized date. Rows without a date are ignored; ties go to the
// hour seen first.
func PeakSamplingHour(df dataframe.DataFrame) (int, error) {
	withHour, err := AddHourColumn(df)
	if err != nil {
		return 0, err
	}

	raw := withHour.Col(ColHour).Float()
	hours := make([]int, 0, len(raw))
	for _, h := range raw {
		if !math.IsNaN(h) {
			hours = append(hours, int(h))
		}
	}

	hour, ok := mode(hours)
	if !ok {
		return 0, ErrEmptyTable
	}
	return hour, nil
}

// DepthBuckets returns consecutive DepthBucketWidth buckets starting at 0,
// up to and including the one that holds maxDepth. It returns nil when
// maxDepth is missing or negative.
func DepthBuckets(maxDepth float64) []DepthBucket {
	if math.IsNaN(maxDepth) || math.IsInf(maxDepth, 0) || maxDepth < 0 {
		return nil
	}
	n := int(maxDepth/DepthBucketWidth) + 1
	buckets := make([]DepthBucket, n)
	for i := range buckets {
		lo := float64(i) * DepthBucketWidth
		buckets[i] = DepthBucket{Lower: lo, Upper: lo + DepthBucketWidth}
	}
	return buckets
}

// AddDepthBucketColumn adds ColDepthBucket holding the label of the bucket each
// row's depth falls into, and returns the buckets in order. Rows with a
// missing, negative or infinite depth get a missing label.
func AddDepthBucketColumn(df dataframe.DataFrame) (dataframe.DataFrame, []DepthBucket, error) {
	const stage = "depth buckets"

	depthCol, ok := findColumn(df, ColDepth)
	if !ok {
		return dataframe.DataFrame{}, nil, missingColumn(stage, ColDepth)
	}

	depths := df.Col(depthCol).Float()
	maxDepth := math.NaN()
	for _, d := range depths {
		if !binnable(d) {
			continue
		}
		if math.IsNaN(maxDepth) || d > maxDepth {
			maxDepth = d
		}
	}
	buckets := DepthBuckets(maxDepth)

	labels := make([]string, len(depths))
	for i, d := range depths {
		if !binnable(d) {
			labels[i] = missingCell
			continue
		}
		labels[i] = buckets[int(d/DepthBucketWidth)].Label()
	}

	res := df.Mutate(series.New(labels, series.String, ColDepthBucket))
	if res.Err != nil {
		return dataframe.DataFrame{}, nil, fmt.Errorf("%s: %w", stage, res.Err)
	}
	return res, buckets, nil
}

func binnable(depth float64) bool {
	return !math.IsNaN(depth) && !math.IsInf(depth, 0) && depth >= 0
}

// DepthAverages computes, for each variable in order, the mean value per
// (cruise, depth bucket). Every cruise in the table is paired with every
// bucket, including cruises that never measured the variable; cells without
// samples keep a nil Mean. Cruises are sorted, buckets ascend.
func DepthAverages(df dataframe.DataFrame, variables []string) ([]DepthAverage, error) {
	const stage = "depth averages"

	cruiseCol, ok := findColumn(df, ColCruise)
	if !ok {
		return nil, missingColumn(stage, ColCruise)
	}
	for _, col := range []string{ColVariable, ColValue} {
		if !hasColumn(df, col) {
			return nil, missingColumn(stage, col)
		}
	}

	binned, buckets, err := AddDepthBucketColumn(df)
	if err != nil {
		return nil, err
	}
	cruises := distinctSorted(binned.Col(cruiseCol))

	out := make([]DepthAverage, 0, len(variables)*len(cruises)*len(buckets))
	for _, variable := range variables {
		cells, err := cellMeans(binned, cruiseCol, variable)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", stage, variable, err)
		}
		for _, cruise := range cruises {
			for _, b := range buckets {
				avg := DepthAverage{Variable: variable, Cruise: cruise, Bucket: b}
				if c, ok := cells[cell{cruise, b.Label()}]; ok && c.n > 0 {
					mean := c.sum / float64(c.n)
					avg.Mean = &mean
					avg.Samples = c.n
				}
				out = append(out, avg)
			}
		}
	}
	return out, nil
}

// BuildReport runs the three aggregates over a consolidated table.
func BuildReport(df dataframe.DataFrame) (Report, error) {
	cruise, err := MostSampledCruise(df)
	if err != nil {
		return Report{}, err
	}
	hour, err := PeakSamplingHour(df)
	if err != nil {
		return Report{}, err
	}
	averages, err := DepthAverages(df, ReportVariables)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Rows:              df.Nrow(),
		MostSampledCruise: cruise,
		PeakSamplingHour:  hour,
		DepthAverages:     averages,
		GeneratedAt:       clock.Now(),
	}, nil
}

type cell struct{ cruise, bucket string }

type accumulator struct {
	sum float64
	n   int
}

// cellMeans accumulates the non-missing values of one variable per cruise
// and bucket label. Rows without a cruise or a bucket are skipped.
func cellMeans(binned dataframe.DataFrame, cruiseCol, variable string) (map[cell]accumulator, error) {
	subset := binned.Filter(dataframe.F{
		Colname:    ColVariable,
		Comparator: series.Eq,
		Comparando: variable,
	})
	if subset.Err != nil {
		return nil, subset.Err
	}

	cells := make(map[cell]accumulator)
	cruises := subset.Col(cruiseCol)
	labels := subset.Col(ColDepthBucket)
	values := subset.Col(ColValue).Float()
	for i, v := range values {
		cruise, bucket := cruises.Elem(i), labels.Elem(i)
		if cruise.IsNA() || bucket.IsNA() || math.IsNaN(v) {
			continue
		}
		key := cell{cruise.String(), bucket.String()}
		acc := cells[key]
		acc.sum += v
		acc.n++
		cells[key] = acc
	}
	return cells, nil
}

// mode returns the most frequent value, preferring the first seen on ties.
func mode[T comparable](values []T) (T, bool) {
	var best T
	if len(values) == 0 {
		return best, false
	}

	counts := make(map[T]int)
	bestCount := 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if c := counts[v]; c > bestCount {
			best, bestCount = v, c
		}
	}
	return best, true
}

func distinctSorted(s series.Series) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		v := e.String()
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
