package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-gota/gota/series"
)

// TimestampLayout is the layout timestamps are stored in once loaded.
const TimestampLayout = "2006-01-02T15:04:05.000"

// missingCell is how the table library spells a missing cell.
const missingCell = "NaN"

// timestampLayouts are tried in order. Layouts with seconds also accept an
// optional fractional part.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses the export formats seen in the travel files. The wall
// clock is kept as written; no zone conversion is applied.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// timestamps parses every cell of a timestamp column. Missing cells yield
// the zero time.
func timestamps(s series.Series) ([]time.Time, error) {
	out := make([]time.Time, s.Len())
	for i := range out {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		t, err := ParseTimestamp(e.String())
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}
