package domain

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// Column labels exactly as they appear in the source CSV exports, units and
// mixed case included.
const (
	ColDate        = "yyyy-mm-ddThh:mm:ss.sss"
	ColID          = "id"
	ColStation     = "Station"
	ColCruise      = "Cruise"
	ColLongitude   = "Longitude [degrees_east]"
	ColLatitude    = "Latitude [degrees_north]"
	ColBottomDepth = "Bot. Depth [m]"
	ColDepth       = "Depth [m]"
	ColVariable    = "variable"
	ColValue       = "valor"
)

// Columns derived by the pipeline. They are already canonical, so renaming
// leaves them untouched.
const (
	ColStandardizedDate = "standardized_date"
	ColHour             = "hour"
	ColDepthBucket      = "depth_bucket"
)

// TravelColumns and MeasurementColumns list the columns each input file must carry.
var (
	TravelColumns = []string{
		ColDate, ColID, ColStation, ColCruise, ColLongitude, ColLatitude, ColBottomDepth,
	}
	MeasurementColumns = []string{ColID, ColDepth, ColVariable, ColValue}
)

// ReportVariables are the canonical variable names averaged per depth bucket,
// in report order.
var ReportVariables = []string{
	"fluorescence__wet_labs_eco-afl_fl__mg_m_3_",
	"dissolved_oxygen__ml_l_",
	"temperature__deg_c_",
	"salinity__practical__psu_",
}

// DepthBucketWidth is the width of a depth bucket in metres.
const DepthBucketWidth = 10.0

// Dataset is the pair of tables read from the travel and measurement files.
type Dataset struct {
	Travels      dataframe.DataFrame
	Measurements dataframe.DataFrame
}

// DepthBucket is the half-open interval [Lower, Upper).
type DepthBucket struct {
	Lower float64 `json:"from"`
	Upper float64 `json:"to"`
}

// Label renders the bucket the way interval indexes print, e.g. "[0, 10)".
func (b DepthBucket) Label() string {
	return fmt.Sprintf("[%g, %g)", b.Lower, b.Upper)
}

// Contains reports whether depth falls inside the bucket.
func (b DepthBucket) Contains(depth float64) bool {
	return depth >= b.Lower && depth < b.Upper
}

// DepthAverage is one row of the per-depth report. Mean is nil when no
// sample of the variable fell into the cruise/bucket cell.
type DepthAverage struct {
	Variable string      `json:"variable"`
	Cruise   string      `json:"cruise"`
	Bucket   DepthBucket `json:"depth_bucket"`
	Mean     *float64    `json:"mean"`
	Samples  int         `json:"samples"`
}

// Report holds the three aggregates computed over the consolidated table.
type Report struct {
	Rows              int            `json:"rows"`
	MostSampledCruise string         `json:"most_sampled_cruise"`
	PeakSamplingHour  int            `json:"peak_sampling_hour"`
	DepthAverages     []DepthAverage `json:"depth_averages"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// EmptyBins counts depth averages without a mean.
func (r Report) EmptyBins() int {
	n := 0
	for i := range r.DepthAverages {
		if r.DepthAverages[i].Mean == nil {
			n++
		}
	}
	return n
}
