package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cruise_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RowsLoaded    *prometheus.CounterVec   // labels: table={travels,measurements}
	RowsJoined    prometheus.Gauge
	StageDuration *prometheus.HistogramVec // labels: stage={extract,consolidate,aggregate,load}
	PipelineRuns  *prometheus.CounterVec   // labels: outcome={success,error}

	// Report metrics.
	ReportRows     prometheus.Gauge
	EmptyDepthBins prometheus.Gauge
	SinkWrites     *prometheus.CounterVec // labels: sink, outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsJoined,
		m.StageDuration,
		m.PipelineRuns,
		m.ReportRows,
		m.EmptyDepthBins,
		m.SinkWrites,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Rows read from the input files by table.",
		}, []string{"table"}),
		RowsJoined: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_joined",
			Help:      "Rows in the consolidated table of the last run.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		ReportRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_rows",
			Help:      "Depth average rows in the last report.",
		}),
		EmptyDepthBins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "empty_depth_bins",
			Help:      "Depth average rows without samples in the last report.",
		}),
		SinkWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_writes_total",
			Help:      "Report writes by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
}
