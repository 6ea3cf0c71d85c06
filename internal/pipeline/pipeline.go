package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	"github.com/couchcryptid/cruise-data-etl/internal/observability"
	"github.com/go-gota/gota/dataframe"
)

// Extractor reads the travel and measurement tables from the source.
type Extractor interface {
	Extract(ctx context.Context) (domain.Dataset, error)
}

// Transformer consolidates the two tables into one standardized table.
type Transformer interface {
	Transform(ctx context.Context, ds domain.Dataset) (dataframe.DataFrame, error)
}

// ReportLoader writes a finished report to a destination.
type ReportLoader interface {
	LoadReport(ctx context.Context, report domain.Report) error
}

// Sink is a named ReportLoader. The name labels logs and metrics.
type Sink struct {
	Name   string
	Loader ReportLoader
}

// Pipeline orchestrates one extract-transform-aggregate-load run.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	sinks       []Sink
	logger      *slog.Logger
	metrics     *observability.Metrics
	report      atomic.Pointer[domain.Report]
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		sinks:       sinks,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a report has been built, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.report.Load() == nil {
		return errors.New("pipeline has not produced a report yet")
	}
	return nil
}

// Report returns the last report built, if any.
func (p *Pipeline) Report() (domain.Report, bool) {
	r := p.report.Load()
	if r == nil {
		return domain.Report{}, false
	}
	return *r, true
}

// Run executes the pipeline once. Any stage error aborts the run. Every sink
// is attempted; their errors are joined.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	p.logger.Info("pipeline started", "sinks", len(p.sinks))
	start := time.Now()

	report, err := p.run(ctx)
	if err != nil {
		p.metrics.PipelineRuns.WithLabelValues("error").Inc()
		return report, err
	}

	p.metrics.PipelineRuns.WithLabelValues("success").Inc()
	p.logger.Info("pipeline finished",
		"rows", report.Rows,
		"depth_averages", len(report.DepthAverages),
		"empty_bins", report.EmptyBins(),
		"duration", time.Since(start),
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context) (domain.Report, error) {
	var ds domain.Dataset
	err := p.stage("extract", func() (err error) {
		ds, err = p.extractor.Extract(ctx)
		return err
	})
	if err != nil {
		return domain.Report{}, err
	}
	p.metrics.RowsLoaded.WithLabelValues("travels").Add(float64(ds.Travels.Nrow()))
	p.metrics.RowsLoaded.WithLabelValues("measurements").Add(float64(ds.Measurements.Nrow()))

	var df dataframe.DataFrame
	err = p.stage("consolidate", func() (err error) {
		df, err = p.transformer.Transform(ctx, ds)
		return err
	})
	if err != nil {
		return domain.Report{}, err
	}
	p.metrics.RowsJoined.Set(float64(df.Nrow()))

	var report domain.Report
	err = p.stage("aggregate", func() (err error) {
		if err := ctx.Err(); err != nil {
			return err
		}
		report, err = domain.BuildReport(df)
		return err
	})
	if err != nil {
		return domain.Report{}, err
	}
	p.metrics.ReportRows.Set(float64(len(report.DepthAverages)))
	p.metrics.EmptyDepthBins.Set(float64(report.EmptyBins()))
	p.report.Store(&report)

	err = p.stage("load", func() error {
		return p.loadSinks(ctx, report)
	})
	return report, err
}

// stage times fn and wraps its error with the stage name.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		p.logger.Error("stage failed", "stage", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Debug("stage done", "stage", name, "duration", elapsed)
	return nil
}

func (p *Pipeline) loadSinks(ctx context.Context, report domain.Report) error {
	var errs []error
	for _, s := range p.sinks {
		if err := s.Loader.LoadReport(ctx, report); err != nil {
			p.metrics.SinkWrites.WithLabelValues(s.Name, "error").Inc()
			p.logger.Error("sink write failed", "sink", s.Name, "error", err)
			errs = append(errs, fmt.Errorf("sink %s: %w", s.Name, err))
			continue
		}
		p.metrics.SinkWrites.WithLabelValues(s.Name, "success").Inc()
		p.logger.Debug("sink written", "sink", s.Name)
	}
	return errors.Join(errs...)
}
