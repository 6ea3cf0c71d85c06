// Command etl loads the travel and measurement files, consolidates them and
// prints the cruise report. Extra sinks and the HTTP endpoints are enabled
// through environment variables; see internal/config.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/cruise-data-etl/internal/adapter/console"
	"github.com/couchcryptid/cruise-data-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/cruise-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cruise-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/cruise-data-etl/internal/adapter/parquetfile"
	"github.com/couchcryptid/cruise-data-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/cruise-data-etl/internal/config"
	"github.com/couchcryptid/cruise-data-etl/internal/observability"
	"github.com/couchcryptid/cruise-data-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("etl failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	sinks := []pipeline.Sink{{Name: "console", Loader: console.NewWriter(os.Stdout)}}
	if cfg.ReportParquetPath != "" {
		sinks = append(sinks, pipeline.Sink{Name: "parquet", Loader: parquetfile.NewWriter(cfg.ReportParquetPath, logger)})
	}
	if cfg.ReportXLSXPath != "" {
		sinks = append(sinks, pipeline.Sink{Name: "xlsx", Loader: xlsx.NewWriter(cfg.ReportXLSXPath, logger)})
	}
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	}

	loader := csvfile.NewLoader(cfg.TravelsFile, cfg.MeasurementsFile, logger)
	p := pipeline.New(loader, pipeline.NewTransformer(logger), logger, metrics, sinks...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr == "" {
		_, err := p.Run(ctx)
		return err
	}

	// With HTTP enabled the report stays served until a signal arrives.
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	_, runErr := p.Run(ctx)
	if runErr == nil {
		<-ctx.Done()
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
