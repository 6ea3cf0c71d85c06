package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	TravelsFile      string
	MeasurementsFile string

	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Optional report sinks. Empty values disable them.
	KafkaBrokers      []string
	KafkaSinkTopic    string
	ReportParquetPath string
	ReportXLSXPath    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TravelsFile:       sharedcfg.EnvOrDefault("TRAVELS_FILE", "data/viajes_dd8a0ac9e2.csv"),
		MeasurementsFile:  sharedcfg.EnvOrDefault("MEASUREMENTS_FILE", "data/mediciones_4be6910e87.csv"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ""),
		ShutdownTimeout:   shutdownTimeout,
		KafkaBrokers:      nonEmpty(sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", ""))),
		KafkaSinkTopic:    sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "cruise-depth-averages"),
		ReportParquetPath: sharedcfg.EnvOrDefault("REPORT_PARQUET_PATH", ""),
		ReportXLSXPath:    sharedcfg.EnvOrDefault("REPORT_XLSX_PATH", ""),
	}

	if cfg.TravelsFile == "" || cfg.MeasurementsFile == "" {
		return nil, errors.New("TRAVELS_FILE and MEASUREMENTS_FILE are required")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", cfg.LogFormat)
	}
	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether the report is published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
