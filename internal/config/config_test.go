package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/viajes_dd8a0ac9e2.csv", cfg.TravelsFile)
	assert.Equal(t, "data/mediciones_4be6910e87.csv", cfg.MeasurementsFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "cruise-depth-averages", cfg.KafkaSinkTopic)
	assert.Empty(t, cfg.ReportParquetPath)
	assert.Empty(t, cfg.ReportXLSXPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("TRAVELS_FILE", "data/mock/travels.csv")
	t.Setenv("MEASUREMENTS_FILE", "data/mock/measurements.csv")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("REPORT_PARQUET_PATH", "out/report.parquet")
	t.Setenv("REPORT_XLSX_PATH", "out/report.xlsx")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/mock/travels.csv", cfg.TravelsFile)
	assert.Equal(t, "data/mock/measurements.csv", cfg.MeasurementsFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "out/report.parquet", cfg.ReportParquetPath)
	assert.Equal(t, "out/report.xlsx", cfg.ReportXLSXPath)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "soon"}},
		{"unknown log format", map[string]string{"LOG_FORMAT": "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
