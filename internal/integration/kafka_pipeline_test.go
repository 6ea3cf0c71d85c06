//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/cruise-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/cruise-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/cruise-data-etl/internal/config"
	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	"github.com/couchcryptid/cruise-data-etl/internal/observability"
	"github.com/couchcryptid/cruise-data-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSinkTopic    = "test-depth-averages"
	mockTravels      = "../../data/mock/travels.csv"
	mockMeasurements = "../../data/mock/measurements.csv"
)

// sinkMessage holds a message read back from the sink topic.
type sinkMessage struct {
	Key     string
	Value   []byte
	Headers map[string]string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("cruise-etl-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func readMessages(ctx context.Context, t *testing.T, broker string, n int) []sinkMessage {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testSinkTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer consumer.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]sinkMessage, 0, n)
	for len(out) < n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from sink topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		out = append(out, sinkMessage{Key: string(msg.Key), Value: msg.Value, Headers: headers})
	}
	return out
}

// TestPipelinePublishesReport runs the fixture through the whole pipeline with
// the Kafka writer as sink and reads the report back from the topic.
func TestPipelinePublishesReport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaSinkTopic: testSinkTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(
		csvfile.NewLoader(mockTravels, mockMeasurements, discardLogger()),
		pipeline.NewTransformer(discardLogger()),
		discardLogger(),
		observability.NewMetricsForTesting(),
		pipeline.Sink{Name: "kafka", Loader: writer},
	)

	report, err := p.Run(ctx)
	require.NoError(t, err)

	msgs := readMessages(ctx, t, broker, len(report.DepthAverages)+1)

	summary := msgs[0]
	assert.Equal(t, kafka.RecordSummary, summary.Key)
	assert.Equal(t, kafka.RecordSummary, summary.Headers["record_type"])
	var s kafka.Summary
	require.NoError(t, json.Unmarshal(summary.Value, &s))
	assert.Equal(t, 9, s.Rows)
	assert.Equal(t, "Crucero 2017", s.MostSampledCruise)
	assert.Equal(t, 20, s.PeakSamplingHour)
	assert.Equal(t, 24, s.DepthAverages)
	assert.Equal(t, 17, s.EmptyBins)

	byKey := make(map[string]domain.DepthAverage)
	for _, m := range msgs[1:] {
		assert.Equal(t, kafka.RecordDepthAverage, m.Headers["record_type"])
		assert.NotEmpty(t, m.Headers["generated_at"])
		var avg domain.DepthAverage
		require.NoError(t, json.Unmarshal(m.Value, &avg))
		byKey[m.Key] = avg
	}
	require.Len(t, byKey, 24)

	fluor := byKey["Crucero 2017|fluorescence__wet_labs_eco-afl_fl__mg_m_3_|[0, 10)"]
	require.NotNil(t, fluor.Mean)
	assert.InDelta(t, 0.7, *fluor.Mean, 1e-9)
	assert.Equal(t, 2, fluor.Samples)

	empty := byKey["Crucero 2018|salinity__practical__psu_|[10, 20)"]
	assert.Nil(t, empty.Mean)
}
