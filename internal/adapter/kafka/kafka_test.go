package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/cruise-data-etl/internal/config"
	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testReport() domain.Report {
	mean := 14.5
	return domain.Report{
		Rows:              9,
		MostSampledCruise: "Crucero 2017",
		PeakSamplingHour:  20,
		DepthAverages: []domain.DepthAverage{
			{Variable: "temperature__deg_c_", Cruise: "Crucero 2017", Bucket: domain.DepthBucket{Lower: 0, Upper: 10}, Mean: &mean, Samples: 2},
			{Variable: "temperature__deg_c_", Cruise: "Crucero 2018", Bucket: domain.DepthBucket{Lower: 0, Upper: 10}},
		},
		GeneratedAt: generatedAt,
	}
}

func TestSerializeToMessage(t *testing.T) {
	avg := testReport().DepthAverages[0]

	msg, err := serializeToMessage(avg, generatedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("Crucero 2017|temperature__deg_c_|[0, 10)"), msg.Key)
	assert.JSONEq(t, `{
		"variable": "temperature__deg_c_",
		"cruise": "Crucero 2017",
		"depth_bucket": {"from": 0, "to": 10},
		"mean": 14.5,
		"samples": 2
	}`, string(msg.Value))
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "record_type", msg.Headers[0].Key)
	assert.Equal(t, []byte(RecordDepthAverage), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(generatedAt.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_MissingMean(t *testing.T) {
	msg, err := serializeToMessage(testReport().DepthAverages[1], generatedAt)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Value), `"mean":null`)
}

func TestWriter_LoadReport(t *testing.T) {
	fw := &fakeWriter{}
	w := &Writer{writer: fw, logger: slog.Default()}

	require.NoError(t, w.LoadReport(context.Background(), testReport()))
	require.Len(t, fw.msgs, 3)

	summary := fw.msgs[0]
	assert.Equal(t, []byte(RecordSummary), summary.Key)
	assert.Equal(t, []byte(RecordSummary), summary.Headers[0].Value)
	assert.JSONEq(t, `{
		"rows": 9,
		"most_sampled_cruise": "Crucero 2017",
		"peak_sampling_hour": 20,
		"depth_averages": 2,
		"empty_bins": 1,
		"generated_at": "2024-04-26T15:10:00Z"
	}`, string(summary.Value))

	assert.Equal(t, []byte("Crucero 2018|temperature__deg_c_|[0, 10)"), fw.msgs[2].Key)

	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}

func TestWriter_LoadReportError(t *testing.T) {
	boom := errors.New("leader not available")
	w := &Writer{writer: &fakeWriter{err: boom}, logger: slog.Default()}

	err := w.LoadReport(context.Background(), testReport())
	assert.ErrorIs(t, err, boom)
}

func TestNewWriter(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaSinkTopic: "cruise-depth-averages"}

	w := NewWriter(cfg, slog.Default())
	kw, ok := w.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, "cruise-depth-averages", kw.Topic)
	require.NoError(t, w.Close())
}
