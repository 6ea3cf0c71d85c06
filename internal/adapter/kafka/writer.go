package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cruise-data-etl/internal/config"
	"github.com/couchcryptid/cruise-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Record types carried in the record_type header.
const (
	RecordSummary      = "summary"
	RecordDepthAverage = "depth_average"
)

// Summary is the payload of the summary message.
type Summary struct {
	Rows              int       `json:"rows"`
	MostSampledCruise string    `json:"most_sampled_cruise"`
	PeakSamplingHour  int       `json:"peak_sampling_hour"`
	DepthAverages     int       `json:"depth_averages"`
	EmptyBins         int       `json:"empty_bins"`
	GeneratedAt       time.Time `json:"generated_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes a report to a Kafka topic: one summary message followed
// by one message per depth average. It implements pipeline.ReportLoader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSinkTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadReport serializes the report and publishes it in a single
// WriteMessages call.
func (w *Writer) LoadReport(ctx context.Context, report domain.Report) error {
	msgs := make([]kafkago.Message, 0, len(report.DepthAverages)+1)

	msg, err := serializeSummary(report)
	if err != nil {
		return err
	}
	msgs = append(msgs, msg)

	for i := range report.DepthAverages {
		msg, err := serializeToMessage(report.DepthAverages[i], report.GeneratedAt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}
	w.logger.Debug("report published", "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// MessageKey identifies a depth average cell. Keys hash to partitions, so all
// updates of one cell stay ordered.
func MessageKey(a domain.DepthAverage) string {
	return a.Cruise + "|" + a.Variable + "|" + a.Bucket.Label()
}

func serializeSummary(report domain.Report) (kafkago.Message, error) {
	data, err := json.Marshal(Summary{
		Rows:              report.Rows,
		MostSampledCruise: report.MostSampledCruise,
		PeakSamplingHour:  report.PeakSamplingHour,
		DepthAverages:     len(report.DepthAverages),
		EmptyBins:         report.EmptyBins(),
		GeneratedAt:       report.GeneratedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report summary: %w", err)
	}
	return kafkago.Message{
		Key:     []byte(RecordSummary),
		Value:   data,
		Headers: headers(RecordSummary, report.GeneratedAt),
	}, nil
}

// serializeToMessage marshals a DepthAverage into a Kafka message.
func serializeToMessage(avg domain.DepthAverage, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(avg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize depth average: %w", err)
	}
	return kafkago.Message{
		Key:     []byte(MessageKey(avg)),
		Value:   data,
		Headers: headers(RecordDepthAverage, generatedAt),
	}, nil
}

func headers(recordType string, generatedAt time.Time) []kafkago.Header {
	return []kafkago.Header{
		{Key: "record_type", Value: []byte(recordType)},
		{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
	}
}
