package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/quietpetrel/stratowatch/internal/domain"
)

// Writer publishes balloon snapshot records to a Kafka topic. It implements
// pipeline.SnapshotPublisher and is feature-flagged off by default.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSnapshot serializes each balloon record in the report and publishes
// them in a single WriteMessages call, keyed by balloon id.
func (w *Writer) PublishSnapshot(ctx context.Context, report domain.BalloonReport) error {
	if len(report.Balloons) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(report.Balloons))
	for i, b := range report.Balloons {
		msg, err := serializeToMessage(b, report)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a balloon record into a Kafka message, with
// run-level context carried in headers.
func serializeToMessage(b domain.BalloonRecord, report domain.BalloonReport) (kafkago.Message, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize balloon record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(b.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "fetched_at", Value: []byte(report.FetchedAt.Format(time.RFC3339))},
			{Key: "any_failed", Value: []byte(strconv.FormatBool(report.AnyFailed))},
		},
	}, nil
}
