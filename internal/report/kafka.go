package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// publishTimeout bounds a single event write so a slow broker cannot stall the UI.
const publishTimeout = 2 * time.Second

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaReporter publishes failures as JSON events to a Kafka topic.
type KafkaReporter struct {
	writer messageWriter
	logger *slog.Logger
}

// event is the wire shape of a published failure.
type event struct {
	Op     string    `json:"op"`
	TaskID string    `json:"task_id,omitempty"`
	Error  string    `json:"error"`
	At     time.Time `json:"at"`
}

// NewKafkaReporter creates a reporter writing to topic on the given brokers.
func NewKafkaReporter(brokers []string, topic string, logger *slog.Logger) *KafkaReporter {
	return newKafkaReporter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}, logger)
}

func newKafkaReporter(w messageWriter, logger *slog.Logger) *KafkaReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaReporter{writer: w, logger: logger}
}

// Report publishes f. Publish errors are logged, never returned.
func (r *KafkaReporter) Report(ctx context.Context, f Failure) {
	ev := event{Op: f.Op, TaskID: f.TaskID, At: f.At.UTC()}
	if f.Err != nil {
		ev.Error = f.Err.Error()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		r.logger.Warn("failed to encode failure event", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(f.Op),
		Value: value,
		Time:  ev.At,
	}
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		r.logger.Warn("failed to write kafka message", slog.String("error", err.Error()))
	}
}

// Close flushes and closes the underlying writer.
func (r *KafkaReporter) Close() error {
	return r.writer.Close()
}
