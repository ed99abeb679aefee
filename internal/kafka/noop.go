package kafka

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// NoopWriter logs messages instead of sending them. Used when no brokers are configured.
type NoopWriter struct {
	logger *slog.Logger
}

func NewNoopWriter(logger *slog.Logger) *NoopWriter {
	return &NoopWriter{logger: logger}
}

func (n *NoopWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		n.logger.DebugContext(ctx, "kafka disabled, dropping message",
			"topic", msg.Topic,
			"key", string(msg.Key),
			"bytes", len(msg.Value),
		)
	}
	return nil
}

func (n *NoopWriter) Close() error {
	return nil
}
