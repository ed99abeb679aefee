package kafka

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics covers both directions of the broker link: order.created publishes
// and order.cancelled consumption.
type Metrics struct {
	producerLatency  metric.Float64Histogram
	consumedMessages metric.Int64Counter
	fetchRetries     metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	producerLatency, err := meter.Float64Histogram(
		"kafka_producer_latency_seconds",
		metric.WithDescription("Time spent writing one event to the broker"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka_producer_latency_seconds histogram: %w", err)
	}

	consumedMessages, err := meter.Int64Counter(
		"kafka_consumer_messages_total",
		metric.WithDescription("Kafka messages consumed, by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka_consumer_messages_total counter: %w", err)
	}

	fetchRetries, err := meter.Int64Counter(
		"kafka_consumer_fetch_retries_total",
		metric.WithDescription("Failed fetches retried with backoff"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka_consumer_fetch_retries_total counter: %w", err)
	}

	return &Metrics{
		producerLatency:  producerLatency,
		consumedMessages: consumedMessages,
		fetchRetries:     fetchRetries,
	}, nil
}

func (m *Metrics) RecordPublish(ctx context.Context, topic string, durationSeconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.producerLatency.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("status", status),
	))
}

// RecordConsumed counts one consumed message. outcome is one of handled, dropped, malformed or failed.
func (m *Metrics) RecordConsumed(ctx context.Context, topic, outcome string) {
	m.consumedMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordFetchRetry(ctx context.Context, topic string) {
	m.fetchRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}
