package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/dualwrite/internal/kafka"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/dejobratic/dualwrite/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableEventPublisher traces and times every publish attempt on the
// order.created topic.
type ObservableEventPublisher struct {
	publisher ports.EventPublisher
	metrics   *kafka.Metrics
	topic     string
}

func NewObservableEventPublisher(publisher ports.EventPublisher, metrics *kafka.Metrics, topic string) *ObservableEventPublisher {
	return &ObservableEventPublisher{
		publisher: publisher,
		metrics:   metrics,
		topic:     topic,
	}
}

func (e *ObservableEventPublisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "EventPublisher.PublishOrderCreated")
	defer func() { telemetry.EndSpan(span, err) }()

	telemetry.AddSpanAttributes(span,
		telemetry.OrderID(event.OrderID),
		telemetry.EventID(event.EventID),
		telemetry.Topic(e.topic),
		attribute.String("event.type", "OrderCreated"),
	)

	start := time.Now()
	err = e.publisher.PublishOrderCreated(ctx, event)
	e.metrics.RecordPublish(ctx, e.topic, time.Since(start).Seconds(), err == nil)
	return err
}
