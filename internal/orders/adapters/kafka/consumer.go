package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	infrakafka "github.com/dejobratic/dualwrite/internal/kafka"
	"github.com/dejobratic/dualwrite/internal/orders/app/commands"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/dejobratic/dualwrite/internal/telemetry"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
)

const (
	outcomeHandled   = "handled"
	outcomeDropped   = "dropped"
	outcomeMalformed = "malformed"
	outcomeFailed    = "failed"
)

// CancellationConsumer applies order.cancelled events to stored orders.
// Every message is committed once, whatever the outcome; nothing is retried or dead-lettered.
type CancellationConsumer struct {
	reader     infrakafka.MessageReader
	handler    commands.CancelOrderHandler
	logger     *slog.Logger
	metrics    *infrakafka.Metrics
	topic      string
	newBackOff func() backoff.BackOff
}

type ConsumerOption func(*CancellationConsumer)

func WithConsumerMetrics(metrics *infrakafka.Metrics) ConsumerOption {
	return func(c *CancellationConsumer) {
		c.metrics = metrics
	}
}

func WithTopic(topic string) ConsumerOption {
	return func(c *CancellationConsumer) {
		c.topic = topic
	}
}

// WithBackOff replaces the policy used between failed fetches.
func WithBackOff(newBackOff func() backoff.BackOff) ConsumerOption {
	return func(c *CancellationConsumer) {
		c.newBackOff = newBackOff
	}
}

func NewCancellationConsumer(
	reader infrakafka.MessageReader,
	handler commands.CancelOrderHandler,
	logger *slog.Logger,
	opts ...ConsumerOption,
) *CancellationConsumer {
	c := &CancellationConsumer{
		reader:     reader,
		handler:    handler,
		logger:     logger,
		topic:      TopicOrderCancelled,
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Run consumes until ctx is cancelled. It returns nil on cancellation and an
// error only when committing offsets fails for a reason other than shutdown.
func (c *CancellationConsumer) Run(ctx context.Context) error {
	c.logger.InfoContext(ctx, "order cancellation consumer started", "topic", c.topic)
	defer c.logger.InfoContext(ctx, "order cancellation consumer stopped", "topic", c.topic)

	for {
		msg, err := c.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		outcome := c.handle(ctx, msg)
		if c.metrics != nil {
			c.metrics.RecordConsumed(ctx, c.topic, outcome)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *CancellationConsumer) fetch(ctx context.Context) (kafkago.Message, error) {
	var msg kafkago.Message
	operation := func() error {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		msg = m
		return nil
	}
	notify := func(err error, wait time.Duration) {
		if c.metrics != nil {
			c.metrics.RecordFetchRetry(ctx, c.topic)
		}
		c.logger.WarnContext(ctx, "kafka fetch failed, retrying",
			"topic", c.topic,
			"retry_in", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(c.newBackOff(), ctx), notify)
	return msg, err
}

func (c *CancellationConsumer) handle(ctx context.Context, msg kafkago.Message) string {
	ctx, span := telemetry.StartSpan(ctx, "OrderCancelledConsumer.Handle")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		telemetry.Topic(msg.Topic),
		attribute.Int("partition", msg.Partition),
		attribute.Int64("offset", msg.Offset),
	)

	var payload orderCancelledMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		telemetry.RecordSpanError(span, err)
		c.logger.ErrorContext(ctx, "dropping malformed order.cancelled message",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return outcomeMalformed
	}
	if payload.OrderID == uuid.Nil {
		c.logger.ErrorContext(ctx, "dropping order.cancelled message without orderId",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"event_id", payload.EventID,
		)
		return outcomeMalformed
	}

	telemetry.AddSpanAttributes(span,
		telemetry.OrderID(payload.OrderID),
		telemetry.EventID(payload.EventID),
	)

	err := c.handler.Handle(ctx, commands.CancelOrderCommand{
		OrderID: payload.OrderID,
		Reason:  payload.Reason,
	})
	switch {
	case err == nil:
		c.logger.InfoContext(ctx, "order cancelled from event",
			"order_id", payload.OrderID,
			"event_id", payload.EventID,
			"reason", payload.Reason,
		)
		telemetry.SetSpanSuccess(span)
		return outcomeHandled
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, domain.ErrDomainRule):
		c.logger.WarnContext(ctx, "dropping order.cancelled event",
			"order_id", payload.OrderID,
			"event_id", payload.EventID,
			"error", err,
		)
		telemetry.SetSpanSuccess(span)
		return outcomeDropped
	default:
		telemetry.RecordSpanError(span, err)
		c.logger.ErrorContext(ctx, "failed to apply order.cancelled event",
			"order_id", payload.OrderID,
			"event_id", payload.EventID,
			"error", err,
		)
		return outcomeFailed
	}
}
