package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	infrakafka "github.com/dejobratic/dualwrite/internal/kafka"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher writes order.created events keyed by order ID, so every event for
// one order lands on the same partition.
type Publisher struct {
	writer  infrakafka.MessageWriter
	timeout time.Duration
}

// NewPublisher bounds every publish by timeout. A zero timeout leaves the
// caller's context in charge.
func NewPublisher(writer infrakafka.MessageWriter, timeout time.Duration) *Publisher {
	return &Publisher{writer: writer, timeout: timeout}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	payload, err := json.Marshal(newOrderCreatedMessage(event))
	if err != nil {
		return fmt.Errorf("encode %s event: %w", TopicOrderCreated, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.OrderID.String()),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(TopicOrderCreated)},
			{Key: "event-id", Value: []byte(event.EventID.String())},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s event %s: %w", TopicOrderCreated, event.EventID, err)
	}

	return nil
}
