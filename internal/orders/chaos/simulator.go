// Package chaos reproduces the phantom-event failure of an unprotected dual write:
// the order.created event reaches the broker while the order row is rolled back.
package chaos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dejobratic/dualwrite/internal/orders/app/commands"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/dejobratic/dualwrite/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// SimulatedFailure is raised after a successful creation to force the enclosing
// transaction to roll back.
type SimulatedFailure struct {
	OrderID uuid.UUID
}

func (e *SimulatedFailure) Error() string {
	return fmt.Sprintf("simulated failure after publishing order %s", e.OrderID)
}

// Report describes the outcome of one simulation.
type Report struct {
	OrderID          uuid.UUID
	ExistsInDB       bool
	EventSentToKafka bool
	DBRolledBack     bool
	Explanation      string
}

// PhantomEventRecorder is notified when a simulation left an event without its order.
type PhantomEventRecorder interface {
	RecordPhantomEvent(ctx context.Context)
}

type PhantomEventSimulator struct {
	repo     ports.OrderRepository
	events   ports.EventPublisher
	tx       ports.TxManager
	factory  *domain.Factory
	logger   *slog.Logger
	recorder PhantomEventRecorder
}

type Option func(*PhantomEventSimulator)

func WithPhantomEventRecorder(recorder PhantomEventRecorder) Option {
	return func(s *PhantomEventSimulator) {
		s.recorder = recorder
	}
}

func NewPhantomEventSimulator(
	repo ports.OrderRepository,
	events ports.EventPublisher,
	tx ports.TxManager,
	factory *domain.Factory,
	logger *slog.Logger,
	opts ...Option,
) *PhantomEventSimulator {
	s := &PhantomEventSimulator{
		repo:    repo,
		events:  events,
		tx:      tx,
		factory: factory,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate runs the create workflow inside an outer transaction, then raises
// SimulatedFailure once the workflow has returned, so the write is undone after the
// event was already handed to the broker. Construction errors are returned unchanged.
func (s *PhantomEventSimulator) Simulate(ctx context.Context, customerID uuid.UUID, items []commands.ItemInput) (Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "PhantomEventSimulator.Simulate")
	defer span.End()

	tracker := &publishTracker{next: s.events}
	workflow := commands.NewCreateOrderCommandHandler(s.repo, tracker, s.tx, s.factory, s.logger)
	cmd := commands.CreateOrderCommand{CustomerID: customerID, Items: items}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		orderID, err := workflow.Handle(ctx, cmd)
		if err != nil {
			return err
		}
		s.logger.WarnContext(ctx, "raising simulated failure to roll back stored order",
			"order_id", orderID,
			"event_published", tracker.published.Load(),
		)
		return &SimulatedFailure{OrderID: orderID}
	})

	var failure *SimulatedFailure
	if !errors.As(err, &failure) {
		if err == nil {
			err = errors.New("simulated failure was not raised")
		}
		telemetry.RecordSpanError(span, err)
		return Report{}, err
	}

	telemetry.AddSpanEvent(span, "simulated_failure.raised",
		telemetry.OrderID(failure.OrderID),
	)

	_, exists, err := s.repo.FindByID(ctx, failure.OrderID)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return Report{}, fmt.Errorf("verify rollback of order %s: %w", failure.OrderID, err)
	}

	report := Report{
		OrderID:          failure.OrderID,
		ExistsInDB:       exists,
		EventSentToKafka: tracker.published.Load(),
		DBRolledBack:     !exists,
	}
	report.Explanation = explain(report)

	if report.EventSentToKafka && !report.ExistsInDB {
		if s.recorder != nil {
			s.recorder.RecordPhantomEvent(ctx)
		}
		s.logger.WarnContext(ctx, "phantom event produced",
			"order_id", report.OrderID,
		)
	}

	telemetry.AddSpanAttributes(span,
		telemetry.OrderID(report.OrderID),
		attribute.Bool("chaos.exists_in_db", report.ExistsInDB),
		attribute.Bool("chaos.event_sent", report.EventSentToKafka),
	)
	telemetry.SetSpanSuccess(span)

	return report, nil
}

func explain(r Report) string {
	switch {
	case r.EventSentToKafka && !r.ExistsInDB:
		return fmt.Sprintf("The order.created event for order %s was published to Kafka, "+
			"but the database transaction was rolled back afterwards. "+
			"Consumers now see an order that does not exist (phantom event).", r.OrderID)
	case !r.EventSentToKafka && !r.ExistsInDB:
		return fmt.Sprintf("Publishing the order.created event for order %s failed and the "+
			"database transaction was rolled back. Neither resource holds the order.", r.OrderID)
	default:
		return fmt.Sprintf("Order %s is still present in the database after the simulated failure.", r.OrderID)
	}
}

// publishTracker records whether the wrapped publisher accepted the event.
type publishTracker struct {
	next      ports.EventPublisher
	published atomic.Bool
}

func (p *publishTracker) PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error {
	if err := p.next.PublishOrderCreated(ctx, event); err != nil {
		return err
	}
	p.published.Store(true)
	return nil
}
