package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderCommand struct {
	CustomerID uuid.UUID
	Items      []ItemInput
}

type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

func (c CreateOrderCommand) lineItems() ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(c.Items))
	for _, in := range c.Items {
		item, err := domain.NewOrderItem(in.ProductID, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (uuid.UUID, error)
}

// LostEventRecorder is notified when an order was stored but its event could not be published.
type LostEventRecorder interface {
	RecordLostEvent(ctx context.Context)
}

type CreateOrderCommandHandler struct {
	repo    ports.OrderRepository
	events  ports.EventPublisher
	tx      ports.TxManager
	factory *domain.Factory
	logger  *slog.Logger
	lost    LostEventRecorder
}

type CreateOrderOption func(*CreateOrderCommandHandler)

func WithLostEventRecorder(recorder LostEventRecorder) CreateOrderOption {
	return func(h *CreateOrderCommandHandler) {
		h.lost = recorder
	}
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	events ports.EventPublisher,
	tx ports.TxManager,
	factory *domain.Factory,
	logger *slog.Logger,
	opts ...CreateOrderOption,
) *CreateOrderCommandHandler {
	h := &CreateOrderCommandHandler{
		repo:    repo,
		events:  events,
		tx:      tx,
		factory: factory,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle builds the order, saves it in a storage-only transaction, then publishes
// order.created outside that transaction. A publish failure is logged and swallowed:
// the order stays stored and the caller still receives its identifier.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (uuid.UUID, error) {
	items, err := cmd.lineItems()
	if err != nil {
		return uuid.Nil, err
	}

	result, err := h.factory.Create(cmd.CustomerID, items)
	if err != nil {
		return uuid.Nil, err
	}

	err = h.tx.WithinTx(ctx, func(ctx context.Context) error {
		return h.repo.Save(ctx, result.Order)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("save order: %w", err)
	}

	if err := h.events.PublishOrderCreated(ctx, result.Event); err != nil {
		h.logger.ErrorContext(ctx, "order stored but order.created event was not published",
			"order_id", result.Order.ID(),
			"event_id", result.Event.EventID,
			"error", err,
		)
		if h.lost != nil {
			h.lost.RecordLostEvent(ctx)
		}
	}

	return result.Order.ID(), nil
}
