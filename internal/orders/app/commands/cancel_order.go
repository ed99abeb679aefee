package commands

import (
	"context"
	"fmt"

	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/google/uuid"
)

type CancelOrderCommand struct {
	OrderID uuid.UUID
	Reason  string
}

type CancelOrderHandler interface {
	Handle(ctx context.Context, cmd CancelOrderCommand) error
}

type CancelOrderCommandHandler struct {
	repo    ports.OrderRepository
	tx      ports.TxManager
	factory *domain.Factory
}

func NewCancelOrderCommandHandler(
	repo ports.OrderRepository,
	tx ports.TxManager,
	factory *domain.Factory,
) *CancelOrderCommandHandler {
	return &CancelOrderCommandHandler{
		repo:    repo,
		tx:      tx,
		factory: factory,
	}
}

// Handle loads, cancels and rewrites the order in one storage transaction.
// No event is published for cancellation.
func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if cmd.OrderID == uuid.Nil {
		return domain.NewValidationError("orderId", "is required")
	}

	return h.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, found, err := h.repo.FindByID(ctx, cmd.OrderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if !found {
			return fmt.Errorf("%w: %s", ports.ErrNotFound, cmd.OrderID)
		}

		cancelled, err := order.Cancel(h.factory.Now())
		if err != nil {
			return err
		}

		if err := h.repo.Update(ctx, cancelled); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
}
