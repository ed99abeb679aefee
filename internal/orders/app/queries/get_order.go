package queries

import (
	"context"

	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/google/uuid"
)

// GetOrderQuery represents a request to retrieve an order by its ID.
type GetOrderQuery struct {
	OrderID uuid.UUID
}

// GetOrderQueryHandler executes GetOrderQuery and returns the order if found.
type GetOrderQueryHandler struct {
	repo ports.OrderRepository
}

func NewGetOrderQueryHandler(repo ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo}
}

// Handle returns ports.ErrNotFound when no order has the requested ID.
func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (domain.Order, error) {
	if err := query.Validate(); err != nil {
		return domain.Order{}, err
	}

	order, found, err := h.repo.FindByID(ctx, query.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !found {
		return domain.Order{}, ports.ErrNotFound
	}

	return order, nil
}

func (q GetOrderQuery) Validate() error {
	if q.OrderID == uuid.Nil {
		return domain.NewValidationError("orderId", "is required")
	}
	return nil
}
