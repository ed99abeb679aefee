package queries

import (
	"context"

	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
)

// MaxPageSize bounds a single listing page.
const MaxPageSize = 100

type ListOrdersQuery struct {
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

type ListOrdersQueryHandler struct {
	lister ports.OrderLister
}

func NewListOrdersQueryHandler(lister ports.OrderLister) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{lister: lister}
}

// Handle returns one page of orders, newest first.
func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter := ports.ListFilter{
		Status:   query.Status,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	return h.lister.List(ctx, filter.Normalize())
}

func (q ListOrdersQuery) Validate() error {
	if q.Page < 0 {
		return domain.NewValidationError("page", "must not be negative")
	}
	if q.PageSize < 0 || q.PageSize > MaxPageSize {
		return domain.NewValidationError("page_size", "must be between 1 and 100")
	}
	return nil
}
