package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/google/uuid"
)

// OrderRepository exposes the persistence operations required by the workflows.
// Implementations resolve the active transaction, if any, from the context.
type OrderRepository interface {
	// Save stores a newly created order together with its line items.
	Save(ctx context.Context, order domain.Order) error
	// FindByID returns the order, or found=false when it does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (order domain.Order, found bool, err error)
	// Update overwrites an existing order. It returns ErrNotFound for unknown identifiers.
	Update(ctx context.Context, order domain.Order) error
}

// OrderLister serves read-side listing for the query surface.
type OrderLister interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
}

// ListFilter narrows list queries by status and pagination.
type ListFilter struct {
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

const DefaultPageSize = 20

// Normalize applies 1-based page defaults.
func (f ListFilter) Normalize() ListFilter {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	return f
}

// Offset returns the number of rows to skip for the filter's page.
func (f ListFilter) Offset() int {
	n := f.Normalize()
	return (n.Page - 1) * n.PageSize
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
)
