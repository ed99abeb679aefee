package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/google/uuid"
)

// ErrDuplicateOrder mirrors a primary key violation.
var ErrDuplicateOrder = errors.New("order already exists")

// Repository provides an in-memory store useful for local development and tests.
// It also acts as its own ports.TxManager: writes made inside WithinTx stay private
// to the transaction until fn returns nil.
type Repository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]domain.Order
}

type txKey struct{}

type transaction struct {
	owner  *Repository
	writes map[uuid.UUID]domain.Order
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{orders: make(map[uuid.UUID]domain.Order)}
}

// WithinTx implements ports.TxManager.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := r.txFrom(ctx); ok {
		return fn(ctx)
	}

	tx := &transaction{owner: r, writes: make(map[uuid.UUID]domain.Order)}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, order := range tx.writes {
		r.orders[id] = order
	}
	return nil
}

func (r *Repository) txFrom(ctx context.Context) (*transaction, bool) {
	tx, ok := ctx.Value(txKey{}).(*transaction)
	if !ok || tx.owner != r {
		return nil, false
	}
	return tx, true
}

// Save stores a new order instance.
func (r *Repository) Save(ctx context.Context, order domain.Order) error {
	if _, exists, _ := r.FindByID(ctx, order.ID()); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, order.ID())
	}

	if tx, ok := r.txFrom(ctx); ok {
		tx.writes[order.ID()] = order
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID()] = order
	return nil
}

// FindByID fetches a single order, seeing uncommitted writes of the caller's transaction.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (domain.Order, bool, error) {
	if tx, ok := r.txFrom(ctx); ok {
		if order, found := tx.writes[id]; found {
			return order, true, nil
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	return order, ok, nil
}

// Update overwrites an existing order.
func (r *Repository) Update(ctx context.Context, order domain.Order) error {
	if _, exists, _ := r.FindByID(ctx, order.ID()); !exists {
		return ports.ErrNotFound
	}

	if tx, ok := r.txFrom(ctx); ok {
		tx.writes[order.ID()] = order
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID()] = order
	return nil
}

// List returns committed orders respecting the provided filter, newest first. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filter = filter.Normalize()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.Status != nil && order.Status() != *filter.Status {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt().After(result[j].CreatedAt())
	})

	start := filter.Offset()
	if start >= len(result) {
		return []domain.Order{}, nil
	}

	end := start + filter.PageSize
	if end > len(result) {
		end = len(result)
	}

	slice := make([]domain.Order, end-start)
	copy(slice, result[start:end])

	return slice, nil
}

// Count returns the number of committed orders.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}
