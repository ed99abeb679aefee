package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus captures the lifecycle of an order. The only transition is CREATED → CANCELLED.
type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus converts a stored or user-supplied value into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	switch OrderStatus(value) {
	case StatusCreated, StatusCancelled:
		return OrderStatus(value), nil
	default:
		return "", fmt.Errorf("unknown order status %q", value)
	}
}

// Order is the aggregate root. It is immutable: transitions return a new value.
type Order struct {
	id         uuid.UUID
	customerID uuid.UUID
	status     OrderStatus
	items      []OrderItem
	total      decimal.Decimal
	createdAt  time.Time
	updatedAt  time.Time
}

// CreationResult pairs a freshly built order with the event announcing it.
type CreationResult struct {
	Order Order
	Event OrderCreatedEvent
}

// Clock returns the current instant.
type Clock func() time.Time

// IDGenerator returns a fresh unique identifier.
type IDGenerator func() uuid.UUID

// Factory builds orders. Its clock and ID generator are the only sources of non-determinism.
type Factory struct {
	now   Clock
	newID IDGenerator
}

type FactoryOption func(*Factory)

func WithClock(clock Clock) FactoryOption {
	return func(f *Factory) {
		f.now = clock
	}
}

func WithIDGenerator(gen IDGenerator) FactoryOption {
	return func(f *Factory) {
		f.newID = gen
	}
}

// NewFactory returns a Factory backed by the wall clock and random UUIDs unless overridden.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		now:   time.Now,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Now returns the factory's current instant in UTC.
func (f *Factory) Now() time.Time {
	return f.now().UTC()
}

// Create validates input and builds a CREATED order together with its OrderCreatedEvent.
func (f *Factory) Create(customerID uuid.UUID, items []OrderItem) (CreationResult, error) {
	if customerID == uuid.Nil {
		return CreationResult{}, NewValidationError("customerId", "is required")
	}
	if len(items) == 0 {
		return CreationResult{}, NewValidationError("items", "must not be empty")
	}
	for _, item := range items {
		if _, err := NewOrderItem(item.productID, item.quantity, item.unitPrice); err != nil {
			return CreationResult{}, NewValidationError("items", "contain an invalid line item")
		}
	}
	total := sumItems(items)
	if total.GreaterThanOrEqual(MaxAmount) {
		return CreationResult{}, NewValidationError("items", "total is too large")
	}

	now := f.Now()
	order := Order{
		id:         f.newID(),
		customerID: customerID,
		status:     StatusCreated,
		items:      copyItems(items),
		total:      total,
		createdAt:  now,
		updatedAt:  now,
	}

	return CreationResult{
		Order: order,
		Event: newOrderCreatedEvent(f.newID(), order, now),
	}, nil
}

// Cancel returns a CANCELLED copy of the order stamped with the given instant.
func (o Order) Cancel(at time.Time) (Order, error) {
	if o.status == StatusCancelled {
		return Order{}, &DomainRuleViolation{OrderID: o.id, Rule: ErrAlreadyCancelled}
	}

	cancelled := o
	cancelled.items = copyItems(o.items)
	cancelled.status = StatusCancelled
	cancelled.updatedAt = at.UTC()
	return cancelled, nil
}

// Reconstitute rebuilds an order from trusted storage. It skips business validation
// but rejects structurally incomplete data.
func Reconstitute(
	id uuid.UUID,
	customerID uuid.UUID,
	status OrderStatus,
	items []OrderItem,
	total decimal.Decimal,
	createdAt time.Time,
	updatedAt time.Time,
) (Order, error) {
	switch {
	case id == uuid.Nil:
		return Order{}, fmt.Errorf("%w: missing id", ErrCorruptOrder)
	case customerID == uuid.Nil:
		return Order{}, fmt.Errorf("%w: order %s missing customer id", ErrCorruptOrder, id)
	case status != StatusCreated && status != StatusCancelled:
		return Order{}, fmt.Errorf("%w: order %s has status %q", ErrCorruptOrder, id, status)
	case items == nil:
		return Order{}, fmt.Errorf("%w: order %s missing items", ErrCorruptOrder, id)
	case createdAt.IsZero() || updatedAt.IsZero():
		return Order{}, fmt.Errorf("%w: order %s missing timestamps", ErrCorruptOrder, id)
	}

	return Order{
		id:         id,
		customerID: customerID,
		status:     status,
		items:      copyItems(items),
		total:      total,
		createdAt:  createdAt.UTC(),
		updatedAt:  updatedAt.UTC(),
	}, nil
}

func (o Order) ID() uuid.UUID { return o.id }
func (o Order) CustomerID() uuid.UUID { return o.customerID }
func (o Order) Status() OrderStatus { return o.status }
func (o Order) Total() decimal.Decimal { return o.total }
func (o Order) CreatedAt() time.Time { return o.createdAt }
func (o Order) UpdatedAt() time.Time { return o.updatedAt }

// Items returns a copy of the line items.
func (o Order) Items() []OrderItem {
	return copyItems(o.items)
}

// IsCancelled reports whether the order reached its terminal state.
func (o Order) IsCancelled() bool {
	return o.status == StatusCancelled
}
