package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent announces a newly created order. EventID is unique per emission.
type OrderCreatedEvent struct {
	EventID     uuid.UUID
	OrderID     uuid.UUID
	CustomerID  uuid.UUID
	TotalAmount decimal.Decimal
	Items       []EventItem
	OccurredAt  time.Time
}

// EventItem is the line item snapshot carried by OrderCreatedEvent.
type EventItem struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

func newOrderCreatedEvent(eventID uuid.UUID, order Order, occurredAt time.Time) OrderCreatedEvent {
	items := make([]EventItem, 0, len(order.items))
	for _, item := range order.items {
		items = append(items, EventItem{
			ProductID: item.productID,
			Quantity:  item.quantity,
			UnitPrice: item.unitPrice,
		})
	}

	return OrderCreatedEvent{
		EventID:     eventID,
		OrderID:     order.id,
		CustomerID:  order.customerID,
		TotalAmount: order.total,
		Items:       items,
		OccurredAt:  occurredAt,
	}
}
