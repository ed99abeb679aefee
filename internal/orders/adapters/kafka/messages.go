package kafka

import (
	"time"

	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicOrderCreated   = "order.created"
	TopicOrderCancelled = "order.cancelled"
)

type orderCreatedMessage struct {
	EventID     uuid.UUID          `json:"eventId"`
	OrderID     uuid.UUID          `json:"orderId"`
	CustomerID  uuid.UUID          `json:"customerId"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Items       []orderItemMessage `json:"items"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

type orderItemMessage struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func newOrderCreatedMessage(event domain.OrderCreatedEvent) orderCreatedMessage {
	items := make([]orderItemMessage, 0, len(event.Items))
	for _, item := range event.Items {
		items = append(items, orderItemMessage{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return orderCreatedMessage{
		EventID:     event.EventID,
		OrderID:     event.OrderID,
		CustomerID:  event.CustomerID,
		TotalAmount: event.TotalAmount,
		Items:       items,
		OccurredAt:  event.OccurredAt.UTC(),
	}
}

type orderCancelledMessage struct {
	EventID    uuid.UUID `json:"eventId"`
	OrderID    uuid.UUID `json:"orderId"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}
