package ports

import (
	"context"

	"github.com/dejobratic/dualwrite/internal/orders/domain"
)

// EventPublisher announces order lifecycle events to the broker.
// Its outcome is never coupled to a storage transaction.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event domain.OrderCreatedEvent) error
}
