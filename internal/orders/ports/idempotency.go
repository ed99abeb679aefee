package ports

import (
	"context"

	"github.com/google/uuid"
)

// StoredResponse is the creation response replayed when a client reuses an Idempotency-Key.
type StoredResponse struct {
	StatusCode int
	Body       []byte
	OrderID    uuid.UUID
}

// IdempotencyStore lets order creation be retried safely by clients.
// Get returns nil, nil when the key is unknown or expired. Save keeps the first response per key.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, response StoredResponse) error
}
