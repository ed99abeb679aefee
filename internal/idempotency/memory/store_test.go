package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/dualwrite/internal/idempotency/memory"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown key", func(t *testing.T) {
		store := memory.NewStore()
		resp, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, resp)
	})

	t.Run("first response wins", func(t *testing.T) {
		store := memory.NewStore()
		a, b := uuid.New(), uuid.New()
		first := ports.StoredResponse{StatusCode: 201, Body: []byte(`{"orderId":"` + a.String() + `"}`), OrderID: a}
		second := ports.StoredResponse{StatusCode: 201, Body: []byte(`{"orderId":"` + b.String() + `"}`), OrderID: b}

		require.NoError(t, store.Save(ctx, "key", first))
		require.NoError(t, store.Save(ctx, "key", second))

		resp, err := store.Get(ctx, "key")
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, a, resp.OrderID)
		assert.Equal(t, first.Body, resp.Body)
	})

	t.Run("returned body is a copy", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.Save(ctx, "key", ports.StoredResponse{StatusCode: 201, Body: []byte("abc")}))

		resp, _ := store.Get(ctx, "key")
		resp.Body[0] = 'x'

		again, _ := store.Get(ctx, "key")
		assert.Equal(t, []byte("abc"), again.Body)
	})
}

func TestStoreTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore(memory.WithTTL(time.Hour), memory.WithClock(func() time.Time { return now }))

	first, second := uuid.New(), uuid.New()
	require.NoError(t, store.Save(ctx, "checkout", ports.StoredResponse{StatusCode: 201, OrderID: first}))

	now = now.Add(59 * time.Minute)
	resp, err := store.Get(ctx, "checkout")
	require.NoError(t, err)
	require.NotNil(t, resp, "entry is live before the ttl elapses")
	assert.Equal(t, first, resp.OrderID)

	now = now.Add(time.Minute)
	resp, err = store.Get(ctx, "checkout")
	require.NoError(t, err)
	assert.Nil(t, resp, "entry expires once the ttl elapses")

	require.NoError(t, store.Save(ctx, "checkout", ports.StoredResponse{StatusCode: 201, OrderID: second}))
	resp, err = store.Get(ctx, "checkout")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, second, resp.OrderID, "expired entry is replaced")
}
