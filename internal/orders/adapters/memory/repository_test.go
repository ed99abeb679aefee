package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/dualwrite/internal/orders/adapters/memory"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, createdAt time.Time) domain.Order {
	t.Helper()
	item, err := domain.NewOrderItem(uuid.New(), 1, decimal.RequireFromString("3.00"))
	require.NoError(t, err)

	factory := domain.NewFactory(domain.WithClock(func() time.Time { return createdAt }))
	result, err := factory.Create(uuid.New(), []domain.OrderItem{item})
	require.NoError(t, err)
	return result.Order
}

func TestRepositorySaveAndFind(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	order := newOrder(t, time.Now())

	require.NoError(t, repo.Save(ctx, order))

	found, ok, err := repo.FindByID(ctx, order.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, order.ID(), found.ID())
	assert.True(t, order.Total().Equal(found.Total()))

	_, ok, err = repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok, "unknown id must be reported as absent, not as an error")
}

func TestRepositorySaveDuplicate(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	order := newOrder(t, time.Now())

	require.NoError(t, repo.Save(ctx, order))
	err := repo.Save(ctx, order)
	assert.ErrorIs(t, err, memory.ErrDuplicateOrder)
}

func TestRepositoryUpdate(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	order := newOrder(t, time.Now())

	t.Run("unknown order", func(t *testing.T) {
		err := repo.Update(ctx, order)
		assert.ErrorIs(t, err, ports.ErrNotFound)
	})

	t.Run("overwrites stored order", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, order))
		cancelled, err := order.Cancel(time.Now().Add(time.Second))
		require.NoError(t, err)

		require.NoError(t, repo.Update(ctx, cancelled))

		found, ok, err := repo.FindByID(ctx, order.ID())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.StatusCancelled, found.Status())
	})
}

func TestRepositoryWithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when fn succeeds", func(t *testing.T) {
		repo := memory.NewRepository()
		order := newOrder(t, time.Now())

		err := repo.WithinTx(ctx, func(ctx context.Context) error {
			return repo.Save(ctx, order)
		})
		require.NoError(t, err)
		assert.Equal(t, 1, repo.Count())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		repo := memory.NewRepository()
		order := newOrder(t, time.Now())
		boom := errors.New("boom")

		err := repo.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, repo.Save(ctx, order))

			_, visible, _ := repo.FindByID(ctx, order.ID())
			assert.True(t, visible, "write must be visible inside its own transaction")

			_, leaked, _ := repo.FindByID(context.Background(), order.ID())
			assert.False(t, leaked, "uncommitted write must not be visible outside the transaction")
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, repo.Count())
	})

	t.Run("nested scope joins the outer transaction", func(t *testing.T) {
		repo := memory.NewRepository()
		order := newOrder(t, time.Now())
		boom := errors.New("outer failure")

		err := repo.WithinTx(ctx, func(ctx context.Context) error {
			innerErr := repo.WithinTx(ctx, func(ctx context.Context) error {
				return repo.Save(ctx, order)
			})
			require.NoError(t, innerErr)
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, repo.Count(), "inner commit must be undone by the outer rollback")
	})
}

func TestRepositoryList(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var orders []domain.Order
	for i := 0; i < 3; i++ {
		order := newOrder(t, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Save(ctx, order))
		orders = append(orders, order)
	}
	cancelled, err := orders[1].Cancel(base.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, cancelled))

	t.Run("list all orders", func(t *testing.T) {
		result, err := repo.List(ctx, ports.ListFilter{})
		require.NoError(t, err)
		require.Len(t, result, 3)
		assert.Equal(t, orders[2].ID(), result[0].ID(), "newest order first")
	})

	t.Run("filter by status", func(t *testing.T) {
		status := domain.StatusCancelled
		result, err := repo.List(ctx, ports.ListFilter{Status: &status})
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, orders[1].ID(), result[0].ID())
	})

	t.Run("pagination", func(t *testing.T) {
		result, err := repo.List(ctx, ports.ListFilter{Page: 2, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.Equal(t, orders[0].ID(), result[0].ID())

		result, err = repo.List(ctx, ports.ListFilter{Page: 5, PageSize: 2})
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}
