package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	idemmemory "github.com/dejobratic/dualwrite/internal/idempotency/memory"
	"github.com/dejobratic/dualwrite/internal/orders/adapters/memory"
	"github.com/dejobratic/dualwrite/internal/orders/app"
	"github.com/dejobratic/dualwrite/internal/orders/app/commands"
	"github.com/dejobratic/dualwrite/internal/orders/app/queries"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/metrics"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type countingPublisher struct {
	count int
	err   error
}

func (p *countingPublisher) PublishOrderCreated(context.Context, domain.OrderCreatedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.count++
	return nil
}

// tickingClock advances one second per reading so successive writes get distinct timestamps.
func tickingClock() domain.Clock {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newService(t *testing.T, publisher ports.EventPublisher, opts ...app.Option) (*app.Service, *memory.Repository) {
	t.Helper()
	m, err := metrics.NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	repo := memory.NewRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := app.NewService(repo, publisher, repo, idemmemory.NewStore(), domain.NewFactory(domain.WithClock(tickingClock())), logger, m, opts...)
	return svc, repo
}

func validInput() app.CreateOrderInput {
	return app.CreateOrderInput{
		CustomerID: uuid.New(),
		Items: []app.ItemInput{
			{ProductID: uuid.New(), Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}
}

func TestServiceOrderLifecycle(t *testing.T) {
	publisher := &countingPublisher{}
	svc, _ := newService(t, publisher)
	ctx := context.Background()

	orderID, err := svc.CreateOrder(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, 1, publisher.count)

	order, err := svc.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, order.Status())
	assert.True(t, order.Total().Equal(decimal.RequireFromString("20.00")))

	require.NoError(t, svc.CancelOrder(ctx, orderID, "customer request"))

	order, err = svc.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, order.Status())
	assert.True(t, order.UpdatedAt().After(order.CreatedAt()))

	err = svc.CancelHandler().Handle(ctx, commands.CancelOrderCommand{OrderID: orderID})
	assert.ErrorIs(t, err, domain.ErrDomainRule)

	listed, err := svc.ListOrders(ctx, queries.ListOrdersQuery{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestServiceCreateOrderSwallowsPublishFailure(t *testing.T) {
	svc, repo := newService(t, &countingPublisher{err: errors.New("broker down")})

	orderID, err := svc.CreateOrder(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, orderID)
	assert.Equal(t, 1, repo.Count())
}

func TestServiceChaosMode(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		svc, _ := newService(t, &countingPublisher{})
		assert.False(t, svc.ChaosEnabled())

		_, err := svc.SimulatePhantomEvent(context.Background(), validInput())
		assert.ErrorIs(t, err, app.ErrChaosDisabled)
	})

	t.Run("enabled", func(t *testing.T) {
		publisher := &countingPublisher{}
		svc, repo := newService(t, publisher, app.WithChaosMode(true))
		require.True(t, svc.ChaosEnabled())

		report, err := svc.SimulatePhantomEvent(context.Background(), validInput())
		require.NoError(t, err)
		assert.True(t, report.EventSentToKafka)
		assert.False(t, report.ExistsInDB)
		assert.Equal(t, 1, publisher.count)
		assert.Equal(t, 0, repo.Count())

		_, err = svc.GetOrder(context.Background(), report.OrderID)
		assert.ErrorIs(t, err, ports.ErrNotFound)
	})
}

func TestServiceIdempotentResponses(t *testing.T) {
	svc, _ := newService(t, &countingPublisher{})
	ctx := context.Background()

	stored, err := svc.GetIdempotentResponse(ctx, "key-1")
	require.NoError(t, err)
	assert.Nil(t, stored)

	require.NoError(t, svc.SaveIdempotentResponse(ctx, "key-1", ports.StoredResponse{StatusCode: 201, Body: []byte(`{}`)}))

	stored, err = svc.GetIdempotentResponse(ctx, "key-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 201, stored.StatusCode)
}
