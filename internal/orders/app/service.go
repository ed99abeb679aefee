package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dejobratic/dualwrite/internal/orders/app/commands"
	"github.com/dejobratic/dualwrite/internal/orders/app/queries"
	"github.com/dejobratic/dualwrite/internal/orders/chaos"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/metrics"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrChaosDisabled is returned by SimulatePhantomEvent outside demonstration mode.
var ErrChaosDisabled = errors.New("chaos mode is disabled")

// OrderStore is the storage surface the service needs.
type OrderStore interface {
	ports.OrderRepository
	ports.OrderLister
}

// Service bundles use cases for handling orders via the API and the consumer.
type Service struct {
	create    commands.CreateOrderHandler
	cancel    commands.CancelOrderHandler
	getOrder  *queries.GetOrderQueryHandler
	list      *queries.ListOrdersQueryHandler
	idemStore ports.IdempotencyStore
	simulator *chaos.PhantomEventSimulator
}

type serviceOptions struct {
	chaos bool
}

type Option func(*serviceOptions)

// WithChaosMode enables the phantom-event simulation. The regular creation path
// is built the same way with or without it.
func WithChaosMode(enabled bool) Option {
	return func(o *serviceOptions) {
		o.chaos = enabled
	}
}

// NewService wires required dependencies.
func NewService(
	store OrderStore,
	events ports.EventPublisher,
	tx ports.TxManager,
	idem ports.IdempotencyStore,
	factory *domain.Factory,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	opts ...Option,
) *Service {
	var o serviceOptions
	for _, opt := range opts {
		opt(&o)
	}

	create := commands.NewCreateOrderCommandHandler(store, events, tx, factory, logger,
		commands.WithLostEventRecorder(metrics))
	cancel := commands.NewCancelOrderCommandHandler(store, tx, factory)

	s := &Service{
		create:    commands.NewObservableCreateOrderHandler(create, logger, metrics),
		cancel:    commands.NewObservableCancelOrderHandler(cancel, logger, metrics),
		getOrder:  queries.NewGetOrderQueryHandler(store),
		list:      queries.NewListOrdersQueryHandler(store),
		idemStore: idem,
	}

	if o.chaos {
		s.simulator = chaos.NewPhantomEventSimulator(store, events, tx, factory, logger,
			chaos.WithPhantomEventRecorder(metrics))
	}

	return s
}

// CreateOrderInput captures payload for creating an order.
type CreateOrderInput struct {
	CustomerID uuid.UUID   `json:"customerId"`
	Items      []ItemInput `json:"items"`
}

type ItemInput struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (in CreateOrderInput) items() []commands.ItemInput {
	items := make([]commands.ItemInput, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, commands.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return items
}

// CreateOrder stores the order and announces it. A failed announcement is not reported.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (uuid.UUID, error) {
	return s.create.Handle(ctx, commands.CreateOrderCommand{
		CustomerID: input.CustomerID,
		Items:      input.items(),
	})
}

// CancelOrder moves an existing order to CANCELLED.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID, reason string) error {
	return s.cancel.Handle(ctx, commands.CancelOrderCommand{OrderID: id, Reason: reason})
}

// CancelHandler exposes the cancellation workflow to event consumers.
func (s *Service) CancelHandler() commands.CancelOrderHandler {
	return s.cancel
}

// GetOrder retrieves an order by ID.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns one page of orders.
func (s *Service) ListOrders(ctx context.Context, query queries.ListOrdersQuery) ([]domain.Order, error) {
	return s.list.Handle(ctx, query)
}

func (s *Service) ChaosEnabled() bool {
	return s.simulator != nil
}

// SimulatePhantomEvent runs one phantom-event simulation.
func (s *Service) SimulatePhantomEvent(ctx context.Context, input CreateOrderInput) (chaos.Report, error) {
	if s.simulator == nil {
		return chaos.Report{}, ErrChaosDisabled
	}
	return s.simulator.Simulate(ctx, input.CustomerID, input.items())
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
