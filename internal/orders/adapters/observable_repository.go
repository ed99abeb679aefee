package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/dualwrite/internal/database"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/dejobratic/dualwrite/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OrderStore is the full storage surface decorated by ObservableRepository.
type OrderStore interface {
	ports.OrderRepository
	ports.OrderLister
}

// ObservableRepository wraps every storage call in a span and a query timing
// labelled with the operation name.
type ObservableRepository struct {
	repo    OrderStore
	metrics *database.Metrics
}

func NewObservableRepository(repo OrderStore, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) observe(
	ctx context.Context,
	method, operation string,
	attrs []attribute.KeyValue,
	fn func(ctx context.Context, span trace.Span) error,
) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository."+method)
	defer func() { telemetry.EndSpan(span, err) }()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("db.operation", operation))...)

	start := time.Now()
	err = fn(ctx, span)
	r.metrics.RecordQuery(ctx, operation, time.Since(start).Seconds(), err == nil)
	return err
}

func (r *ObservableRepository) Save(ctx context.Context, order domain.Order) error {
	attrs := []attribute.KeyValue{
		telemetry.OrderID(order.ID()),
		attribute.Int("order.item_count", len(order.Items())),
	}
	return r.observe(ctx, "Save", "save_order", attrs, func(ctx context.Context, _ trace.Span) error {
		return r.repo.Save(ctx, order)
	})
}

func (r *ObservableRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Order, bool, error) {
	var (
		order domain.Order
		found bool
	)
	err := r.observe(ctx, "FindByID", "find_order_by_id", []attribute.KeyValue{telemetry.OrderID(id)}, func(ctx context.Context, span trace.Span) error {
		var err error
		order, found, err = r.repo.FindByID(ctx, id)
		telemetry.AddSpanAttributes(span, attribute.Bool("order.found", found))
		return err
	})
	if err != nil {
		return domain.Order{}, false, err
	}
	return order, found, nil
}

func (r *ObservableRepository) Update(ctx context.Context, order domain.Order) error {
	attrs := []attribute.KeyValue{
		telemetry.OrderID(order.ID()),
		attribute.String("order.status", string(order.Status())),
	}
	return r.observe(ctx, "Update", "update_order", attrs, func(ctx context.Context, _ trace.Span) error {
		return r.repo.Update(ctx, order)
	})
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}

	var orders []domain.Order
	err := r.observe(ctx, "List", "list_orders", attrs, func(ctx context.Context, span trace.Span) error {
		var err error
		orders, err = r.repo.List(ctx, filter)
		telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}
