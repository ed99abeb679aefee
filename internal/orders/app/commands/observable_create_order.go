package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/metrics"
	"github.com/dejobratic/dualwrite/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableCreateOrderHandler traces, times and logs order creation.
type ObservableCreateOrderHandler struct {
	handler CreateOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCreateOrderHandler(handler CreateOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCreateOrderHandler {
	return &ObservableCreateOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (orderID uuid.UUID, err error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	start := time.Now()
	defer func() {
		o.metrics.RecordOrderCreationDuration(ctx, time.Since(start).Seconds())
		o.metrics.RecordOrderCreated(ctx, err == nil)
		telemetry.EndSpan(span, err)
	}()

	telemetry.AddSpanAttributes(span,
		telemetry.CustomerID(cmd.CustomerID),
		attribute.Int("order.item_count", len(cmd.Items)),
	)

	orderID, err = o.handler.Handle(ctx, cmd)
	switch {
	case errors.Is(err, domain.ErrValidation):
		o.logger.WarnContext(ctx, "rejected order",
			"customer_id", cmd.CustomerID,
			"error", err,
		)
		return uuid.Nil, err
	case err != nil:
		o.logger.ErrorContext(ctx, "failed to create order",
			"customer_id", cmd.CustomerID,
			"error", err,
		)
		return uuid.Nil, err
	}

	telemetry.AddSpanAttributes(span, telemetry.OrderID(orderID))
	o.logger.InfoContext(ctx, "order created",
		"order_id", orderID,
		"customer_id", cmd.CustomerID,
		"item_count", len(cmd.Items),
	)
	return orderID, nil
}
