package commands

import (
	"context"
	"log/slog"

	"github.com/dejobratic/dualwrite/internal/orders/metrics"
	"github.com/dejobratic/dualwrite/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCancelOrderHandler struct {
	handler CancelOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCancelOrderHandler(handler CancelOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCancelOrderHandler {
	return &ObservableCancelOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCancelOrderHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "CancelOrderCommand.Handle")
	defer func() { telemetry.EndSpan(span, err) }()

	telemetry.AddSpanAttributes(span,
		telemetry.OrderID(cmd.OrderID),
		attribute.String("cancel.reason", cmd.Reason),
	)

	err = o.handler.Handle(ctx, cmd)
	o.metrics.RecordOrderCancelled(ctx, err == nil)

	if err != nil {
		o.logger.WarnContext(ctx, "failed to cancel order",
			"error", err,
			"order_id", cmd.OrderID,
		)
		return err
	}

	o.logger.InfoContext(ctx, "order cancelled",
		"order_id", cmd.OrderID,
		"reason", cmd.Reason,
	)
	return nil
}
