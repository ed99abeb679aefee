package telemetry

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// discardSpanExporter drops finished spans. Used when no OTLP collector is configured,
// so spans still carry trace IDs into the logs without dialing a collector.
type discardSpanExporter struct{}

func (discardSpanExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }
func (discardSpanExporter) Shutdown(context.Context) error { return nil }

type discardMetricExporter struct{}

func (discardMetricExporter) Temporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (discardMetricExporter) Aggregation(sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.AggregationDefault{}
}

func (discardMetricExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }
func (discardMetricExporter) ForceFlush(context.Context) error { return nil }
func (discardMetricExporter) Shutdown(context.Context) error { return nil }

func NewDiscardTraceExporter() sdktrace.SpanExporter {
	return discardSpanExporter{}
}

func NewDiscardMetricExporter() sdkmetric.Exporter {
	return discardMetricExporter{}
}

// LocalExporters returns options that keep tracing in-process when endpoint is empty.
func LocalExporters(endpoint string) []Option {
	if endpoint != "" {
		return nil
	}
	return []Option{WithTraceExporter(NewDiscardTraceExporter())}
}
