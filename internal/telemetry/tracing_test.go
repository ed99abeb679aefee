package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func TestStartSpanNesting(t *testing.T) {
	exp := setupTracerProvider(t)

	ctx, parent := StartSpan(context.Background(), "CreateOrderCommand.Handle")
	_, child := StartSpan(ctx, "OrderRepository.Save")
	child.End()
	parent.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name != "OrderRepository.Save" || spans[1].Name != "CreateOrderCommand.Handle" {
		t.Errorf("unexpected span names %q, %q", spans[0].Name, spans[1].Name)
	}
	if spans[0].Parent.SpanID() != spans[1].SpanContext.SpanID() {
		t.Error("expected child span to reference its parent")
	}
	if TraceID(ctx) != spans[1].SpanContext.TraceID().String() {
		t.Error("expected TraceID to read the active span")
	}
}

func TestSpanHelpers(t *testing.T) {
	exp := setupTracerProvider(t)

	_, failed := StartSpan(context.Background(), "failed")
	AddSpanAttributes(failed, attribute.String("order.id", "abc"))
	AddSpanEvent(failed, "simulated_failure.raised")
	RecordSpanError(failed, errors.New("boom"))
	failed.End()

	_, ok := StartSpan(context.Background(), "ok")
	SetSpanSuccess(ok)
	ok.End()

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	f := spans[0]
	if f.Status.Code != codes.Error || f.Status.Description != "boom" {
		t.Errorf("expected error status, got %+v", f.Status)
	}
	if len(f.Attributes) != 1 || f.Attributes[0].Value.AsString() != "abc" {
		t.Errorf("expected order.id attribute, got %v", f.Attributes)
	}
	var sawEvent bool
	for _, e := range f.Events {
		if e.Name == "simulated_failure.raised" {
			sawEvent = true
		}
	}
	if !sawEvent {
		t.Error("expected simulated_failure.raised event")
	}

	if spans[1].Status.Code != codes.Ok {
		t.Errorf("expected ok status, got %v", spans[1].Status.Code)
	}
}

func TestSpanHelpersIgnoreNil(t *testing.T) {
	AddSpanAttributes(nil, attribute.String("k", "v"))
	AddSpanEvent(nil, "event")
	RecordSpanError(nil, errors.New("boom"))
	SetSpanSuccess(nil)
	EndSpan(nil, errors.New("boom"))

	if TraceID(context.Background()) != "" || SpanID(context.Background()) != "" {
		t.Error("expected empty ids without an active span")
	}
}

func TestEndSpan(t *testing.T) {
	exp := setupTracerProvider(t)
	orderID, eventID := uuid.New(), uuid.New()

	_, published := StartSpan(context.Background(), "EventPublisher.PublishOrderCreated")
	AddSpanAttributes(published, OrderID(orderID), EventID(eventID), Topic("order.created"))
	EndSpan(published, nil)

	_, lost := StartSpan(context.Background(), "EventPublisher.PublishOrderCreated")
	EndSpan(lost, errors.New("broker unavailable"))

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("expected ok status, got %v", spans[0].Status.Code)
	}
	if spans[1].Status.Code != codes.Error || spans[1].Status.Description != "broker unavailable" {
		t.Errorf("expected error status, got %+v", spans[1].Status)
	}

	want := map[attribute.Key]string{
		OrderIDKey: orderID.String(),
		EventIDKey: eventID.String(),
		TopicKey:   "order.created",
	}
	for _, kv := range spans[0].Attributes {
		if v, ok := want[kv.Key]; ok && kv.Value.AsString() != v {
			t.Errorf("attribute %s: expected %s, got %s", kv.Key, v, kv.Value.AsString())
		}
		delete(want, kv.Key)
	}
	if len(want) != 0 {
		t.Errorf("missing attributes %v", want)
	}
}
