package statemachine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName   = "github.com/dmitrymomot/userflow/pkg/statemachine"
	fireSpanName = "statemachine.fire"
)

// startFireSpan uses the global tracer provider. The caller ends the span with endFireSpan.
//
//nolint:spancheck // span ended by endFireSpan
func startFireSpan(ctx context.Context, machine string, event Event) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, fireSpanName)
	span.SetAttributes(
		attribute.String("machine", machine),
		attribute.String("event", event.Name()),
	)
	return ctx, span
}

func endFireSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func fromStateAttr(name string) attribute.KeyValue {
	return attribute.String("from", name)
}

func toStateAttr(name string) attribute.KeyValue {
	return attribute.String("to", name)
}
