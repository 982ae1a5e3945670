package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// TracingCalendarClient wraps a domain.CalendarClient with OpenTelemetry
// tracing. Spans carry ids only, never credentials.
type TracingCalendarClient struct {
	next   domain.CalendarClient
	tracer trace.Tracer
}

// Compile-time check: TracingCalendarClient implements domain.CalendarClient.
var _ domain.CalendarClient = (*TracingCalendarClient)(nil)

// NewTracingCalendarClient creates a tracing decorator around the given client.
func NewTracingCalendarClient(next domain.CalendarClient) *TracingCalendarClient {
	return &TracingCalendarClient{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (c *TracingCalendarClient) CreateEvent(ctx context.Context, b *domain.Booking, creds domain.CalendarCredentials, label string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "CalendarClient.CreateEvent",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("booking.id", string(b.ID()))),
	)
	defer span.End()

	id, err := c.next.CreateEvent(ctx, b, creds, label)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.String("calendar.event_id", id))
	}
	return id, err
}

func (c *TracingCalendarClient) CancelEvent(ctx context.Context, externalID string, creds domain.CalendarCredentials) error {
	ctx, span := c.tracer.Start(ctx, "CalendarClient.CancelEvent",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("calendar.event_id", externalID)),
	)
	defer span.End()

	err := c.next.CancelEvent(ctx, externalID, creds)
	recordError(span, err)
	return err
}

func (c *TracingCalendarClient) IsAvailable(ctx context.Context, r domain.TimeRange, creds domain.CalendarCredentials) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "CalendarClient.IsAvailable",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	free, err := c.next.IsAvailable(ctx, r, creds)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Bool("calendar.available", free))
	}
	return free, err
}

func (c *TracingCalendarClient) GetEvent(ctx context.Context, externalID string, creds domain.CalendarCredentials) (*domain.ExternalEvent, error) {
	ctx, span := c.tracer.Start(ctx, "CalendarClient.GetEvent",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("calendar.event_id", externalID)),
	)
	defer span.End()

	event, err := c.next.GetEvent(ctx, externalID, creds)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Bool("calendar.event_found", event != nil))
	}
	return event, err
}
