package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.EventPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.Event) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish",
		trace.WithAttributes(eventAttributes(event)...),
	)
	defer span.End()

	err := p.next.Publish(ctx, event)
	recordError(span, err)
	return err
}

// PublishAll publishes through the decorator so each event gets its own
// child span.
func (p *TracingPublisher) PublishAll(ctx context.Context, events []domain.Event) error {
	ctx, span := p.tracer.Start(ctx, "EventPublisher.PublishAll",
		trace.WithAttributes(attribute.Int("event.count", len(events))),
	)
	defer span.End()

	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			recordError(span, err)
			return err
		}
	}
	return nil
}

func eventAttributes(event domain.Event) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("event.type", event.EventName())}
	if be, ok := event.(domain.BookingEvent); ok {
		id, tenant := be.Booking()
		attrs = append(attrs,
			attribute.String("booking.id", string(id)),
			attribute.String("tenant.id", string(tenant)),
		)
	}
	return attrs
}
