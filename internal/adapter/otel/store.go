package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/bookflow/internal/domain"
)

const tracerName = "github.com/neomorfeo/bookflow/internal/adapter/otel"

// TracingBookingStore wraps a domain.BookingStore with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingBookingStore struct {
	next   domain.BookingStore
	tracer trace.Tracer
}

// Compile-time check: TracingBookingStore implements domain.BookingStore.
var _ domain.BookingStore = (*TracingBookingStore)(nil)

// NewTracingBookingStore creates a tracing decorator around the given store.
func NewTracingBookingStore(next domain.BookingStore) *TracingBookingStore {
	return &TracingBookingStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracingBookingStore) Save(ctx context.Context, b *domain.Booking) error {
	ctx, span := s.tracer.Start(ctx, "BookingStore.Save",
		trace.WithAttributes(
			attribute.String("booking.id", string(b.ID())),
			attribute.String("booking.status", string(b.Status())),
			attribute.String("resource.id", string(b.ResourceID())),
		),
	)
	defer span.End()

	err := s.next.Save(ctx, b)
	recordError(span, err)
	return err
}

func (s *TracingBookingStore) FindByID(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "BookingStore.FindByID",
		trace.WithAttributes(attribute.String("booking.id", string(id))),
	)
	defer span.End()

	b, err := s.next.FindByID(ctx, id)
	recordError(span, err)
	return b, err
}

func (s *TracingBookingStore) FindConflicting(ctx context.Context, resourceID domain.ResourceID, r domain.TimeRange) ([]*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "BookingStore.FindConflicting",
		trace.WithAttributes(
			attribute.String("resource.id", string(resourceID)),
			attribute.Int64("range.minutes", r.DurationMinutes()),
		),
	)
	defer span.End()

	bookings, err := s.next.FindConflicting(ctx, resourceID, r)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(bookings)))
	}
	return bookings, err
}

func (s *TracingBookingStore) FindAll(ctx context.Context) ([]*domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "BookingStore.FindAll")
	defer span.End()

	bookings, err := s.next.FindAll(ctx)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(bookings)))
	}
	return bookings, err
}

// recordError marks span as failed when err is non-nil.
func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
