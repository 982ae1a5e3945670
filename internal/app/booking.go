package app

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// BookingService orchestrates the booking use cases.
type BookingService struct {
	store     domain.BookingStore
	publisher domain.EventPublisher
	validator domain.TransitionValidator
	policy    domain.CancellationPolicy
	calendar  *CalendarSync
	now       func() time.Time
}

// BookingOption configures a BookingService.
type BookingOption func(*BookingService)

// WithCalendarSync enables the external availability check on Create.
func WithCalendarSync(c *CalendarSync) BookingOption {
	return func(s *BookingService) { s.calendar = c }
}

// WithClock overrides the clock used by the cancellation policy.
func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

// NewBookingService creates a service with the given adapters.
func NewBookingService(
	store domain.BookingStore,
	publisher domain.EventPublisher,
	validator domain.TransitionValidator,
	policy domain.CancellationPolicy,
	opts ...BookingOption,
) *BookingService {
	s := &BookingService{
		store:     store,
		publisher: publisher,
		validator: validator,
		policy:    policy,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create books resourceID from start to end for the acting tenant. Existing
// confirmed bookings are checked first; the external calendar, when
// configured, can only add a further veto.
func (s *BookingService) Create(ctx context.Context, resourceID domain.ResourceID, start, end time.Time) (*domain.Booking, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	// Bookings are kept at whole-second precision; validate what is stored.
	slot, err := domain.NewTimeRange(start.UTC().Truncate(time.Second), end.UTC().Truncate(time.Second))
	if err != nil {
		return nil, err
	}

	conflicting, err := s.store.FindConflicting(ctx, resourceID, slot)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	if len(conflicting) > 0 {
		return nil, &domain.ConflictError{ResourceID: resourceID, Range: slot}
	}

	if s.calendar != nil && !s.calendar.CheckAvailability(ctx, slot) {
		return nil, &domain.ConflictError{ResourceID: resourceID, Range: slot, External: true}
	}

	booking := domain.NewBooking(domain.BookingID(generateID()), tenantID, resourceID, slot)

	if err := s.store.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("saving booking: %w", err)
	}

	if err := s.publisher.PublishAll(ctx, booking.ReleaseEvents()); err != nil {
		return nil, fmt.Errorf("publishing booking events: %w", err)
	}

	// Handlers may have linked the booking to an external event.
	if stored, err := s.store.FindByID(ctx, booking.ID()); err == nil {
		booking = stored
	}
	return booking, nil
}

// Cancel cancels a booking of the acting tenant, subject to the lifecycle
// and the cancellation policy.
func (s *BookingService) Cancel(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.validator.Apply(ctx, booking.Status(), domain.ActionCancel); err != nil {
		return nil, err
	}

	if !s.policy.AllowsCancellation(booking.TimeSlot().Start(), s.now()) {
		return nil, &domain.CancellationNotAllowedError{MinimumLeadHours: s.policy.MinimumLeadHours()}
	}

	if err := booking.Cancel(); err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, booking); err != nil {
		return nil, fmt.Errorf("saving booking: %w", err)
	}

	if err := s.publisher.PublishAll(ctx, booking.ReleaseEvents()); err != nil {
		return nil, fmt.Errorf("publishing booking events: %w", err)
	}

	return booking, nil
}

// Get returns a booking of the acting tenant. A booking owned by another
// tenant is reported as not found.
func (s *BookingService) Get(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	booking, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.OwnedBy(tenantID) {
		return nil, domain.ErrBookingNotFound
	}
	return booking, nil
}

// List returns every booking of the acting tenant.
func (s *BookingService) List(ctx context.Context) ([]*domain.Booking, error) {
	if _, err := domain.TenantFromContext(ctx); err != nil {
		return nil, err
	}
	return s.store.FindAll(ctx)
}
