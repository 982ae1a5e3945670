package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/bookflow/internal/domain"
)

const unknownResourceName = "Unknown Resource"

// CalendarSync keeps bookings and the acting user's external calendar in
// step. Every external call is best effort: when the acting user, the user
// record, or linked credentials cannot be resolved, the call is a no-op.
type CalendarSync struct {
	client    domain.CalendarClient
	users     domain.UserStore
	resources domain.ResourceStore
	bookings  domain.BookingStore
	observer  ReconcileObserver
	logger    *slog.Logger
}

// ReconcileObserver receives the outcome of every reconciliation sweep.
type ReconcileObserver interface {
	ObserveReconcile(ctx context.Context, report ReconcileReport)
}

// CalendarOption configures a CalendarSync.
type CalendarOption func(*CalendarSync)

// WithReconcileObserver reports sweep outcomes to o.
func WithReconcileObserver(o ReconcileObserver) CalendarOption {
	return func(c *CalendarSync) { c.observer = o }
}

// WithCalendarLogger overrides the default slog logger.
func WithCalendarLogger(l *slog.Logger) CalendarOption {
	return func(c *CalendarSync) { c.logger = l }
}

// NewCalendarSync creates a calendar sync service.
func NewCalendarSync(
	client domain.CalendarClient,
	users domain.UserStore,
	resources domain.ResourceStore,
	bookings domain.BookingStore,
	opts ...CalendarOption,
) *CalendarSync {
	c := &CalendarSync{
		client:    client,
		users:     users,
		resources: resources,
		bookings:  bookings,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// credentials resolves the acting user's calendar credentials. ok is false
// when there is nothing to talk to; err is set only for store failures.
func (c *CalendarSync) credentials(ctx context.Context) (creds domain.CalendarCredentials, ok bool, err error) {
	userID, err := domain.UserFromContext(ctx)
	if err != nil {
		return domain.CalendarCredentials{}, false, nil
	}

	user, err := c.users.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.CalendarCredentials{}, false, nil
	}
	if err != nil {
		return domain.CalendarCredentials{}, false, fmt.Errorf("loading user %s: %w", userID, err)
	}

	if !user.CalendarLinked() {
		return domain.CalendarCredentials{}, false, nil
	}
	return *user.Calendar, true, nil
}

// label names the external event after the booked resource.
func (c *CalendarSync) label(ctx context.Context, id domain.ResourceID) string {
	name := unknownResourceName
	if r, err := c.resources.FindByID(ctx, id); err == nil {
		name = r.Name
	}
	return "Booking: " + name
}

// SyncCreated pushes b to the acting user's calendar and records the
// returned external id on the booking.
func (c *CalendarSync) SyncCreated(ctx context.Context, b *domain.Booking) error {
	creds, ok, err := c.credentials(ctx)
	if err != nil || !ok {
		return err
	}

	externalID, err := c.client.CreateEvent(ctx, b, creds, c.label(ctx, b.ResourceID()))
	if err != nil {
		return fmt.Errorf("creating external event for booking %s: %w", b.ID(), err)
	}
	if externalID == "" {
		return nil
	}

	b.SetExternalEventID(externalID)
	if err := c.bookings.Save(ctx, b); err != nil {
		return fmt.Errorf("saving external link for booking %s: %w", b.ID(), err)
	}
	return nil
}

// SyncCancelled removes the external event linked to b, if any.
func (c *CalendarSync) SyncCancelled(ctx context.Context, b *domain.Booking) error {
	if !b.IsLinked() {
		return nil
	}

	creds, ok, err := c.credentials(ctx)
	if err != nil || !ok {
		return err
	}

	if err := c.client.CancelEvent(ctx, b.ExternalEventID(), creds); err != nil {
		return fmt.Errorf("cancelling external event %s: %w", b.ExternalEventID(), err)
	}
	return nil
}

// CheckAvailability reports whether the acting user's calendar is free over
// r. Any failure to resolve or reach the calendar counts as available.
func (c *CalendarSync) CheckAvailability(ctx context.Context, r domain.TimeRange) bool {
	creds, ok, err := c.credentials(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "availability check skipped", "error", err)
		return true
	}
	if !ok {
		return true
	}

	free, err := c.client.IsAvailable(ctx, r, creds)
	if err != nil {
		c.logger.WarnContext(ctx, "availability check failed", "error", err)
		return true
	}
	return free
}
