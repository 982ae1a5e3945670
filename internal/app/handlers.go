package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/neomorfeo/bookflow/internal/domain"
)

const mailTimeLayout = "2006-01-02 15:04"

// Handlers reacts to booking events with calendar sync, notification mail,
// and audit logging. Every handler logs and swallows its own failures so a
// broken integration never aborts the use case that published the event.
type Handlers struct {
	calendar  *CalendarSync
	mailer    domain.Mailer
	bookings  domain.BookingStore
	users     domain.UserStore
	resources domain.ResourceStore
	logger    *slog.Logger
}

// NewHandlers creates the event handlers. calendar and mailer may be nil to
// disable the corresponding side effect.
func NewHandlers(
	calendar *CalendarSync,
	mailer domain.Mailer,
	bookings domain.BookingStore,
	users domain.UserStore,
	resources domain.ResourceStore,
	logger *slog.Logger,
) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		calendar:  calendar,
		mailer:    mailer,
		bookings:  bookings,
		users:     users,
		resources: resources,
		logger:    logger,
	}
}

// Register subscribes the handlers to bus.
func (h *Handlers) Register(bus *EventBus) {
	Subscribe(bus, h.Audit)

	if h.calendar != nil {
		Subscribe(bus, h.PushToCalendar)
		Subscribe(bus, h.RemoveFromCalendar)
	}

	if h.mailer != nil {
		Subscribe(bus, h.SendConfirmation)
		Subscribe(bus, h.SendRescheduleNotice)
		Subscribe(bus, h.SendCancellationNotice)
	}
}

// Audit logs every domain event.
func (h *Handlers) Audit(ctx context.Context, e domain.Event) error {
	attrs := []any{"event", e.EventName()}
	if be, ok := e.(domain.BookingEvent); ok {
		id, tenant := be.Booking()
		attrs = append(attrs, "booking_id", id, "tenant_id", tenant)
	}
	h.logger.InfoContext(ctx, "domain event", attrs...)
	return nil
}

// PushToCalendar creates the external event for a new booking.
func (h *Handlers) PushToCalendar(ctx context.Context, e domain.BookingCreated) error {
	b, err := h.bookings.FindByID(ctx, e.BookingID)
	if err != nil {
		h.logger.WarnContext(ctx, "calendar push skipped", "booking_id", e.BookingID, "error", err)
		return nil
	}
	if err := h.calendar.SyncCreated(ctx, b); err != nil {
		h.logger.WarnContext(ctx, "calendar push failed", "booking_id", e.BookingID, "error", err)
	}
	return nil
}

// RemoveFromCalendar deletes the external event of a cancelled booking.
func (h *Handlers) RemoveFromCalendar(ctx context.Context, e domain.BookingCancelled) error {
	b, err := h.bookings.FindByID(ctx, e.BookingID)
	if err != nil {
		h.logger.WarnContext(ctx, "calendar removal skipped", "booking_id", e.BookingID, "error", err)
		return nil
	}
	if err := h.calendar.SyncCancelled(ctx, b); err != nil {
		h.logger.WarnContext(ctx, "calendar removal failed", "booking_id", e.BookingID, "error", err)
	}
	return nil
}

// SendConfirmation mails the acting user when a booking is created.
func (h *Handlers) SendConfirmation(ctx context.Context, e domain.BookingCreated) error {
	name := h.resourceName(ctx, e.ResourceID)
	h.notify(ctx, e, func(user domain.User) (string, string) {
		return "Booking Confirmed: " + name, fmt.Sprintf(
			"Hi %s,\n\nYour booking for %s has been confirmed.\n\nStart: %s\nEnd: %s\n",
			user.Name, name,
			e.Start.UTC().Format(mailTimeLayout),
			e.End.UTC().Format(mailTimeLayout),
		)
	})
	return nil
}

// SendRescheduleNotice mails the acting user when a booking moves.
func (h *Handlers) SendRescheduleNotice(ctx context.Context, e domain.BookingRescheduled) error {
	h.notify(ctx, e, func(user domain.User) (string, string) {
		return "Booking Rescheduled", fmt.Sprintf(
			"Hi %s,\n\nYour booking %s has moved.\n\nWas: %s to %s\nNow: %s to %s\n",
			user.Name, e.BookingID,
			e.Old.Start().UTC().Format(mailTimeLayout), e.Old.End().UTC().Format(mailTimeLayout),
			e.New.Start().UTC().Format(mailTimeLayout), e.New.End().UTC().Format(mailTimeLayout),
		)
	})
	return nil
}

// SendCancellationNotice mails the acting user when a booking is cancelled.
func (h *Handlers) SendCancellationNotice(ctx context.Context, e domain.BookingCancelled) error {
	h.notify(ctx, e, func(user domain.User) (string, string) {
		return "Booking Cancelled", fmt.Sprintf(
			"Hi %s,\n\nYour booking %s has been cancelled.\n", user.Name, e.BookingID,
		)
	})
	return nil
}

// notify sends a mail to the acting user, if one is known.
func (h *Handlers) notify(ctx context.Context, e domain.Event, compose func(domain.User) (subject, body string)) {
	userID, err := domain.UserFromContext(ctx)
	if err != nil {
		return
	}
	user, err := h.users.FindByID(ctx, userID)
	if err != nil || strings.TrimSpace(user.Email) == "" {
		return
	}

	subject, body := compose(user)
	if err := h.mailer.Send(ctx, user.Email, subject, body); err != nil {
		h.logger.WarnContext(ctx, "sending mail failed",
			"event", e.EventName(),
			"to", user.Email,
			"error", err,
		)
	}
}

func (h *Handlers) resourceName(ctx context.Context, id domain.ResourceID) string {
	if r, err := h.resources.FindByID(ctx, id); err == nil {
		return r.Name
	}
	return unknownResourceName
}
