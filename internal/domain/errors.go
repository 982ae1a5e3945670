package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for simple conditions without extra context.
var (
	// ErrBookingNotFound is returned both for missing bookings and for bookings
	// owned by another tenant.
	ErrBookingNotFound  = errors.New("booking not found")
	ErrResourceNotFound = errors.New("resource not found")
	ErrUserNotFound     = errors.New("user not found")

	ErrNoTenant          = errors.New("no tenant in context")
	ErrUnauthenticated   = errors.New("no authenticated user in context")
	ErrCalendarNotLinked = errors.New("external calendar not linked")

	// ErrExternalUnavailable wraps failures talking to an external
	// collaborator such as the calendar provider or the mail server.
	ErrExternalUnavailable = errors.New("external service unavailable")

	ErrInvalidPolicy = errors.New("minimum lead hours must be >= 0")
)

// InvalidRangeError is returned when a time range does not start strictly
// before it ends.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s must be before end %s",
		e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339))
}

// TransitionError is returned when a lifecycle action is not allowed from the
// booking's current status.
type TransitionError struct {
	Action  Action
	Current Status
}

func (e *TransitionError) Error() string {
	if e.Current == StatusCancelled {
		return fmt.Sprintf("cannot %s: booking is already cancelled", e.Action)
	}
	return fmt.Sprintf("action %q is not valid from state %q", e.Action, e.Current)
}

// ConflictError is returned when a proposed booking overlaps an existing
// confirmed booking, or when the external calendar reports the slot as busy.
type ConflictError struct {
	ResourceID ResourceID
	Range      TimeRange
	External   bool
}

func (e *ConflictError) Error() string {
	if e.External {
		return "time slot is marked busy externally"
	}
	return fmt.Sprintf("resource %s is already booked from %s to %s",
		e.ResourceID,
		e.Range.Start().UTC().Format("2006-01-02 15:04"),
		e.Range.End().UTC().Format("2006-01-02 15:04"),
	)
}

// CancellationNotAllowedError is returned when the cancellation policy vetoes
// a cancellation.
type CancellationNotAllowedError struct {
	MinimumLeadHours int
}

func (e *CancellationNotAllowedError) Error() string {
	return fmt.Sprintf("cancellation is not allowed: bookings must be cancelled at least %d hour(s) before the start time",
		e.MinimumLeadHours)
}
