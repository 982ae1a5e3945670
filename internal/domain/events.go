package domain

import "time"

// Event is an immutable record of something that happened to an aggregate.
type Event interface {
	EventName() string
}

// BookingEvent is the capability shared by every event raised by a Booking.
// Handlers subscribed to it receive all booking events.
type BookingEvent interface {
	Event
	Booking() (BookingID, TenantID)
}

// BookingCreated is raised when a new booking is created.
type BookingCreated struct {
	BookingID  BookingID
	TenantID   TenantID
	ResourceID ResourceID
	Start      time.Time
	End        time.Time
}

func (BookingCreated) EventName() string { return "booking.created" }

func (e BookingCreated) Booking() (BookingID, TenantID) { return e.BookingID, e.TenantID }

// BookingRescheduled is raised when a booking moves to a new time slot.
type BookingRescheduled struct {
	BookingID BookingID
	TenantID  TenantID
	Old       TimeRange
	New       TimeRange
}

func (BookingRescheduled) EventName() string { return "booking.rescheduled" }

func (e BookingRescheduled) Booking() (BookingID, TenantID) { return e.BookingID, e.TenantID }

// BookingCancelled is raised when a booking is cancelled.
type BookingCancelled struct {
	BookingID BookingID
	TenantID  TenantID
}

func (BookingCancelled) EventName() string { return "booking.cancelled" }

func (e BookingCancelled) Booking() (BookingID, TenantID) { return e.BookingID, e.TenantID }
