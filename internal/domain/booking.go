package domain

import "time"

type (
	TenantID   string
	BookingID  string
	ResourceID string
	UserID     string
)

// Booking is the aggregate root for a reservation of a resource over a time
// slot. State changes go through its methods, which buffer domain events
// until ReleaseEvents is called.
type Booking struct {
	id              BookingID
	tenantID        TenantID
	resourceID      ResourceID
	timeSlot        TimeRange
	status          Status
	createdAt       time.Time
	externalEventID string

	events []Event
}

// NewBooking creates a confirmed booking and records a BookingCreated event.
func NewBooking(id BookingID, tenantID TenantID, resourceID ResourceID, slot TimeRange) *Booking {
	b := &Booking{
		id:         id,
		tenantID:   tenantID,
		resourceID: resourceID,
		timeSlot:   slot,
		status:     StatusConfirmed,
		createdAt:  time.Now().UTC(),
	}
	b.record(BookingCreated{
		BookingID:  id,
		TenantID:   tenantID,
		ResourceID: resourceID,
		Start:      slot.Start(),
		End:        slot.End(),
	})
	return b
}

// ReconstituteBooking rebuilds a booking from storage. It records no events,
// so loading a booking never re-triggers side effects.
func ReconstituteBooking(
	id BookingID,
	tenantID TenantID,
	resourceID ResourceID,
	slot TimeRange,
	status Status,
	createdAt time.Time,
	externalEventID string,
) *Booking {
	return &Booking{
		id:              id,
		tenantID:        tenantID,
		resourceID:      resourceID,
		timeSlot:        slot,
		status:          status,
		createdAt:       createdAt,
		externalEventID: externalEventID,
	}
}

func (b *Booking) ID() BookingID { return b.id }
func (b *Booking) TenantID() TenantID { return b.tenantID }
func (b *Booking) ResourceID() ResourceID { return b.resourceID }
func (b *Booking) TimeSlot() TimeRange { return b.timeSlot }
func (b *Booking) Status() Status { return b.status }
func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) ExternalEventID() string { return b.externalEventID }
func (b *Booking) IsCancelled() bool { return b.status == StatusCancelled }
func (b *Booking) IsLinked() bool { return b.externalEventID != "" }
func (b *Booking) OwnedBy(tenant TenantID) bool { return b.tenantID == tenant }

// Reschedule moves the booking to a new time slot.
func (b *Booking) Reschedule(slot TimeRange) error {
	next, err := NextStatus(b.status, ActionReschedule)
	if err != nil {
		return err
	}

	old := b.timeSlot
	b.timeSlot = slot
	b.status = next

	b.record(BookingRescheduled{
		BookingID: b.id,
		TenantID:  b.tenantID,
		Old:       old,
		New:       slot,
	})
	return nil
}

// Cancel moves the booking to the terminal cancelled state. Cancelling twice
// is an error, not a no-op.
func (b *Booking) Cancel() error {
	next, err := NextStatus(b.status, ActionCancel)
	if err != nil {
		return err
	}

	b.status = next

	b.record(BookingCancelled{
		BookingID: b.id,
		TenantID:  b.tenantID,
	})
	return nil
}

// Overlaps reports whether both bookings are active, on the same resource,
// and share any instant.
func (b *Booking) Overlaps(other *Booking) bool {
	if b.IsCancelled() || other.IsCancelled() {
		return false
	}
	if b.resourceID != other.resourceID {
		return false
	}
	return b.timeSlot.Overlaps(other.timeSlot)
}

// SetExternalEventID links the booking to an external calendar event.
// Linking is not a domain occurrence and records no event.
func (b *Booking) SetExternalEventID(id string) {
	b.externalEventID = id
}

// ReleaseEvents returns the buffered events and clears the buffer.
func (b *Booking) ReleaseEvents() []Event {
	events := b.events
	b.events = nil
	return events
}

// PendingEvents returns the number of buffered events.
func (b *Booking) PendingEvents() int {
	return len(b.events)
}

func (b *Booking) record(e Event) {
	b.events = append(b.events, e)
}
