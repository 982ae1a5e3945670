package domain

import "context"

// BookingStore defines the persistence contract for bookings. Every method is
// scoped to the tenant carried in ctx.
type BookingStore interface {
	Save(ctx context.Context, booking *Booking) error
	FindByID(ctx context.Context, id BookingID) (*Booking, error)
	// FindConflicting returns confirmed bookings of the resource whose slot
	// overlaps r.
	FindConflicting(ctx context.Context, resourceID ResourceID, r TimeRange) ([]*Booking, error)
	FindAll(ctx context.Context) ([]*Booking, error)
}

// ResourceStore defines the persistence contract for resources.
type ResourceStore interface {
	Save(ctx context.Context, resource Resource) error
	FindByID(ctx context.Context, id ResourceID) (Resource, error)
	FindAll(ctx context.Context) ([]Resource, error)
}

// UserStore defines the persistence contract for users.
type UserStore interface {
	Save(ctx context.Context, user User) error
	FindByID(ctx context.Context, id UserID) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

// CalendarClient talks to a user's external calendar.
type CalendarClient interface {
	CreateEvent(ctx context.Context, booking *Booking, creds CalendarCredentials, label string) (string, error)
	CancelEvent(ctx context.Context, externalID string, creds CalendarCredentials) error
	IsAvailable(ctx context.Context, r TimeRange, creds CalendarCredentials) (bool, error)
	// GetEvent returns nil without error when the event was deleted or
	// cancelled upstream.
	GetEvent(ctx context.Context, externalID string, creds CalendarCredentials) (*ExternalEvent, error)
}

// Mailer delivers outbound mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EventPublisher delivers domain events to subscribed handlers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	PublishAll(ctx context.Context, events []Event) error
}

// TransitionValidator checks a lifecycle action against the current status
// and returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, action Action) (Status, error)
}
