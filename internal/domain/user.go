package domain

import "time"

// CalendarCredentials authorize calls to a user's external calendar.
type CalendarCredentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Expired reports whether the access token is past its expiry at now.
// A zero expiry never expires.
func (c CalendarCredentials) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// User is a member of a tenant who acts on bookings.
type User struct {
	ID        UserID
	TenantID  TenantID
	Email     string
	Name      string
	Calendar  *CalendarCredentials
	CreatedAt time.Time
}

// NewUser creates a user without a linked calendar.
func NewUser(id UserID, tenantID TenantID, email, name string) User {
	return User{
		ID:        id,
		TenantID:  tenantID,
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// CalendarLinked reports whether the user has external calendar credentials.
func (u User) CalendarLinked() bool {
	return u.Calendar != nil && u.Calendar.AccessToken != ""
}

// ExternalEvent is the externally held copy of a booking.
type ExternalEvent struct {
	ID    string
	Start time.Time
	End   time.Time
}
