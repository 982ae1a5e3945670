package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/neomorfeo/bookflow/internal/app"
	"github.com/neomorfeo/bookflow/internal/domain"
)

const (
	tenantA domain.TenantID   = "tenant-a"
	tenantB domain.TenantID   = "tenant-b"
	userID  domain.UserID     = "user-1"
	roomA   domain.ResourceID = "room-a"
)

// now is the fixed clock of every service under test.
var now = time.Date(2030, 1, 14, 9, 0, 0, 0, time.UTC)

// at returns an instant on the day after now.
func at(hour, minute int) time.Time {
	return time.Date(2030, 1, 15, hour, minute, 0, 0, time.UTC)
}

func slot(startHour, startMin, endHour, endMin int) domain.TimeRange {
	return domain.MustTimeRange(at(startHour, startMin), at(endHour, endMin))
}

func tenantCtx() context.Context {
	return domain.WithUser(domain.WithTenant(context.Background(), tenantA), userID)
}

// actingAs returns a tenantA context acting as id.
func actingAs(id domain.UserID) context.Context {
	return domain.WithUser(domain.WithTenant(context.Background(), tenantA), id)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	bookings  *memBookings
	resources *memResources
	users     *memUsers
	calendar  *fakeCalendar
	mailer    *recordingMailer
	bus       *app.EventBus
	sync      *app.CalendarSync
	svc       *app.BookingService
}

// newFixture wires the services the way cmd/bookflow does, with in-memory
// adapters and a linked calendar for userID.
func newFixture(t *testing.T, leadHours int) *fixture {
	t.Helper()

	user := domain.NewUser(userID, tenantA, "ada@example.com", "Ada")
	user.Calendar = &domain.CalendarCredentials{AccessToken: "token"}

	f := &fixture{
		bookings:  newMemBookings(),
		resources: newMemResources(domain.NewResource(roomA, tenantA, "Room A", "")),
		users:     newMemUsers(user),
		calendar:  newFakeCalendar(),
		mailer:    &recordingMailer{},
		bus:       app.NewEventBus(),
	}

	f.sync = app.NewCalendarSync(f.calendar, f.users, f.resources, f.bookings,
		app.WithCalendarLogger(quietLogger()))

	app.NewHandlers(f.sync, f.mailer, f.bookings, f.users, f.resources, quietLogger()).Register(f.bus)

	policy, err := domain.NewCancellationPolicy(leadHours)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	f.svc = app.NewBookingService(f.bookings, f.bus, tableValidator{}, policy,
		app.WithCalendarSync(f.sync),
		app.WithClock(func() time.Time { return now }),
	)
	return f
}

// seed stores a booking directly, bypassing the use case and its events.
func (f *fixture) seed(t *testing.T, id domain.BookingID, r domain.TimeRange, externalID string) *domain.Booking {
	t.Helper()
	b := domain.ReconstituteBooking(id, tenantA, roomA, r, domain.StatusConfirmed, now, externalID)
	if err := f.bookings.Save(context.Background(), b); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return b
}
