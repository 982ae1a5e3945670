package app_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// --- Mocks ---

// memBookings stores reconstituted copies so tests observe only what was
// saved, never in-memory mutations of a returned aggregate.
type memBookings struct {
	mu       sync.Mutex
	rows     map[domain.BookingID]*domain.Booking
	saves    int
	saveErr  error
	queryErr error
}

func newMemBookings() *memBookings {
	return &memBookings{rows: make(map[domain.BookingID]*domain.Booking)}
}

func clone(b *domain.Booking) *domain.Booking {
	return domain.ReconstituteBooking(b.ID(), b.TenantID(), b.ResourceID(), b.TimeSlot(), b.Status(), b.CreatedAt(), b.ExternalEventID())
}

func (m *memBookings) Save(_ context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.rows[b.ID()] = clone(b)
	return nil
}

func (m *memBookings) FindByID(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tenant, err := domain.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, ok := m.rows[id]
	if !ok || !b.OwnedBy(tenant) {
		return nil, domain.ErrBookingNotFound
	}
	return clone(b), nil
}

func (m *memBookings) FindConflicting(ctx context.Context, resourceID domain.ResourceID, r domain.TimeRange) ([]*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	tenant, err := domain.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var out []*domain.Booking
	for _, b := range m.rows {
		if b.OwnedBy(tenant) && b.ResourceID() == resourceID &&
			b.Status() == domain.StatusConfirmed && b.TimeSlot().Overlaps(r) {
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func (m *memBookings) FindAll(ctx context.Context) ([]*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	tenant, err := domain.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var out []*domain.Booking
	for _, b := range m.rows {
		if b.OwnedBy(tenant) {
			out = append(out, clone(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (m *memBookings) get(id domain.BookingID) *domain.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func (m *memBookings) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memResources struct {
	rows map[domain.ResourceID]domain.Resource
}

func newMemResources(rs ...domain.Resource) *memResources {
	m := &memResources{rows: make(map[domain.ResourceID]domain.Resource)}
	for _, r := range rs {
		m.rows[r.ID] = r
	}
	return m
}

func (m *memResources) Save(_ context.Context, r domain.Resource) error {
	m.rows[r.ID] = r
	return nil
}

func (m *memResources) FindByID(_ context.Context, id domain.ResourceID) (domain.Resource, error) {
	r, ok := m.rows[id]
	if !ok {
		return domain.Resource{}, domain.ErrResourceNotFound
	}
	return r, nil
}

func (m *memResources) FindAll(_ context.Context) ([]domain.Resource, error) {
	out := make([]domain.Resource, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	return out, nil
}

type memUsers struct {
	rows map[domain.UserID]domain.User
	err  error
}

func newMemUsers(us ...domain.User) *memUsers {
	m := &memUsers{rows: make(map[domain.UserID]domain.User)}
	for _, u := range us {
		m.rows[u.ID] = u
	}
	return m
}

func (m *memUsers) Save(_ context.Context, u domain.User) error {
	m.rows[u.ID] = u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id domain.UserID) (domain.User, error) {
	if m.err != nil {
		return domain.User{}, m.err
	}
	u, ok := m.rows[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range m.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// fakeCalendar serves external events from a map. A missing id means the
// event was deleted upstream.
type fakeCalendar struct {
	events    map[string]domain.ExternalEvent
	getErr    map[string]error
	createErr error
	cancelErr error
	busy      bool
	busyErr   error

	nextID    int
	labels    []string
	cancelled []string
	gets      int
	checks    int
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		events: make(map[string]domain.ExternalEvent),
		getErr: make(map[string]error),
	}
}

func (f *fakeCalendar) CreateEvent(_ context.Context, b *domain.Booking, _ domain.CalendarCredentials, label string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("ext-%d", f.nextID)
	f.labels = append(f.labels, label)
	f.events[id] = domain.ExternalEvent{ID: id, Start: b.TimeSlot().Start(), End: b.TimeSlot().End()}
	return id, nil
}

func (f *fakeCalendar) CancelEvent(_ context.Context, externalID string, _ domain.CalendarCredentials) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, externalID)
	delete(f.events, externalID)
	return nil
}

func (f *fakeCalendar) IsAvailable(_ context.Context, _ domain.TimeRange, _ domain.CalendarCredentials) (bool, error) {
	f.checks++
	if f.busyErr != nil {
		return false, f.busyErr
	}
	return !f.busy, nil
}

func (f *fakeCalendar) GetEvent(_ context.Context, externalID string, _ domain.CalendarCredentials) (*domain.ExternalEvent, error) {
	f.gets++
	if err := f.getErr[externalID]; err != nil {
		return nil, err
	}
	e, ok := f.events[externalID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type recordingPublisher struct {
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) PublishAll(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *recordingPublisher) names() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

// tableValidator validates against the lifecycle table directly.
type tableValidator struct{}

func (tableValidator) Apply(_ context.Context, current domain.Status, action domain.Action) (domain.Status, error) {
	return domain.NextStatus(current, action)
}

var errBoom = errors.New("boom")
