package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// Compile-time check: BookingStore implements domain.BookingStore.
var _ domain.BookingStore = (*BookingStore)(nil)

// BookingStore implements domain.BookingStore using SQLite. Every query is
// scoped to the tenant carried in the context.
type BookingStore struct {
	db *sql.DB
}

const bookingColumns = `id, tenant_id, resource_id, starts_at, ends_at, status, external_event_id, created_at`

// Save inserts or updates a booking. The overlap triggers make the write
// fail with a *domain.ConflictError when another confirmed booking of the
// resource already holds part of the slot.
func (s *BookingStore) Save(ctx context.Context, b *domain.Booking) error {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	if !b.OwnedBy(tenantID) {
		return domain.ErrBookingNotFound
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     resource_id = excluded.resource_id,
		     starts_at = excluded.starts_at,
		     ends_at = excluded.ends_at,
		     status = excluded.status,
		     external_event_id = excluded.external_event_id
		 WHERE bookings.tenant_id = excluded.tenant_id`,
		string(b.ID()), string(b.TenantID()), string(b.ResourceID()),
		formatTime(b.TimeSlot().Start()), formatTime(b.TimeSlot().End()),
		string(b.Status()), nullString(b.ExternalEventID()),
		formatTime(b.CreatedAt()),
	)
	if err != nil {
		if isOverlapViolation(err) {
			return &domain.ConflictError{ResourceID: b.ResourceID(), Range: b.TimeSlot()}
		}
		return fmt.Errorf("saving booking: %w", err)
	}
	return nil
}

func (s *BookingStore) FindByID(ctx context.Context, id domain.BookingID) (*domain.Booking, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	b, err := scanBooking(s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND tenant_id = ?`,
		string(id), string(tenantID),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

// FindConflicting returns the confirmed bookings of resourceID whose slot
// overlaps r.
func (s *BookingStore) FindConflicting(ctx context.Context, resourceID domain.ResourceID, r domain.TimeRange) ([]*domain.Booking, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return s.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE tenant_id = ? AND resource_id = ? AND status = ?
		   AND starts_at < ? AND ends_at > ?
		 ORDER BY starts_at`,
		string(tenantID), string(resourceID), string(domain.StatusConfirmed),
		formatTime(r.End()), formatTime(r.Start()),
	)
}

// FindAll returns every booking of the tenant, earliest first.
func (s *BookingStore) FindAll(ctx context.Context) ([]*domain.Booking, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return s.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE tenant_id = ? ORDER BY starts_at, id`,
		string(tenantID),
	)
}

func (s *BookingStore) query(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var (
		id, tenantID, resourceID string
		startsAt, endsAt         string
		status, createdAt        string
		externalID               sql.NullString
	)

	err := row.Scan(&id, &tenantID, &resourceID, &startsAt, &endsAt, &status, &externalID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning booking: %w", err)
	}

	start, err := parseTime(startsAt)
	if err != nil {
		return nil, err
	}
	end, err := parseTime(endsAt)
	if err != nil {
		return nil, err
	}
	slot, err := domain.NewTimeRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", id, err)
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return domain.ReconstituteBooking(
		domain.BookingID(id),
		domain.TenantID(tenantID),
		domain.ResourceID(resourceID),
		slot,
		domain.Status(status),
		created,
		externalID.String,
	), nil
}
