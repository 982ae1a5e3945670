package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// Compile-time check: UserStore implements domain.UserStore.
var _ domain.UserStore = (*UserStore)(nil)

// ErrEmailTaken is returned when another user of the tenant already uses
// the email address.
var ErrEmailTaken = errors.New("email already registered")

// UserStore implements domain.UserStore using SQLite.
type UserStore struct {
	db *sql.DB
}

const userColumns = `id, tenant_id, email, name, calendar_access_token, calendar_refresh_token, calendar_expiry, created_at`

func (s *UserStore) Save(ctx context.Context, u domain.User) error {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	if u.TenantID != tenantID {
		return domain.ErrUserNotFound
	}

	var access, refresh, expiry sql.NullString
	if u.Calendar != nil {
		access = nullString(u.Calendar.AccessToken)
		refresh = nullString(u.Calendar.RefreshToken)
		if !u.Calendar.Expiry.IsZero() {
			expiry = nullString(formatTime(u.Calendar.Expiry))
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     email = excluded.email,
		     name = excluded.name,
		     calendar_access_token = excluded.calendar_access_token,
		     calendar_refresh_token = excluded.calendar_refresh_token,
		     calendar_expiry = excluded.calendar_expiry
		 WHERE users.tenant_id = excluded.tenant_id`,
		string(u.ID), string(u.TenantID), u.Email, u.Name,
		access, refresh, expiry, formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("saving user %s: %w", u.Email, ErrEmailTaken)
		}
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	return s.findOne(ctx, `id = ?`, string(id))
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findOne(ctx, `email = ?`, email)
}

func (s *UserStore) findOne(ctx context.Context, where string, arg any) (domain.User, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return domain.User{}, err
	}

	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id = ? AND `+where,
		string(tenantID), arg,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, err
}

func scanUser(row scanner) (domain.User, error) {
	var (
		u                       domain.User
		id, tenantID, createdAt string
		access, refresh, expiry sql.NullString
	)

	err := row.Scan(&id, &tenantID, &u.Email, &u.Name, &access, &refresh, &expiry, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("scanning user: %w", err)
	}

	created, err := parseTime(createdAt)
	if err != nil {
		return domain.User{}, err
	}

	u.ID = domain.UserID(id)
	u.TenantID = domain.TenantID(tenantID)
	u.CreatedAt = created

	if access.Valid {
		creds := &domain.CalendarCredentials{
			AccessToken:  access.String,
			RefreshToken: refresh.String,
		}
		if expiry.Valid {
			if creds.Expiry, err = parseTime(expiry.String); err != nil {
				return domain.User{}, err
			}
		}
		u.Calendar = creds
	}
	return u, nil
}
