package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// UserService manages tenant members and their calendar links.
type UserService struct {
	store domain.UserStore
}

// NewUserService creates a UserService backed by store.
func NewUserService(store domain.UserStore) *UserService {
	return &UserService{store: store}
}

// Register creates a user for the acting tenant. Emails are unique per
// tenant; registering an existing email returns the existing user.
func (s *UserService) Register(ctx context.Context, email, name string) (domain.User, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return domain.User{}, err
	}

	if existing, err := s.store.FindByEmail(ctx, email); err == nil {
		return existing, nil
	}

	user := domain.NewUser(domain.UserID(generateID()), tenantID, email, name)
	if err := s.store.Save(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("saving user: %w", err)
	}
	return user, nil
}

// Get returns a user of the acting tenant.
func (s *UserService) Get(ctx context.Context, id domain.UserID) (domain.User, error) {
	if _, err := domain.TenantFromContext(ctx); err != nil {
		return domain.User{}, err
	}
	return s.store.FindByID(ctx, id)
}

// LinkCalendar stores external calendar credentials on the acting user.
func (s *UserService) LinkCalendar(ctx context.Context, id domain.UserID, creds domain.CalendarCredentials) (domain.User, error) {
	user, err := s.self(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	user.Calendar = &creds
	if err := s.store.Save(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("saving calendar link: %w", err)
	}
	return user, nil
}

// UnlinkCalendar removes the acting user's calendar credentials. Bookings
// already linked keep their external ids but are skipped by reconciliation.
func (s *UserService) UnlinkCalendar(ctx context.Context, id domain.UserID) (domain.User, error) {
	user, err := s.self(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	user.Calendar = nil
	if err := s.store.Save(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("removing calendar link: %w", err)
	}
	return user, nil
}

// self loads id only when it is the acting user; any other id is not found.
func (s *UserService) self(ctx context.Context, id domain.UserID) (domain.User, error) {
	if _, err := domain.TenantFromContext(ctx); err != nil {
		return domain.User{}, err
	}
	acting, err := domain.UserFromContext(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if acting != id {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.store.FindByID(ctx, id)
}
