package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// ResourceService manages the bookable resources of a tenant.
type ResourceService struct {
	store domain.ResourceStore
}

// NewResourceService creates a ResourceService backed by store.
func NewResourceService(store domain.ResourceStore) *ResourceService {
	return &ResourceService{store: store}
}

// Create registers a resource for the acting tenant.
func (s *ResourceService) Create(ctx context.Context, name, description string) (domain.Resource, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return domain.Resource{}, err
	}

	resource := domain.NewResource(domain.ResourceID(generateID()), tenantID, name, description)
	if err := s.store.Save(ctx, resource); err != nil {
		return domain.Resource{}, fmt.Errorf("saving resource: %w", err)
	}
	return resource, nil
}

// Get returns a resource of the acting tenant.
func (s *ResourceService) Get(ctx context.Context, id domain.ResourceID) (domain.Resource, error) {
	if _, err := domain.TenantFromContext(ctx); err != nil {
		return domain.Resource{}, err
	}
	return s.store.FindByID(ctx, id)
}

// List returns every resource of the acting tenant.
func (s *ResourceService) List(ctx context.Context) ([]domain.Resource, error) {
	if _, err := domain.TenantFromContext(ctx); err != nil {
		return nil, err
	}
	return s.store.FindAll(ctx)
}
