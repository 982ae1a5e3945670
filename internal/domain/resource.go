package domain

import "time"

// Resource is something a tenant can book: a room, a desk, a projector.
type Resource struct {
	ID          ResourceID
	TenantID    TenantID
	Name        string
	Description string
	CreatedAt   time.Time
}

// NewResource creates a resource owned by the given tenant.
func NewResource(id ResourceID, tenantID TenantID, name, description string) Resource {
	return Resource{
		ID:          id,
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
}
