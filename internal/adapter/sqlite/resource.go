package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// Compile-time check: ResourceStore implements domain.ResourceStore.
var _ domain.ResourceStore = (*ResourceStore)(nil)

// ResourceStore implements domain.ResourceStore using SQLite.
type ResourceStore struct {
	db *sql.DB
}

func (s *ResourceStore) Save(ctx context.Context, r domain.Resource) error {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return err
	}
	if r.TenantID != tenantID {
		return domain.ErrResourceNotFound
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resources (id, tenant_id, name, description, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     description = excluded.description
		 WHERE resources.tenant_id = excluded.tenant_id`,
		string(r.ID), string(r.TenantID), r.Name, r.Description, formatTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving resource: %w", err)
	}
	return nil
}

func (s *ResourceStore) FindByID(ctx context.Context, id domain.ResourceID) (domain.Resource, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return domain.Resource{}, err
	}

	r, err := scanResource(s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, description, created_at
		 FROM resources WHERE id = ? AND tenant_id = ?`,
		string(id), string(tenantID),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Resource{}, domain.ErrResourceNotFound
	}
	return r, err
}

func (s *ResourceStore) FindAll(ctx context.Context) ([]domain.Resource, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, name, description, created_at
		 FROM resources WHERE tenant_id = ? ORDER BY name, id`,
		string(tenantID),
	)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	var resources []domain.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func scanResource(row scanner) (domain.Resource, error) {
	var r domain.Resource
	var id, tenantID, createdAt string

	if err := row.Scan(&id, &tenantID, &r.Name, &r.Description, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Resource{}, err
		}
		return domain.Resource{}, fmt.Errorf("scanning resource: %w", err)
	}

	created, err := parseTime(createdAt)
	if err != nil {
		return domain.Resource{}, err
	}

	r.ID = domain.ResourceID(id)
	r.TenantID = domain.TenantID(tenantID)
	r.CreatedAt = created
	return r, nil
}
