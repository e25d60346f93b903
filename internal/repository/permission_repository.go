package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fieldops-hq/fieldops-api/internal/models"
)

// PermissionRepository persists per-role permission records.
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository constructs the repository.
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// GetByRole fetches the permission record for a role. Returns sql.ErrNoRows
// when the role has never been saved; callers materialize defaults.
func (r *PermissionRepository) GetByRole(ctx context.Context, role models.UserRole) (*models.RolePermissions, error) {
	const query = `SELECT role, modules, project_access, updated_by, updated_at
FROM role_permissions WHERE role = $1`
	var record models.RolePermissions
	if err := r.db.GetContext(ctx, &record, query, role); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns every stored permission record.
func (r *PermissionRepository) List(ctx context.Context) ([]models.RolePermissions, error) {
	const query = `SELECT role, modules, project_access, updated_by, updated_at
FROM role_permissions ORDER BY role ASC`
	var records []models.RolePermissions
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	return records, nil
}

// Upsert replaces the full permission record for a role.
func (r *PermissionRepository) Upsert(ctx context.Context, record *models.RolePermissions) error {
	const query = `INSERT INTO role_permissions (role, modules, project_access, updated_by, updated_at)
VALUES (:role, :modules, :project_access, :updated_by, :updated_at)
ON CONFLICT (role)
DO UPDATE SET modules = EXCLUDED.modules, project_access = EXCLUDED.project_access,
              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	record.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert role permissions: %w", err)
	}
	return nil
}
