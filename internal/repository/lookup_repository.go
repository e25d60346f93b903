package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldops-hq/fieldops-api/internal/models"
)

// LookupRepository persists grouped reference data values.
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository constructs the repository.
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// ListByGroup returns active values for one lookup table in sort order.
func (r *LookupRepository) ListByGroup(ctx context.Context, group models.LookupGroup) ([]models.LookupValue, error) {
	const query = `SELECT id, lookup_group, value, label, sort_order, active, created_at, updated_at
FROM lookup_values WHERE lookup_group = $1 AND active = TRUE ORDER BY sort_order ASC, label ASC`
	var values []models.LookupValue
	if err := r.db.SelectContext(ctx, &values, query, group); err != nil {
		return nil, fmt.Errorf("list lookup values: %w", err)
	}
	return values, nil
}

// Create inserts a lookup value with generated defaults.
func (r *LookupRepository) Create(ctx context.Context, value *models.LookupValue) error {
	if value.ID == "" {
		value.ID = uuid.NewString()
	}
	value.Active = true
	now := time.Now().UTC()
	value.CreatedAt = now
	value.UpdatedAt = now
	const query = `INSERT INTO lookup_values (id, lookup_group, value, label, sort_order, active, created_at, updated_at)
VALUES (:id, :lookup_group, :value, :label, :sort_order, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, value); err != nil {
		return fmt.Errorf("create lookup value: %w", err)
	}
	return nil
}

// Update replaces label, sort order and active state.
func (r *LookupRepository) Update(ctx context.Context, value *models.LookupValue) error {
	value.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lookup_values
SET label = :label, sort_order = :sort_order, active = :active, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, value)
	if err != nil {
		return fmt.Errorf("update lookup value: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("lookup value %s not found", value.ID)
	}
	return nil
}

// Delete soft-deletes a lookup value so historical records keep resolving.
func (r *LookupRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE lookup_values SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete lookup value: %w", err)
	}
	return nil
}
