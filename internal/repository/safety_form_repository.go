package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldops-hq/fieldops-api/internal/models"
)

// SafetyFormRepository persists safety form records.
type SafetyFormRepository struct {
	db *sqlx.DB
}

// NewSafetyFormRepository constructs the repository.
func NewSafetyFormRepository(db *sqlx.DB) *SafetyFormRepository {
	return &SafetyFormRepository{db: db}
}

// Create inserts a safety form with generated defaults.
func (r *SafetyFormRepository) Create(ctx context.Context, form *models.SafetyForm) error {
	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now
	const query = `INSERT INTO safety_forms (id, kind, project_id, form_date, details, submitted, created_by, created_at, updated_at)
VALUES (:id, :kind, :project_id, :form_date, :details, :submitted, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, form); err != nil {
		return fmt.Errorf("create safety form: %w", err)
	}
	return nil
}

// GetByID returns a safety form by identifier.
func (r *SafetyFormRepository) GetByID(ctx context.Context, id string) (*models.SafetyForm, error) {
	const query = `SELECT id, kind, project_id, form_date, details, submitted, created_by, created_at, updated_at
FROM safety_forms WHERE id = $1`
	var form models.SafetyForm
	if err := r.db.GetContext(ctx, &form, query, id); err != nil {
		return nil, err
	}
	return &form, nil
}

// List returns safety forms matching the filter, newest first.
func (r *SafetyFormRepository) List(ctx context.Context, filter models.SafetyFormFilter) ([]models.SafetyForm, error) {
	query := `SELECT id, kind, project_id, form_date, details, submitted, created_by, created_at, updated_at
FROM safety_forms WHERE 1=1`
	var args []interface{}

	if filter.ProjectID != "" {
		query += fmt.Sprintf(" AND project_id = $%d", len(args)+1)
		args = append(args, filter.ProjectID)
	}
	if filter.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", len(args)+1)
		args = append(args, filter.Kind)
	}
	if filter.CreatedBy != "" {
		query += fmt.Sprintf(" AND created_by = $%d", len(args)+1)
		args = append(args, filter.CreatedBy)
	}
	if filter.ProjectIDs != nil {
		if len(filter.ProjectIDs) == 0 {
			return nil, nil
		}
		placeholders := make([]string, len(filter.ProjectIDs))
		for i, projectID := range filter.ProjectIDs {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, projectID)
		}
		query += fmt.Sprintf(" AND project_id IN (%s)", strings.Join(placeholders, ","))
	}

	query += " ORDER BY form_date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var forms []models.SafetyForm
	if err := r.db.SelectContext(ctx, &forms, query, args...); err != nil {
		return nil, fmt.Errorf("list safety forms: %w", err)
	}
	return forms, nil
}

// Update persists edits on an unsubmitted safety form.
func (r *SafetyFormRepository) Update(ctx context.Context, form *models.SafetyForm) error {
	form.UpdatedAt = time.Now().UTC()
	const query = `UPDATE safety_forms
SET kind = :kind, form_date = :form_date, details = :details, submitted = :submitted, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, form)
	if err != nil {
		return fmt.Errorf("update safety form: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("safety form %s not found", form.ID)
	}
	return nil
}

// Delete removes a safety form row.
func (r *SafetyFormRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM safety_forms WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete safety form: %w", err)
	}
	return nil
}
