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

const materialLogColumns = `id, project_id, material, quantity, unit, usage_date, notes,
status, approval_level, rejection_reason, submitted_at, resolved_at,
created_by, created_at, updated_at`

// MaterialLogRepository persists material usage logs.
type MaterialLogRepository struct {
	db *sqlx.DB
}

// NewMaterialLogRepository constructs the repository.
func NewMaterialLogRepository(db *sqlx.DB) *MaterialLogRepository {
	return &MaterialLogRepository{db: db}
}

// Create inserts a new material log with generated defaults.
func (r *MaterialLogRepository) Create(ctx context.Context, log *models.MaterialLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Status == "" {
		log.Status = models.FormStatusDraft
	}
	now := time.Now().UTC()
	log.CreatedAt = now
	log.UpdatedAt = now
	const query = `INSERT INTO material_logs (` + materialLogColumns + `)
VALUES (:id, :project_id, :material, :quantity, :unit, :usage_date, :notes,
        :status, :approval_level, :rejection_reason, :submitted_at, :resolved_at,
        :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create material log: %w", err)
	}
	return nil
}

// GetByID returns a material log by identifier.
func (r *MaterialLogRepository) GetByID(ctx context.Context, id string) (*models.MaterialLog, error) {
	const query = `SELECT ` + materialLogColumns + ` FROM material_logs WHERE id = $1`
	var log models.MaterialLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		return nil, err
	}
	return &log, nil
}

// List returns material logs matching the filter, newest usage date first.
func (r *MaterialLogRepository) List(ctx context.Context, filter models.MaterialLogFilter) ([]models.MaterialLog, error) {
	query := `SELECT ` + materialLogColumns + ` FROM material_logs WHERE 1=1`
	var args []interface{}

	if filter.ProjectID != "" {
		query += fmt.Sprintf(" AND project_id = $%d", len(args)+1)
		args = append(args, filter.ProjectID)
	}
	if filter.CreatedBy != "" {
		query += fmt.Sprintf(" AND created_by = $%d", len(args)+1)
		args = append(args, filter.CreatedBy)
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, status)
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
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
	if filter.DateFrom != nil {
		query += fmt.Sprintf(" AND usage_date >= $%d", len(args)+1)
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query += fmt.Sprintf(" AND usage_date <= $%d", len(args)+1)
		args = append(args, *filter.DateTo)
	}

	query += " ORDER BY usage_date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var logs []models.MaterialLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list material logs: %w", err)
	}
	return logs, nil
}

// Update persists edits on a draft or rejected material log.
func (r *MaterialLogRepository) Update(ctx context.Context, log *models.MaterialLog) error {
	log.UpdatedAt = time.Now().UTC()
	const query = `UPDATE material_logs
SET material = :material, quantity = :quantity, unit = :unit, usage_date = :usage_date,
    notes = :notes, status = :status, approval_level = :approval_level,
    rejection_reason = :rejection_reason, submitted_at = :submitted_at,
    resolved_at = :resolved_at, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, log)
	if err != nil {
		return fmt.Errorf("update material log: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("material log %s not found", log.ID)
	}
	return nil
}

// UpdateApprovalState persists only the workflow-facing fields.
func (r *MaterialLogRepository) UpdateApprovalState(ctx context.Context, id string, state models.ApprovalState) error {
	const query = `UPDATE material_logs
SET status = $2, approval_level = $3, rejection_reason = $4,
    submitted_at = $5, resolved_at = $6, updated_at = $7
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, state.Status, state.ApprovalLevel,
		state.RejectionReason, state.SubmittedAt, state.ResolvedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update material log approval state: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("material log %s not found", id)
	}
	return nil
}

// Delete removes a material log row.
func (r *MaterialLogRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM material_logs WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete material log: %w", err)
	}
	return nil
}

// ListPending returns material logs awaiting approval.
func (r *MaterialLogRepository) ListPending(ctx context.Context) ([]models.MaterialLog, error) {
	return r.List(ctx, models.MaterialLogFilter{Status: []models.FormStatus{models.FormStatusPending}})
}
