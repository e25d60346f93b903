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

const timesheetColumns = `id, employee_id, project_id, work_date, hours, cost_code, notes,
status, approval_level, rejection_reason, submitted_at, resolved_at,
created_by, created_at, updated_at`

// TimesheetRepository persists timesheet records.
type TimesheetRepository struct {
	db *sqlx.DB
}

// NewTimesheetRepository constructs the repository.
func NewTimesheetRepository(db *sqlx.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// Create inserts a new timesheet with generated defaults.
func (r *TimesheetRepository) Create(ctx context.Context, ts *models.Timesheet) error {
	if ts.ID == "" {
		ts.ID = uuid.NewString()
	}
	if ts.Status == "" {
		ts.Status = models.FormStatusDraft
	}
	now := time.Now().UTC()
	ts.CreatedAt = now
	ts.UpdatedAt = now
	const query = `INSERT INTO timesheets (` + timesheetColumns + `)
VALUES (:id, :employee_id, :project_id, :work_date, :hours, :cost_code, :notes,
        :status, :approval_level, :rejection_reason, :submitted_at, :resolved_at,
        :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ts); err != nil {
		return fmt.Errorf("create timesheet: %w", err)
	}
	return nil
}

// GetByID returns a timesheet by identifier.
func (r *TimesheetRepository) GetByID(ctx context.Context, id string) (*models.Timesheet, error) {
	const query = `SELECT ` + timesheetColumns + ` FROM timesheets WHERE id = $1`
	var ts models.Timesheet
	if err := r.db.GetContext(ctx, &ts, query, id); err != nil {
		return nil, err
	}
	return &ts, nil
}

// List returns timesheets matching the filter, newest work date first.
func (r *TimesheetRepository) List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE 1=1`
	var args []interface{}

	add := func(clause string, value interface{}) {
		query += fmt.Sprintf(" AND "+clause, len(args)+1)
		args = append(args, value)
	}

	if filter.ProjectID != "" {
		add("project_id = $%d", filter.ProjectID)
	}
	if filter.EmployeeID != "" {
		add("employee_id = $%d", filter.EmployeeID)
	}
	if filter.CreatedBy != "" {
		add("created_by = $%d", filter.CreatedBy)
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
		add("work_date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("work_date <= $%d", *filter.DateTo)
	}

	query += " ORDER BY work_date DESC, created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var timesheets []models.Timesheet
	if err := r.db.SelectContext(ctx, &timesheets, query, args...); err != nil {
		return nil, fmt.Errorf("list timesheets: %w", err)
	}
	return timesheets, nil
}

// Update persists edits on a draft or rejected timesheet.
func (r *TimesheetRepository) Update(ctx context.Context, ts *models.Timesheet) error {
	ts.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timesheets
SET work_date = :work_date, hours = :hours, cost_code = :cost_code, notes = :notes,
    status = :status, approval_level = :approval_level, rejection_reason = :rejection_reason,
    submitted_at = :submitted_at, resolved_at = :resolved_at, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, ts)
	if err != nil {
		return fmt.Errorf("update timesheet: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("timesheet %s not found", ts.ID)
	}
	return nil
}

// UpdateApprovalState persists only the workflow-facing fields.
func (r *TimesheetRepository) UpdateApprovalState(ctx context.Context, id string, state models.ApprovalState) error {
	const query = `UPDATE timesheets
SET status = $2, approval_level = $3, rejection_reason = $4,
    submitted_at = $5, resolved_at = $6, updated_at = $7
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, state.Status, state.ApprovalLevel,
		state.RejectionReason, state.SubmittedAt, state.ResolvedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update timesheet approval state: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("timesheet %s not found", id)
	}
	return nil
}

// Delete removes a timesheet row.
func (r *TimesheetRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timesheets WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete timesheet: %w", err)
	}
	return nil
}

// ListPending returns timesheets awaiting approval; used for badge counts.
func (r *TimesheetRepository) ListPending(ctx context.Context) ([]models.Timesheet, error) {
	return r.List(ctx, models.TimesheetFilter{Status: []models.FormStatus{models.FormStatusPending}})
}
