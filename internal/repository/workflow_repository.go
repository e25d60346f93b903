package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fieldops-hq/fieldops-api/internal/models"
)

// WorkflowRepository persists approval workflow configurations.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs the repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// List returns all workflows, active first, oldest first within each group.
func (r *WorkflowRepository) List(ctx context.Context) ([]models.ApprovalWorkflow, error) {
	const query = `SELECT id, name, is_active, assigned_forms, levels, created_at, updated_at
FROM approval_workflows ORDER BY is_active DESC, created_at ASC`
	var workflows []models.ApprovalWorkflow
	if err := r.db.SelectContext(ctx, &workflows, query); err != nil {
		return nil, fmt.Errorf("list approval workflows: %w", err)
	}
	return workflows, nil
}

// GetByID fetches a single workflow.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	const query = `SELECT id, name, is_active, assigned_forms, levels, created_at, updated_at
FROM approval_workflows WHERE id = $1`
	var workflow models.ApprovalWorkflow
	if err := r.db.GetContext(ctx, &workflow, query, id); err != nil {
		return nil, err
	}
	return &workflow, nil
}

// Create inserts a new workflow with generated defaults.
func (r *WorkflowRepository) Create(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	const query = `INSERT INTO approval_workflows (id, name, is_active, assigned_forms, levels, created_at, updated_at)
VALUES (:id, :name, :is_active, :assigned_forms, :levels, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, workflow); err != nil {
		return fmt.Errorf("create approval workflow: %w", err)
	}
	return nil
}

// Update replaces a workflow's configuration.
func (r *WorkflowRepository) Update(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	workflow.UpdatedAt = time.Now().UTC()
	const query = `UPDATE approval_workflows
SET name = :name, is_active = :is_active, assigned_forms = :assigned_forms,
    levels = :levels, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, workflow)
	if err != nil {
		return fmt.Errorf("update approval workflow: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("approval workflow %s not found", workflow.ID)
	}
	return nil
}

// Delete removes a workflow configuration.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM approval_workflows WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete approval workflow: %w", err)
	}
	return nil
}

// DeactivateOthers clears the active flag on every workflow sharing a form
// type with the given workflow, keeping a single active route per type.
func (r *WorkflowRepository) DeactivateOthers(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	const query = `UPDATE approval_workflows
SET is_active = FALSE, updated_at = $2
WHERE id <> $1 AND is_active = TRUE AND assigned_forms::jsonb ?| $3`
	types := make([]string, len(workflow.AssignedForms))
	for i, formType := range workflow.AssignedForms {
		types[i] = string(formType)
	}
	if _, err := r.db.ExecContext(ctx, query, workflow.ID, time.Now().UTC(), pq.Array(types)); err != nil {
		return fmt.Errorf("deactivate overlapping workflows: %w", err)
	}
	return nil
}
