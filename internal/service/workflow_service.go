package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
)

type workflowStore interface {
	List(ctx context.Context) ([]models.ApprovalWorkflow, error)
	GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error)
	Create(ctx context.Context, workflow *models.ApprovalWorkflow) error
	Update(ctx context.Context, workflow *models.ApprovalWorkflow) error
	Delete(ctx context.Context, id string) error
	DeactivateOthers(ctx context.Context, workflow *models.ApprovalWorkflow) error
}

// WorkflowService manages approval workflow configurations. Saving an active
// workflow deactivates any other workflow routing the same form types, so a
// form type never has two active routes.
type WorkflowService struct {
	repo   workflowStore
	audit  auditLogger
	logger *zap.Logger
}

// NewWorkflowService constructs the service.
func NewWorkflowService(repo workflowStore, audit auditLogger, logger *zap.Logger) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{repo: repo, audit: audit, logger: logger}
}

// List returns all configured workflows.
func (s *WorkflowService) List(ctx context.Context) ([]models.ApprovalWorkflow, error) {
	return s.repo.List(ctx)
}

// Get returns a single workflow by identifier.
func (s *WorkflowService) Get(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	workflow, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval workflow not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval workflow")
	}
	return workflow, nil
}

// Create stores a new workflow from the request payload.
func (s *WorkflowService) Create(ctx context.Context, req dto.SaveWorkflowRequest, actor models.Identity) (*models.ApprovalWorkflow, error) {
	workflow, err := s.buildWorkflow(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, workflow); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval workflow")
	}
	if workflow.IsActive {
		if err := s.repo.DeactivateOthers(ctx, workflow); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate overlapping workflows")
		}
	}
	s.emitAudit(ctx, actor, workflow.ID)
	return workflow, nil
}

// Update replaces a workflow's configuration.
func (s *WorkflowService) Update(ctx context.Context, id string, req dto.SaveWorkflowRequest, actor models.Identity) (*models.ApprovalWorkflow, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	workflow, err := s.buildWorkflow(req)
	if err != nil {
		return nil, err
	}
	workflow.ID = existing.ID
	workflow.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, workflow); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update approval workflow")
	}
	if workflow.IsActive {
		if err := s.repo.DeactivateOthers(ctx, workflow); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate overlapping workflows")
		}
	}
	s.emitAudit(ctx, actor, workflow.ID)
	return workflow, nil
}

// Delete removes a workflow configuration. Pending form instances keep their
// current level; with no active route they surface as a configuration gap.
func (s *WorkflowService) Delete(ctx context.Context, id string, actor models.Identity) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete approval workflow")
	}
	s.emitAudit(ctx, actor, id)
	return nil
}

// ActiveFor returns the active workflow routing the form type, nil when none
// is configured.
func (s *WorkflowService) ActiveFor(ctx context.Context, formType models.FormType) (*models.ApprovalWorkflow, error) {
	workflows, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval workflows")
	}
	return models.FindActiveWorkflow(workflows, formType), nil
}

// buildWorkflow validates the payload and renumbers levels contiguously from
// one in payload order.
func (s *WorkflowService) buildWorkflow(req dto.SaveWorkflowRequest) (*models.ApprovalWorkflow, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "workflow name is required")
	}
	if len(req.Levels) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one approval level is required")
	}
	if len(req.AssignedForms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one form type is required")
	}

	forms := make(models.FormTypes, 0, len(req.AssignedForms))
	for _, formType := range req.AssignedForms {
		switch formType {
		case models.FormTypeTimesheet, models.FormTypeMaterialLog:
			forms = append(forms, formType)
		case models.FormTypeSafetyForm:
			return nil, appErrors.Clone(appErrors.ErrValidation, "safety forms are not routed through approval")
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown form type %q", formType))
		}
	}

	levels := make(models.ApprovalLevels, 0, len(req.Levels))
	for i, level := range req.Levels {
		approvers := make([]string, 0, len(level.Approvers))
		for _, approver := range level.Approvers {
			trimmed := strings.TrimSpace(approver)
			if trimmed != "" {
				approvers = append(approvers, trimmed)
			}
		}
		if len(approvers) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("level %d has no approvers", i+1))
		}
		levels = append(levels, models.ApprovalLevel{Number: i + 1, Approvers: approvers})
	}

	return &models.ApprovalWorkflow{
		Name:          name,
		IsActive:      req.IsActive,
		AssignedForms: forms,
		Levels:        levels,
	}, nil
}

func (s *WorkflowService) emitAudit(ctx context.Context, actor models.Identity, workflowID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionWorkflowSave,
		Resource:   "approval_workflows",
		ResourceID: &workflowID,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}
