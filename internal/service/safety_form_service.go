package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
)

type safetyFormStore interface {
	Create(ctx context.Context, form *models.SafetyForm) error
	GetByID(ctx context.Context, id string) (*models.SafetyForm, error)
	List(ctx context.Context, filter models.SafetyFormFilter) ([]models.SafetyForm, error)
	Update(ctx context.Context, form *models.SafetyForm) error
	Delete(ctx context.Context, id string) error
}

// SafetyFormService records safety forms. These skip the approval workflow
// entirely; a form is a draft until submitted, then read-only.
type SafetyFormService struct {
	repo   safetyFormStore
	scope  projectScoper
	audit  auditLogger
	logger *zap.Logger
}

// NewSafetyFormService constructs the service.
func NewSafetyFormService(repo safetyFormStore, scope projectScoper, audit auditLogger, logger *zap.Logger) *SafetyFormService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SafetyFormService{repo: repo, scope: scope, audit: audit, logger: logger}
}

// Create stores a new draft safety form.
func (s *SafetyFormService) Create(ctx context.Context, req dto.CreateSafetyFormRequest, actor models.Identity) (*models.SafetyForm, error) {
	formDate, err := dto.ParseFormDate(req.FormDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "form_date must be yyyy-mm-dd")
	}

	form := &models.SafetyForm{
		Kind:      req.Kind,
		ProjectID: req.ProjectID,
		FormDate:  formDate,
		Details:   req.Details,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create safety form")
	}
	return form, nil
}

// Get returns a safety form, enforcing the caller's project scope.
func (s *SafetyFormService) Get(ctx context.Context, id string, actor models.Identity) (*models.SafetyForm, error) {
	form, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "safety form not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load safety form")
	}
	if err := s.checkScope(ctx, actor, form.ProjectID); err != nil {
		return nil, err
	}
	return form, nil
}

// List returns safety forms visible to the caller.
func (s *SafetyFormService) List(ctx context.Context, filter models.SafetyFormFilter, actor models.Identity) ([]models.SafetyForm, error) {
	scope, err := s.scope.ProjectScope(ctx, actor)
	if err != nil {
		return nil, err
	}
	filter.ProjectIDs = scope
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

// Submit marks a safety form as final. Submitted forms cannot be edited.
func (s *SafetyFormService) Submit(ctx context.Context, id string, actor models.Identity) (*models.SafetyForm, error) {
	form, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if form.Submitted {
		return nil, appErrors.Clone(appErrors.ErrNotEditable, "safety form has already been submitted")
	}
	if form.CreatedBy != actor.UserID && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator may submit this form")
	}

	form.Submitted = true
	if err := s.repo.Update(ctx, form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit safety form")
	}
	s.emitAudit(ctx, actor, form.ID)
	return form, nil
}

// Delete removes an unsubmitted safety form.
func (s *SafetyFormService) Delete(ctx context.Context, id string, actor models.Identity) error {
	form, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	if form.Submitted {
		return appErrors.Clone(appErrors.ErrNotDeletable, "submitted safety forms cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete safety form")
	}
	return nil
}

func (s *SafetyFormService) checkScope(ctx context.Context, actor models.Identity, projectID string) error {
	scope, err := s.scope.ProjectScope(ctx, actor)
	if err != nil {
		return err
	}
	if scope == nil {
		return nil
	}
	for _, allowed := range scope {
		if allowed == projectID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "record belongs to a project outside your assignments")
}

func (s *SafetyFormService) emitAudit(ctx context.Context, actor models.Identity, formID string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionFormSubmit,
		Resource:   string(models.FormTypeSafetyForm),
		ResourceID: &formID,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}
