package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
)

type timesheetApprovalStore interface {
	GetByID(ctx context.Context, id string) (*models.Timesheet, error)
	UpdateApprovalState(ctx context.Context, id string, state models.ApprovalState) error
	ListPending(ctx context.Context) ([]models.Timesheet, error)
}

type materialLogApprovalStore interface {
	GetByID(ctx context.Context, id string) (*models.MaterialLog, error)
	UpdateApprovalState(ctx context.Context, id string, state models.ApprovalState) error
	ListPending(ctx context.Context) ([]models.MaterialLog, error)
}

type workflowResolver interface {
	ActiveFor(ctx context.Context, formType models.FormType) (*models.ApprovalWorkflow, error)
}

// ApprovalService walks form instances through their approval workflow:
// submit moves a draft (or rejected) record to level one, each approval
// advances one level until the last level resolves it, and a rejection at
// any level resolves it with a mandatory reason.
type ApprovalService struct {
	timesheets   timesheetApprovalStore
	materialLogs materialLogApprovalStore
	workflows    workflowResolver
	audit        auditLogger
	logger       *zap.Logger
}

// NewApprovalService constructs the service.
func NewApprovalService(timesheets timesheetApprovalStore, materialLogs materialLogApprovalStore, workflows workflowResolver, audit auditLogger, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		timesheets:   timesheets,
		materialLogs: materialLogs,
		workflows:    workflows,
		audit:        audit,
		logger:       logger,
	}
}

// Submit moves a draft or rejected form into the approval pipeline at level
// one. Only the record's creator (or an admin) may submit it. Resubmitting a
// rejected record restarts the walk from level one with the reason cleared.
func (s *ApprovalService) Submit(ctx context.Context, formType models.FormType, id string, actor models.Identity) (models.ApprovalState, error) {
	state, createdBy, err := s.loadState(ctx, formType, id)
	if err != nil {
		return models.ApprovalState{}, err
	}
	if createdBy != actor.UserID && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return models.ApprovalState{}, appErrors.Clone(appErrors.ErrForbidden, "only the creator may submit this record")
	}
	if !state.Editable() {
		return models.ApprovalState{}, appErrors.Clone(appErrors.ErrNotEditable, "record has already been submitted")
	}

	workflow, err := s.workflows.ActiveFor(ctx, formType)
	if err != nil {
		return models.ApprovalState{}, err
	}
	if workflow == nil {
		return models.ApprovalState{}, appErrors.ErrNoActiveWorkflow
	}

	now := time.Now().UTC()
	next := models.ApprovalState{
		Status:        models.FormStatusPending,
		ApprovalLevel: 1,
		SubmittedAt:   &now,
	}
	if err := s.saveState(ctx, formType, id, next); err != nil {
		return models.ApprovalState{}, err
	}
	s.emitAudit(ctx, actor, models.AuditActionFormSubmit, formType, id)
	return next, nil
}

// Approve records an approval at the record's current level. The last
// level's approval resolves the record; any earlier level advances it.
func (s *ApprovalService) Approve(ctx context.Context, formType models.FormType, id string, actor models.Identity, req dto.ApproveRequest) (models.ApprovalState, error) {
	state, _, err := s.loadState(ctx, formType, id)
	if err != nil {
		return models.ApprovalState{}, err
	}
	if state.Status != models.FormStatusPending {
		return models.ApprovalState{}, appErrors.ErrNotPending
	}

	workflow, err := s.workflows.ActiveFor(ctx, formType)
	if err != nil {
		return models.ApprovalState{}, err
	}
	if workflow == nil {
		return models.ApprovalState{}, appErrors.ErrNoActiveWorkflow
	}
	level := workflow.LevelFor(state.ApprovalLevel)
	if !models.IsEligibleApprover(level, actor) {
		return models.ApprovalState{}, appErrors.ErrNotEligible
	}

	next := state
	if state.ApprovalLevel >= workflow.LastLevel() {
		now := time.Now().UTC()
		next.Status = models.FormStatusApproved
		next.ApprovalLevel = 0
		next.ResolvedAt = &now
	} else {
		next.ApprovalLevel = state.ApprovalLevel + 1
	}
	if err := s.saveState(ctx, formType, id, next); err != nil {
		return models.ApprovalState{}, err
	}
	s.emitAudit(ctx, actor, models.AuditActionApprovalApprove, formType, id)
	return next, nil
}

// Reject resolves a pending record with a mandatory reason. The level where
// the rejection happened is kept for traceability.
func (s *ApprovalService) Reject(ctx context.Context, formType models.FormType, id string, actor models.Identity, req dto.RejectRequest) (models.ApprovalState, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return models.ApprovalState{}, appErrors.ErrReasonRequired
	}

	state, _, err := s.loadState(ctx, formType, id)
	if err != nil {
		return models.ApprovalState{}, err
	}
	if state.Status != models.FormStatusPending {
		return models.ApprovalState{}, appErrors.ErrNotPending
	}

	workflow, err := s.workflows.ActiveFor(ctx, formType)
	if err != nil {
		return models.ApprovalState{}, err
	}
	if workflow == nil {
		return models.ApprovalState{}, appErrors.ErrNoActiveWorkflow
	}
	if !models.IsEligibleApprover(workflow.LevelFor(state.ApprovalLevel), actor) {
		return models.ApprovalState{}, appErrors.ErrNotEligible
	}

	now := time.Now().UTC()
	next := state
	next.Status = models.FormStatusRejected
	next.RejectionReason = &reason
	next.ResolvedAt = &now
	if err := s.saveState(ctx, formType, id, next); err != nil {
		return models.ApprovalState{}, err
	}
	s.emitAudit(ctx, actor, models.AuditActionApprovalReject, formType, id)
	return next, nil
}

// PendingCounts returns, per form type, how many pending records the actor
// may currently act on. Feeds the approval badge in navigation.
func (s *ApprovalService) PendingCounts(ctx context.Context, actor models.Identity) (dto.PendingCounts, error) {
	var counts dto.PendingCounts

	timesheetWorkflow, err := s.workflows.ActiveFor(ctx, models.FormTypeTimesheet)
	if err != nil {
		return counts, err
	}
	if timesheetWorkflow != nil {
		pending, err := s.timesheets.ListPending(ctx)
		if err != nil {
			return counts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending timesheets")
		}
		for _, ts := range pending {
			if models.IsEligibleApprover(timesheetWorkflow.LevelFor(ts.ApprovalLevel), actor) {
				counts.Timesheets++
			}
		}
	}

	materialWorkflow, err := s.workflows.ActiveFor(ctx, models.FormTypeMaterialLog)
	if err != nil {
		return counts, err
	}
	if materialWorkflow != nil {
		pending, err := s.materialLogs.ListPending(ctx)
		if err != nil {
			return counts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending material logs")
		}
		for _, log := range pending {
			if models.IsEligibleApprover(materialWorkflow.LevelFor(log.ApprovalLevel), actor) {
				counts.MaterialLogs++
			}
		}
	}

	counts.Total = counts.Timesheets + counts.MaterialLogs
	return counts, nil
}

func (s *ApprovalService) loadState(ctx context.Context, formType models.FormType, id string) (models.ApprovalState, string, error) {
	switch formType {
	case models.FormTypeTimesheet:
		ts, err := s.timesheets.GetByID(ctx, id)
		if err != nil {
			return models.ApprovalState{}, "", notFoundOrInternal(err, "timesheet not found")
		}
		return ts.ApprovalState, ts.CreatedBy, nil
	case models.FormTypeMaterialLog:
		log, err := s.materialLogs.GetByID(ctx, id)
		if err != nil {
			return models.ApprovalState{}, "", notFoundOrInternal(err, "material log not found")
		}
		return log.ApprovalState, log.CreatedBy, nil
	default:
		return models.ApprovalState{}, "", appErrors.Clone(appErrors.ErrValidation, "form type is not approval-routed")
	}
}

func (s *ApprovalService) saveState(ctx context.Context, formType models.FormType, id string, state models.ApprovalState) error {
	var err error
	switch formType {
	case models.FormTypeTimesheet:
		err = s.timesheets.UpdateApprovalState(ctx, id, state)
	case models.FormTypeMaterialLog:
		err = s.materialLogs.UpdateApprovalState(ctx, id, state)
	default:
		return appErrors.Clone(appErrors.ErrValidation, "form type is not approval-routed")
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist approval state")
	}
	return nil
}

func (s *ApprovalService) emitAudit(ctx context.Context, actor models.Identity, action string, formType models.FormType, id string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   string(formType),
		ResourceID: &id,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func notFoundOrInternal(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "storage failure")
}
