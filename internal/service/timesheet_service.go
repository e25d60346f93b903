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

type timesheetStore interface {
	Create(ctx context.Context, ts *models.Timesheet) error
	GetByID(ctx context.Context, id string) (*models.Timesheet, error)
	List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error)
	Update(ctx context.Context, ts *models.Timesheet) error
	Delete(ctx context.Context, id string) error
}

type projectScoper interface {
	ProjectScope(ctx context.Context, identity models.Identity) ([]string, error)
}

// TimesheetService manages timesheet drafts. Approval transitions live in
// ApprovalService; this service enforces the edit and delete gates that the
// approval status imposes.
type TimesheetService struct {
	repo   timesheetStore
	scope  projectScoper
	logger *zap.Logger
}

// NewTimesheetService constructs the service.
func NewTimesheetService(repo timesheetStore, scope projectScoper, logger *zap.Logger) *TimesheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimesheetService{repo: repo, scope: scope, logger: logger}
}

// Create stores a new draft timesheet for the acting user.
func (s *TimesheetService) Create(ctx context.Context, req dto.CreateTimesheetRequest, actor models.Identity) (*models.Timesheet, error) {
	workDate, err := dto.ParseFormDate(req.WorkDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "work_date must be yyyy-mm-dd")
	}

	ts := &models.Timesheet{
		EmployeeID: req.EmployeeID,
		ProjectID:  req.ProjectID,
		WorkDate:   workDate,
		Hours:      req.Hours,
		CostCode:   req.CostCode,
		CreatedBy:  actor.UserID,
	}
	if req.Notes != "" {
		ts.Notes = &req.Notes
	}
	if err := s.repo.Create(ctx, ts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timesheet")
	}
	return ts, nil
}

// Get returns a timesheet, enforcing the caller's project scope.
func (s *TimesheetService) Get(ctx context.Context, id string, actor models.Identity) (*models.Timesheet, error) {
	ts, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timesheet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timesheet")
	}
	if err := s.checkScope(ctx, actor, ts.ProjectID); err != nil {
		return nil, err
	}
	return ts, nil
}

// List returns timesheets visible to the caller.
func (s *TimesheetService) List(ctx context.Context, query dto.TimesheetQuery, actor models.Identity) ([]models.Timesheet, error) {
	scope, err := s.scope.ProjectScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	filter := models.TimesheetFilter{
		ProjectID:  query.ProjectID,
		EmployeeID: query.EmployeeID,
		Status:     query.Status,
		ProjectIDs: scope,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if query.DateFrom != "" {
		from, err := dto.ParseFormDate(query.DateFrom)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_from must be yyyy-mm-dd")
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := dto.ParseFormDate(query.DateTo)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_to must be yyyy-mm-dd")
		}
		filter.DateTo = &to
	}
	return s.repo.List(ctx, filter)
}

// Update edits a draft or rejected timesheet. Pending and approved records
// are locked.
func (s *TimesheetService) Update(ctx context.Context, id string, req dto.UpdateTimesheetRequest, actor models.Identity) (*models.Timesheet, error) {
	ts, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !ts.Editable() {
		return nil, appErrors.ErrNotEditable
	}
	if ts.CreatedBy != actor.UserID && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator may edit this record")
	}

	if req.WorkDate != "" {
		workDate, err := dto.ParseFormDate(req.WorkDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "work_date must be yyyy-mm-dd")
		}
		ts.WorkDate = workDate
	}
	if req.Hours > 0 {
		ts.Hours = req.Hours
	}
	if req.CostCode != "" {
		ts.CostCode = req.CostCode
	}
	if req.Notes != nil {
		ts.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, ts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timesheet")
	}
	return ts, nil
}

// Delete removes a timesheet. Approved records are never deletable.
func (s *TimesheetService) Delete(ctx context.Context, id string, actor models.Identity) error {
	ts, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	if !ts.Deletable() {
		return appErrors.ErrNotDeletable
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timesheet")
	}
	return nil
}

func (s *TimesheetService) checkScope(ctx context.Context, actor models.Identity, projectID string) error {
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
