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

type materialLogStore interface {
	Create(ctx context.Context, log *models.MaterialLog) error
	GetByID(ctx context.Context, id string) (*models.MaterialLog, error)
	List(ctx context.Context, filter models.MaterialLogFilter) ([]models.MaterialLog, error)
	Update(ctx context.Context, log *models.MaterialLog) error
	Delete(ctx context.Context, id string) error
}

// MaterialLogService manages material usage drafts under the same status
// gates as timesheets.
type MaterialLogService struct {
	repo   materialLogStore
	scope  projectScoper
	logger *zap.Logger
}

// NewMaterialLogService constructs the service.
func NewMaterialLogService(repo materialLogStore, scope projectScoper, logger *zap.Logger) *MaterialLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialLogService{repo: repo, scope: scope, logger: logger}
}

// Create stores a new draft material log for the acting user.
func (s *MaterialLogService) Create(ctx context.Context, req dto.CreateMaterialLogRequest, actor models.Identity) (*models.MaterialLog, error) {
	usageDate, err := dto.ParseFormDate(req.UsageDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "usage_date must be yyyy-mm-dd")
	}

	log := &models.MaterialLog{
		ProjectID: req.ProjectID,
		Material:  req.Material,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		UsageDate: usageDate,
		CreatedBy: actor.UserID,
	}
	if req.Notes != "" {
		log.Notes = &req.Notes
	}
	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material log")
	}
	return log, nil
}

// Get returns a material log, enforcing the caller's project scope.
func (s *MaterialLogService) Get(ctx context.Context, id string, actor models.Identity) (*models.MaterialLog, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material log not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material log")
	}
	if err := s.checkScope(ctx, actor, log.ProjectID); err != nil {
		return nil, err
	}
	return log, nil
}

// List returns material logs visible to the caller.
func (s *MaterialLogService) List(ctx context.Context, query dto.MaterialLogQuery, actor models.Identity) ([]models.MaterialLog, error) {
	scope, err := s.scope.ProjectScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	filter := models.MaterialLogFilter{
		ProjectID:  query.ProjectID,
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

// Update edits a draft or rejected material log.
func (s *MaterialLogService) Update(ctx context.Context, id string, req dto.UpdateMaterialLogRequest, actor models.Identity) (*models.MaterialLog, error) {
	log, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if !log.Editable() {
		return nil, appErrors.ErrNotEditable
	}
	if log.CreatedBy != actor.UserID && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator may edit this record")
	}

	if req.Material != "" {
		log.Material = req.Material
	}
	if req.Quantity > 0 {
		log.Quantity = req.Quantity
	}
	if req.Unit != "" {
		log.Unit = req.Unit
	}
	if req.UsageDate != "" {
		usageDate, err := dto.ParseFormDate(req.UsageDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "usage_date must be yyyy-mm-dd")
		}
		log.UsageDate = usageDate
	}
	if req.Notes != nil {
		log.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material log")
	}
	return log, nil
}

// Delete removes a material log. Approved records are never deletable.
func (s *MaterialLogService) Delete(ctx context.Context, id string, actor models.Identity) error {
	log, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	if !log.Deletable() {
		return appErrors.ErrNotDeletable
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material log")
	}
	return nil
}

func (s *MaterialLogService) checkScope(ctx context.Context, actor models.Identity, projectID string) error {
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
