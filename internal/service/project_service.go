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

type projectStore interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
	AssignedProjectIDs(ctx context.Context, userID string) ([]string, error)
	ReplaceAssignments(ctx context.Context, projectID string, userIDs []string) error
}

// ProjectService manages projects and their user assignments. Assignments
// feed the assigned-only project scope on permission records.
type ProjectService struct {
	repo   projectStore
	logger *zap.Logger
}

// NewProjectService constructs the service.
func NewProjectService(repo projectStore, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{repo: repo, logger: logger}
}

// Create stores a new project.
func (s *ProjectService) Create(ctx context.Context, req dto.CreateProjectRequest) (*models.Project, error) {
	project := &models.Project{
		Code:   req.Code,
		Name:   req.Name,
		Status: models.ProjectStatusActive,
	}
	if req.Status != "" {
		project.Status = models.ProjectStatus(req.Status)
	}
	if req.CompanyID != "" {
		project.CompanyID = &req.CompanyID
	}
	if req.StartDate != "" {
		start, err := dto.ParseFormDate(req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be yyyy-mm-dd")
		}
		project.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := dto.ParseFormDate(req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be yyyy-mm-dd")
		}
		project.EndDate = &end
	}
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	return project, nil
}

// Get returns a single project.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

// List returns projects matching the filter. For assigned-scope callers the
// result is narrowed to their assignments.
func (s *ProjectService) List(ctx context.Context, filter models.ProjectFilter, actor models.Identity, scope []string) ([]models.Project, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	projects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	if scope == nil {
		return projects, nil
	}
	allowed := make(map[string]struct{}, len(scope))
	for _, id := range scope {
		allowed[id] = struct{}{}
	}
	out := projects[:0]
	for _, project := range projects {
		if _, ok := allowed[project.ID]; ok {
			out = append(out, project)
		}
	}
	return out, nil
}

// Update edits a project record.
func (s *ProjectService) Update(ctx context.Context, id string, req dto.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		project.Name = req.Name
	}
	if req.CompanyID != "" {
		project.CompanyID = &req.CompanyID
	}
	if req.Status != "" {
		project.Status = models.ProjectStatus(req.Status)
	}
	if req.StartDate != "" {
		start, err := dto.ParseFormDate(req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be yyyy-mm-dd")
		}
		project.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := dto.ParseFormDate(req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be yyyy-mm-dd")
		}
		project.EndDate = &end
	}
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return project, nil
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete project")
	}
	return nil
}

// Assign replaces the set of users assigned to a project.
func (s *ProjectService) Assign(ctx context.Context, id string, req dto.AssignProjectRequest) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.ReplaceAssignments(ctx, id, req.UserIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign users to project")
	}
	return nil
}

// AssignedProjectIDs resolves the projects a user is assigned to; feeds the
// authenticated identity used by scope checks.
func (s *ProjectService) AssignedProjectIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.repo.AssignedProjectIDs(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve project assignments")
	}
	return ids, nil
}
