package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
)

type stubWorkflowStore struct {
	workflows   map[string]*models.ApprovalWorkflow
	deactivated []string
}

func newStubWorkflowStore() *stubWorkflowStore {
	return &stubWorkflowStore{workflows: map[string]*models.ApprovalWorkflow{}}
}

func (s *stubWorkflowStore) List(ctx context.Context) ([]models.ApprovalWorkflow, error) {
	var out []models.ApprovalWorkflow
	for _, wf := range s.workflows {
		out = append(out, *wf)
	}
	return out, nil
}

func (s *stubWorkflowStore) GetByID(ctx context.Context, id string) (*models.ApprovalWorkflow, error) {
	wf, ok := s.workflows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *wf
	return &copied, nil
}

func (s *stubWorkflowStore) Create(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.NewString()
	}
	copied := *workflow
	s.workflows[workflow.ID] = &copied
	return nil
}

func (s *stubWorkflowStore) Update(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	if _, ok := s.workflows[workflow.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *workflow
	s.workflows[workflow.ID] = &copied
	return nil
}

func (s *stubWorkflowStore) Delete(ctx context.Context, id string) error {
	delete(s.workflows, id)
	return nil
}

func (s *stubWorkflowStore) DeactivateOthers(ctx context.Context, workflow *models.ApprovalWorkflow) error {
	s.deactivated = append(s.deactivated, workflow.ID)
	for id, other := range s.workflows {
		if id == workflow.ID || !other.IsActive {
			continue
		}
		for _, formType := range workflow.AssignedForms {
			if other.AssignedForms.Contains(formType) {
				other.IsActive = false
				break
			}
		}
	}
	return nil
}

func saveWorkflowRequest() dto.SaveWorkflowRequest {
	return dto.SaveWorkflowRequest{
		Name:          "Timesheet approval",
		IsActive:      true,
		AssignedForms: []models.FormType{models.FormTypeTimesheet},
		Levels: []dto.WorkflowLevelRequest{
			{Approvers: []string{"SUPERVISOR"}},
			{Approvers: []string{"PM", "user-42"}},
		},
	}
}

func TestWorkflowServiceCreateRenumbersLevels(t *testing.T) {
	store := newStubWorkflowStore()
	svc := NewWorkflowService(store, &stubAudit{}, nil)

	req := saveWorkflowRequest()
	req.Levels = []dto.WorkflowLevelRequest{
		{Approvers: []string{"  ADMIN  "}},
		{Approvers: []string{"PM"}},
		{Approvers: []string{"SUPERVISOR"}},
	}
	workflow, err := svc.Create(context.Background(), req, models.Identity{UserID: "adm-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	require.Len(t, workflow.Levels, 3)
	for i, level := range workflow.Levels {
		assert.Equal(t, i+1, level.Number)
	}
	assert.Equal(t, []string{"ADMIN"}, workflow.Levels[0].Approvers, "approver entries are trimmed")
	assert.Equal(t, 3, workflow.LastLevel())
}

func TestWorkflowServiceCreateRejectsSafetyForms(t *testing.T) {
	svc := NewWorkflowService(newStubWorkflowStore(), &stubAudit{}, nil)

	req := saveWorkflowRequest()
	req.AssignedForms = []models.FormType{models.FormTypeSafetyForm}
	_, err := svc.Create(context.Background(), req, models.Identity{UserID: "adm-1", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceCreateRejectsEmptyLevel(t *testing.T) {
	svc := NewWorkflowService(newStubWorkflowStore(), &stubAudit{}, nil)

	req := saveWorkflowRequest()
	req.Levels = []dto.WorkflowLevelRequest{{Approvers: []string{"  "}}}
	_, err := svc.Create(context.Background(), req, models.Identity{UserID: "adm-1", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "no approvers")
}

func TestWorkflowServiceActiveSaveDeactivatesOverlap(t *testing.T) {
	store := newStubWorkflowStore()
	svc := NewWorkflowService(store, &stubAudit{}, nil)
	ctx := context.Background()
	actor := models.Identity{UserID: "adm-1", Role: models.RoleAdmin}

	first, err := svc.Create(ctx, saveWorkflowRequest(), actor)
	require.NoError(t, err)

	second, err := svc.Create(ctx, saveWorkflowRequest(), actor)
	require.NoError(t, err)

	assert.False(t, store.workflows[first.ID].IsActive, "overlapping workflow is deactivated")
	assert.True(t, store.workflows[second.ID].IsActive)

	active, err := svc.ActiveFor(ctx, models.FormTypeTimesheet)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)
}

func TestWorkflowServiceInactiveSaveLeavesOthersAlone(t *testing.T) {
	store := newStubWorkflowStore()
	svc := NewWorkflowService(store, &stubAudit{}, nil)
	ctx := context.Background()
	actor := models.Identity{UserID: "adm-1", Role: models.RoleAdmin}

	first, err := svc.Create(ctx, saveWorkflowRequest(), actor)
	require.NoError(t, err)

	req := saveWorkflowRequest()
	req.IsActive = false
	_, err = svc.Create(ctx, req, actor)
	require.NoError(t, err)

	assert.True(t, store.workflows[first.ID].IsActive)
	assert.Empty(t, store.deactivated[1:], "deactivation only runs for active saves")
}

func TestWorkflowServiceUpdatePreservesIdentity(t *testing.T) {
	store := newStubWorkflowStore()
	svc := NewWorkflowService(store, &stubAudit{}, nil)
	ctx := context.Background()
	actor := models.Identity{UserID: "adm-1", Role: models.RoleAdmin}

	created, err := svc.Create(ctx, saveWorkflowRequest(), actor)
	require.NoError(t, err)

	req := saveWorkflowRequest()
	req.Name = "Renamed"
	updated, err := svc.Update(ctx, created.ID, req, actor)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed", store.workflows[created.ID].Name)
}

func TestWorkflowServiceGetNotFound(t *testing.T) {
	svc := NewWorkflowService(newStubWorkflowStore(), &stubAudit{}, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestWorkflowServiceActiveForNone(t *testing.T) {
	svc := NewWorkflowService(newStubWorkflowStore(), &stubAudit{}, nil)

	active, err := svc.ActiveFor(context.Background(), models.FormTypeMaterialLog)
	require.NoError(t, err)
	assert.Nil(t, active)
}
