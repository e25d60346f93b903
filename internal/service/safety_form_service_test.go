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

type stubSafetyFormStore struct {
	records map[string]*models.SafetyForm
}

func newStubSafetyFormStore() *stubSafetyFormStore {
	return &stubSafetyFormStore{records: make(map[string]*models.SafetyForm)}
}

func (s *stubSafetyFormStore) Create(ctx context.Context, form *models.SafetyForm) error {
	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	copied := *form
	s.records[form.ID] = &copied
	return nil
}

func (s *stubSafetyFormStore) GetByID(ctx context.Context, id string) (*models.SafetyForm, error) {
	form, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *form
	return &copied, nil
}

func (s *stubSafetyFormStore) List(ctx context.Context, filter models.SafetyFormFilter) ([]models.SafetyForm, error) {
	out := make([]models.SafetyForm, 0, len(s.records))
	for _, form := range s.records {
		out = append(out, *form)
	}
	return out, nil
}

func (s *stubSafetyFormStore) Update(ctx context.Context, form *models.SafetyForm) error {
	if _, ok := s.records[form.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *form
	s.records[form.ID] = &copied
	return nil
}

func (s *stubSafetyFormStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.records, id)
	return nil
}

func newSafetyFormFixture(scope []string) (*SafetyFormService, *stubSafetyFormStore) {
	store := newStubSafetyFormStore()
	svc := NewSafetyFormService(store, &stubScoper{scope: scope}, nil, nil)
	return svc, store
}

func safetyFormRequest() dto.CreateSafetyFormRequest {
	return dto.CreateSafetyFormRequest{
		Kind:      models.SafetyFormToolbox,
		ProjectID: "proj-1",
		FormDate:  "2026-08-31",
		Details:   models.SafetyFormDetails{"topic": "ladder safety", "attendees": 12},
	}
}

func TestSafetyFormServiceCreateStartsUnsubmitted(t *testing.T) {
	svc, store := newSafetyFormFixture(nil)
	actor := models.Identity{UserID: "lead-1", Role: models.RoleLead}

	form, err := svc.Create(context.Background(), safetyFormRequest(), actor)
	require.NoError(t, err)
	assert.False(t, form.Submitted)
	assert.Equal(t, "lead-1", form.CreatedBy)
	assert.Len(t, store.records, 1)
}

func TestSafetyFormServiceCreateBadDate(t *testing.T) {
	svc, _ := newSafetyFormFixture(nil)
	req := safetyFormRequest()
	req.FormDate = "31/08/2026"

	_, err := svc.Create(context.Background(), req, models.Identity{UserID: "lead-1", Role: models.RoleLead})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSafetyFormServiceSubmitLocksForm(t *testing.T) {
	svc, store := newSafetyFormFixture(nil)
	actor := models.Identity{UserID: "lead-1", Role: models.RoleLead}

	form, err := svc.Create(context.Background(), safetyFormRequest(), actor)
	require.NoError(t, err)

	submitted, err := svc.Submit(context.Background(), form.ID, actor)
	require.NoError(t, err)
	assert.True(t, submitted.Submitted)
	assert.True(t, store.records[form.ID].Submitted)

	_, err = svc.Submit(context.Background(), form.ID, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEditable.Code, appErrors.FromError(err).Code)
}

func TestSafetyFormServiceSubmitOnlyByCreator(t *testing.T) {
	svc, _ := newSafetyFormFixture(nil)
	creator := models.Identity{UserID: "lead-1", Role: models.RoleLead}

	form, err := svc.Create(context.Background(), safetyFormRequest(), creator)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), form.ID, models.Identity{UserID: "lead-2", Role: models.RoleLead})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Admins may finalize on behalf of the crew.
	_, err = svc.Submit(context.Background(), form.ID, models.Identity{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
}

func TestSafetyFormServiceScopeEnforced(t *testing.T) {
	svc, _ := newSafetyFormFixture([]string{"proj-2"})
	actor := models.Identity{UserID: "lead-1", Role: models.RoleLead, AssignedProjectIDs: []string{"proj-2"}}

	form, err := svc.Create(context.Background(), safetyFormRequest(), actor)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), form.ID, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSafetyFormServiceDeleteSubmittedRefused(t *testing.T) {
	svc, store := newSafetyFormFixture(nil)
	actor := models.Identity{UserID: "lead-1", Role: models.RoleLead}

	form, err := svc.Create(context.Background(), safetyFormRequest(), actor)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), form.ID, actor)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), form.ID, actor)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotDeletable.Code, appErrors.FromError(err).Code)
	assert.Len(t, store.records, 1)
}

func TestSafetyFormServiceDeleteDraft(t *testing.T) {
	svc, store := newSafetyFormFixture(nil)
	actor := models.Identity{UserID: "lead-1", Role: models.RoleLead}

	form, err := svc.Create(context.Background(), safetyFormRequest(), actor)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), form.ID, actor))
	assert.Empty(t, store.records)
}
