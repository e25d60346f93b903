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

type stubTimesheetStore struct {
	records    map[string]*models.Timesheet
	lastFilter models.TimesheetFilter
	listCalled bool
}

func newStubTimesheetStore() *stubTimesheetStore {
	return &stubTimesheetStore{records: map[string]*models.Timesheet{}}
}

func (s *stubTimesheetStore) Create(ctx context.Context, ts *models.Timesheet) error {
	if ts.ID == "" {
		ts.ID = uuid.NewString()
	}
	if ts.Status == "" {
		ts.Status = models.FormStatusDraft
	}
	copied := *ts
	s.records[ts.ID] = &copied
	return nil
}

func (s *stubTimesheetStore) GetByID(ctx context.Context, id string) (*models.Timesheet, error) {
	ts, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *ts
	return &copied, nil
}

func (s *stubTimesheetStore) List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error) {
	s.listCalled = true
	s.lastFilter = filter
	var out []models.Timesheet
	for _, ts := range s.records {
		out = append(out, *ts)
	}
	return out, nil
}

func (s *stubTimesheetStore) Update(ctx context.Context, ts *models.Timesheet) error {
	if _, ok := s.records[ts.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *ts
	s.records[ts.ID] = &copied
	return nil
}

func (s *stubTimesheetStore) Delete(ctx context.Context, id string) error {
	delete(s.records, id)
	return nil
}

// stubScoper returns a fixed project scope regardless of identity.
type stubScoper struct {
	scope []string
}

func (s *stubScoper) ProjectScope(ctx context.Context, identity models.Identity) ([]string, error) {
	return s.scope, nil
}

func seedTimesheet(store *stubTimesheetStore, id string, status models.FormStatus) {
	store.records[id] = &models.Timesheet{
		ID:            id,
		EmployeeID:    "emp-1",
		ProjectID:     "proj-1",
		Hours:         8,
		CostCode:      "CC-100",
		CreatedBy:     "lead-1",
		ApprovalState: models.ApprovalState{Status: status},
	}
}

func TestTimesheetServiceCreateStartsAsDraft(t *testing.T) {
	store := newStubTimesheetStore()
	svc := NewTimesheetService(store, &stubScoper{}, nil)

	ts, err := svc.Create(context.Background(), dto.CreateTimesheetRequest{
		EmployeeID: "emp-1",
		ProjectID:  "proj-1",
		WorkDate:   "2026-08-31",
		Hours:      7.5,
		CostCode:   "CC-100",
	}, models.Identity{UserID: "lead-1", Role: models.RoleLead})
	require.NoError(t, err)
	assert.Equal(t, models.FormStatusDraft, store.records[ts.ID].Status)
	assert.Equal(t, "lead-1", ts.CreatedBy)
}

func TestTimesheetServiceCreateRejectsBadDate(t *testing.T) {
	svc := NewTimesheetService(newStubTimesheetStore(), &stubScoper{}, nil)

	_, err := svc.Create(context.Background(), dto.CreateTimesheetRequest{
		EmployeeID: "emp-1",
		ProjectID:  "proj-1",
		WorkDate:   "31/08/2026",
		Hours:      8,
		CostCode:   "CC-100",
	}, models.Identity{UserID: "lead-1", Role: models.RoleLead})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimesheetServiceGetEnforcesScope(t *testing.T) {
	store := newStubTimesheetStore()
	seedTimesheet(store, "ts-1", models.FormStatusDraft)
	svc := NewTimesheetService(store, &stubScoper{scope: []string{"proj-2"}}, nil)

	_, err := svc.Get(context.Background(), "ts-1", models.Identity{UserID: "lead-1", Role: models.RoleLead})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTimesheetServiceGetNilScopeIsUnrestricted(t *testing.T) {
	store := newStubTimesheetStore()
	seedTimesheet(store, "ts-1", models.FormStatusDraft)
	svc := NewTimesheetService(store, &stubScoper{scope: nil}, nil)

	ts, err := svc.Get(context.Background(), "ts-1", models.Identity{UserID: "pm-1", Role: models.RolePM})
	require.NoError(t, err)
	assert.Equal(t, "ts-1", ts.ID)
}

func TestTimesheetServiceListAppliesScopeAndLimit(t *testing.T) {
	store := newStubTimesheetStore()
	svc := NewTimesheetService(store, &stubScoper{scope: []string{"proj-1", "proj-2"}}, nil)

	_, err := svc.List(context.Background(), dto.TimesheetQuery{Limit: 0}, models.Identity{UserID: "lead-1", Role: models.RoleLead})
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-1", "proj-2"}, store.lastFilter.ProjectIDs)
	assert.Equal(t, 50, store.lastFilter.Limit, "limit defaults when unset")

	_, err = svc.List(context.Background(), dto.TimesheetQuery{Limit: 500}, models.Identity{UserID: "lead-1", Role: models.RoleLead})
	require.NoError(t, err)
	assert.Equal(t, 50, store.lastFilter.Limit, "oversized limit is clamped")
}

func TestTimesheetServiceUpdateLockedWhenPending(t *testing.T) {
	store := newStubTimesheetStore()
	seedTimesheet(store, "ts-1", models.FormStatusPending)
	svc := NewTimesheetService(store, &stubScoper{}, nil)

	_, err := svc.Update(context.Background(), "ts-1", dto.UpdateTimesheetRequest{Hours: 6},
		models.Identity{UserID: "lead-1", Role: models.RoleLead})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEditable.Code, appErrors.FromError(err).Code)
}

func TestTimesheetServiceUpdateRejectedAllowed(t *testing.T) {
	store := newStubTimesheetStore()
	seedTimesheet(store, "ts-1", models.FormStatusRejected)
	svc := NewTimesheetService(store, &stubScoper{}, nil)

	ts, err := svc.Update(context.Background(), "ts-1", dto.UpdateTimesheetRequest{Hours: 6},
		models.Identity{UserID: "lead-1", Role: models.RoleLead})
	require.NoError(t, err)
	assert.Equal(t, 6.0, ts.Hours)
}

func TestTimesheetServiceUpdateOnlyByCreator(t *testing.T) {
	store := newStubTimesheetStore()
	seedTimesheet(store, "ts-1", models.FormStatusDraft)
	svc := NewTimesheetService(store, &stubScoper{}, nil)

	_, err := svc.Update(context.Background(), "ts-1", dto.UpdateTimesheetRequest{Hours: 6},
		models.Identity{UserID: "other-lead", Role: models.RoleLead})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// Admins may edit records they did not create.
	_, err = svc.Update(context.Background(), "ts-1", dto.UpdateTimesheetRequest{Hours: 6},
		models.Identity{UserID: "adm-1", Role: models.RoleAdmin})
	require.NoError(t, err)
}

func TestTimesheetServiceDeleteApprovedRefused(t *testing.T) {
	store := newStubTimesheetStore()
	seedTimesheet(store, "ts-1", models.FormStatusApproved)
	svc := NewTimesheetService(store, &stubScoper{}, nil)

	err := svc.Delete(context.Background(), "ts-1", models.Identity{UserID: "adm-1", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotDeletable.Code, appErrors.FromError(err).Code)
	assert.Contains(t, store.records, "ts-1")
}

func TestTimesheetServiceDeleteDraft(t *testing.T) {
	store := newStubTimesheetStore()
	seedTimesheet(store, "ts-1", models.FormStatusDraft)
	svc := NewTimesheetService(store, &stubScoper{}, nil)

	err := svc.Delete(context.Background(), "ts-1", models.Identity{UserID: "lead-1", Role: models.RoleLead})
	require.NoError(t, err)
	assert.NotContains(t, store.records, "ts-1")
}
