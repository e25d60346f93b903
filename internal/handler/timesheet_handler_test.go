package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/middleware"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
)

type timesheetServiceMock struct {
	timesheet    *models.Timesheet
	timesheets   []models.Timesheet
	err          error
	lastQuery    dto.TimesheetQuery
	lastCreate   dto.CreateTimesheetRequest
	deleteCalled bool
}

func (m *timesheetServiceMock) List(ctx context.Context, query dto.TimesheetQuery, actor models.Identity) ([]models.Timesheet, error) {
	m.lastQuery = query
	return m.timesheets, m.err
}

func (m *timesheetServiceMock) Get(ctx context.Context, id string, actor models.Identity) (*models.Timesheet, error) {
	return m.timesheet, m.err
}

func (m *timesheetServiceMock) Create(ctx context.Context, req dto.CreateTimesheetRequest, actor models.Identity) (*models.Timesheet, error) {
	m.lastCreate = req
	return m.timesheet, m.err
}

func (m *timesheetServiceMock) Update(ctx context.Context, id string, req dto.UpdateTimesheetRequest, actor models.Identity) (*models.Timesheet, error) {
	return m.timesheet, m.err
}

func (m *timesheetServiceMock) Delete(ctx context.Context, id string, actor models.Identity) error {
	m.deleteCalled = true
	return m.err
}

func timesheetTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextIdentityKey, models.Identity{UserID: "lead-1", Role: models.RoleLead, AssignedProjectIDs: []string{"proj-1"}})
	return c, w
}

func TestTimesheetHandlerListParsesQuery(t *testing.T) {
	mockSvc := &timesheetServiceMock{timesheets: []models.Timesheet{{ID: "ts-1"}}}
	handler := NewTimesheetHandler(mockSvc)

	c, w := timesheetTestContext(t, http.MethodGet, "/timesheets?project_id=proj-1&limit=10", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "proj-1", mockSvc.lastQuery.ProjectID)
	assert.Equal(t, 10, mockSvc.lastQuery.Limit)
}

func TestTimesheetHandlerCreate(t *testing.T) {
	mockSvc := &timesheetServiceMock{timesheet: &models.Timesheet{ID: "ts-1"}}
	handler := NewTimesheetHandler(mockSvc)

	body := []byte(`{"project_id":"proj-1","employee_id":"emp-1","work_date":"2026-08-31","hours":8,"cost_code":"CC-100"}`)
	c, w := timesheetTestContext(t, http.MethodPost, "/timesheets", body)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "proj-1", mockSvc.lastCreate.ProjectID)
	assert.Equal(t, 8.0, mockSvc.lastCreate.Hours)
}

func TestTimesheetHandlerCreateInvalidBody(t *testing.T) {
	handler := NewTimesheetHandler(&timesheetServiceMock{})

	c, w := timesheetTestContext(t, http.MethodPost, "/timesheets", []byte(`{"project_id"`))

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimesheetHandlerDeleteConflict(t *testing.T) {
	mockSvc := &timesheetServiceMock{err: appErrors.ErrNotDeletable}
	handler := NewTimesheetHandler(mockSvc)

	c, w := timesheetTestContext(t, http.MethodDelete, "/timesheets/ts-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "ts-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, mockSvc.deleteCalled)
}

func TestTimesheetHandlerDelete(t *testing.T) {
	mockSvc := &timesheetServiceMock{}
	handler := NewTimesheetHandler(mockSvc)

	c, w := timesheetTestContext(t, http.MethodDelete, "/timesheets/ts-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "ts-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}
