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

type approvalServiceMock struct {
	state        models.ApprovalState
	err          error
	counts       dto.PendingCounts
	lastFormType models.FormType
	lastID       string
	lastReject   dto.RejectRequest
	submitCalled bool
	rejectCalled bool
}

func (m *approvalServiceMock) Submit(ctx context.Context, formType models.FormType, id string, actor models.Identity) (models.ApprovalState, error) {
	m.submitCalled = true
	m.lastFormType = formType
	m.lastID = id
	return m.state, m.err
}

func (m *approvalServiceMock) Approve(ctx context.Context, formType models.FormType, id string, actor models.Identity, req dto.ApproveRequest) (models.ApprovalState, error) {
	m.lastFormType = formType
	m.lastID = id
	return m.state, m.err
}

func (m *approvalServiceMock) Reject(ctx context.Context, formType models.FormType, id string, actor models.Identity, req dto.RejectRequest) (models.ApprovalState, error) {
	m.rejectCalled = true
	m.lastReject = req
	return m.state, m.err
}

func (m *approvalServiceMock) PendingCounts(ctx context.Context, actor models.Identity) (dto.PendingCounts, error) {
	return m.counts, m.err
}

func approvalTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextIdentityKey, models.Identity{UserID: "lead-1", Role: models.RoleLead})
	return c, w
}

func TestApprovalHandlerSubmit(t *testing.T) {
	mockSvc := &approvalServiceMock{state: models.ApprovalState{Status: models.FormStatusPending, ApprovalLevel: 1}}
	handler := NewApprovalHandler(mockSvc, nil)

	c, w := approvalTestContext(t, http.MethodPost, "/timesheets/ts-1/submit", nil)
	c.Params = gin.Params{{Key: "id", Value: "ts-1"}}

	handler.Submit(models.FormTypeTimesheet)(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.submitCalled)
	assert.Equal(t, models.FormTypeTimesheet, mockSvc.lastFormType)
	assert.Equal(t, "ts-1", mockSvc.lastID)
}

func TestApprovalHandlerSubmitRequiresIdentity(t *testing.T) {
	handler := NewApprovalHandler(&approvalServiceMock{}, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timesheets/ts-1/submit", nil)
	c.Request = req

	handler.Submit(models.FormTypeTimesheet)(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApprovalHandlerApproveEmptyBody(t *testing.T) {
	mockSvc := &approvalServiceMock{state: models.ApprovalState{Status: models.FormStatusPending, ApprovalLevel: 2}}
	handler := NewApprovalHandler(mockSvc, nil)

	// Approve takes an optional comment; posting with no body must work.
	c, w := approvalTestContext(t, http.MethodPost, "/material-logs/ml-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "ml-1"}}

	handler.Approve(models.FormTypeMaterialLog)(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FormTypeMaterialLog, mockSvc.lastFormType)
}

func TestApprovalHandlerRejectRequiresBody(t *testing.T) {
	mockSvc := &approvalServiceMock{}
	handler := NewApprovalHandler(mockSvc, nil)

	c, w := approvalTestContext(t, http.MethodPost, "/timesheets/ts-1/reject", []byte(`{"reason":`))
	c.Params = gin.Params{{Key: "id", Value: "ts-1"}}

	handler.Reject(models.FormTypeTimesheet)(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.rejectCalled)
}

func TestApprovalHandlerRejectPassesReason(t *testing.T) {
	mockSvc := &approvalServiceMock{state: models.ApprovalState{Status: models.FormStatusRejected, ApprovalLevel: 1}}
	handler := NewApprovalHandler(mockSvc, nil)

	c, w := approvalTestContext(t, http.MethodPost, "/timesheets/ts-1/reject", []byte(`{"reason":"hours exceed shift"}`))
	c.Params = gin.Params{{Key: "id", Value: "ts-1"}}

	handler.Reject(models.FormTypeTimesheet)(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.rejectCalled)
	assert.Equal(t, "hours exceed shift", mockSvc.lastReject.Reason)
}

func TestApprovalHandlerServiceErrorPassthrough(t *testing.T) {
	mockSvc := &approvalServiceMock{err: appErrors.ErrNotEligible}
	handler := NewApprovalHandler(mockSvc, nil)

	c, w := approvalTestContext(t, http.MethodPost, "/timesheets/ts-1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "ts-1"}}

	handler.Approve(models.FormTypeTimesheet)(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestApprovalHandlerPendingCounts(t *testing.T) {
	mockSvc := &approvalServiceMock{counts: dto.PendingCounts{Timesheets: 2, MaterialLogs: 1, Total: 3}}
	handler := NewApprovalHandler(mockSvc, nil)

	c, w := approvalTestContext(t, http.MethodGet, "/approvals/pending-counts", nil)

	handler.PendingCounts(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":3`)
}
