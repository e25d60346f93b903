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
)

type permissionServiceMock struct {
	record     models.RolePermissions
	records    []models.RolePermissions
	err        error
	lastRole   models.UserRole
	lastFlag   dto.SetModuleFlagRequest
	saveCalled bool
}

func (m *permissionServiceMock) List(ctx context.Context) ([]models.RolePermissions, error) {
	return m.records, m.err
}

func (m *permissionServiceMock) GetForRole(ctx context.Context, role models.UserRole) (models.RolePermissions, error) {
	m.lastRole = role
	return m.record, m.err
}

func (m *permissionServiceMock) SetModuleFlag(ctx context.Context, role models.UserRole, req dto.SetModuleFlagRequest) (models.RolePermissions, error) {
	m.lastRole = role
	m.lastFlag = req
	return m.record, m.err
}

func (m *permissionServiceMock) BulkSet(ctx context.Context, role models.UserRole, req dto.BulkSetRequest) (models.RolePermissions, error) {
	m.lastRole = role
	return m.record, m.err
}

func (m *permissionServiceMock) SetProjectAccess(ctx context.Context, role models.UserRole, req dto.SetProjectAccessRequest) (models.RolePermissions, error) {
	m.lastRole = role
	return m.record, m.err
}

func (m *permissionServiceMock) Save(ctx context.Context, role models.UserRole, req dto.SaveRolePermissionsRequest, actor models.Identity) (models.RolePermissions, error) {
	m.saveCalled = true
	m.lastRole = role
	return m.record, m.err
}

func (m *permissionServiceMock) ResetToDefault(ctx context.Context, role models.UserRole, actor models.Identity) (models.RolePermissions, error) {
	m.lastRole = role
	return m.record, m.err
}

func permissionTestContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextIdentityKey, models.Identity{UserID: "admin-1", Role: models.RoleSuperAdmin})
	return c, w
}

func TestPermissionHandlerGetNormalizesRole(t *testing.T) {
	mockSvc := &permissionServiceMock{}
	handler := NewPermissionHandler(mockSvc)

	c, w := permissionTestContext(t, http.MethodGet, "/permissions/supervisor", nil)
	c.Params = gin.Params{{Key: "role", Value: "supervisor"}}

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleSupervisor, mockSvc.lastRole)
}

func TestPermissionHandlerRejectsUnknownRole(t *testing.T) {
	mockSvc := &permissionServiceMock{}
	handler := NewPermissionHandler(mockSvc)

	c, w := permissionTestContext(t, http.MethodGet, "/permissions/janitor", nil)
	c.Params = gin.Params{{Key: "role", Value: "janitor"}}

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, mockSvc.lastRole)
}

func TestPermissionHandlerSetFlag(t *testing.T) {
	mockSvc := &permissionServiceMock{}
	handler := NewPermissionHandler(mockSvc)

	body := []byte(`{"module":"field_forms","child":"timesheets","field":"edit","value":true}`)
	c, w := permissionTestContext(t, http.MethodPost, "/permissions/pm/flag", body)
	c.Params = gin.Params{{Key: "role", Value: "pm"}}

	handler.SetFlag(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RolePM, mockSvc.lastRole)
	assert.Equal(t, models.ModuleFieldForms, mockSvc.lastFlag.Module)
	assert.True(t, mockSvc.lastFlag.Value)
}

func TestPermissionHandlerSetFlagInvalidBody(t *testing.T) {
	mockSvc := &permissionServiceMock{}
	handler := NewPermissionHandler(mockSvc)

	c, w := permissionTestContext(t, http.MethodPost, "/permissions/pm/flag", []byte(`{"module":`))
	c.Params = gin.Params{{Key: "role", Value: "pm"}}

	handler.SetFlag(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPermissionHandlerSaveRequiresIdentity(t *testing.T) {
	mockSvc := &permissionServiceMock{}
	handler := NewPermissionHandler(mockSvc)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/permissions/pm", bytes.NewReader(nil))
	c.Request = req
	c.Params = gin.Params{{Key: "role", Value: "pm"}}

	handler.Save(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, mockSvc.saveCalled)
}
