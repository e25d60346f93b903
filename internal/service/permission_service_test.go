package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
)

type stubPermissionStore struct {
	records map[models.UserRole]*models.RolePermissions
	saved   []models.RolePermissions
}

func (s *stubPermissionStore) GetByRole(ctx context.Context, role models.UserRole) (*models.RolePermissions, error) {
	record, ok := s.records[role]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return record, nil
}

func (s *stubPermissionStore) List(ctx context.Context) ([]models.RolePermissions, error) {
	out := make([]models.RolePermissions, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, nil
}

func (s *stubPermissionStore) Upsert(ctx context.Context, record *models.RolePermissions) error {
	if s.records == nil {
		s.records = make(map[models.UserRole]*models.RolePermissions)
	}
	clone := record.Clone()
	s.records[record.Role] = &clone
	s.saved = append(s.saved, clone)
	return nil
}

type stubCache struct {
	entries map[string][]byte
	deletes []string
}

func (c *stubCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (c *stubCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (c *stubCache) Delete(ctx context.Context, key string) error {
	c.deletes = append(c.deletes, key)
	return nil
}

type stubAudit struct {
	logs []models.AuditLog
}

func (a *stubAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, *log)
	return nil
}

func TestPermissionServiceGetForRoleFallsBackToDefaults(t *testing.T) {
	svc := NewPermissionService(&stubPermissionStore{}, nil, nil)

	record, err := svc.GetForRole(context.Background(), models.RoleLead)
	require.NoError(t, err)
	assert.Equal(t, models.RoleLead, record.Role)
	assert.Equal(t, models.ProjectAccessAssigned, record.ProjectAccess)
	assert.True(t, record.Modules[models.ModuleDashboard].View)
	assert.False(t, record.Modules[models.ModuleSettings].View)
}

func TestPermissionServiceCheckSuperAdminBypasses(t *testing.T) {
	svc := NewPermissionService(&stubPermissionStore{}, nil, nil)

	allowed, err := svc.Check(context.Background(), models.Identity{Role: models.RoleSuperAdmin},
		models.ModuleSettings, models.ChildPermissions, models.PermissionFieldDelete)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestPermissionServiceCheckUnknownModuleDenies(t *testing.T) {
	svc := NewPermissionService(&stubPermissionStore{}, nil, nil)

	allowed, err := svc.Check(context.Background(), models.Identity{Role: models.RoleAdmin},
		models.ModuleKey("payroll"), "", models.PermissionFieldView)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPermissionServiceCheckUnknownRoleUsesDefaults(t *testing.T) {
	svc := NewPermissionService(&stubPermissionStore{}, nil, nil)

	allowed, err := svc.Check(context.Background(), models.Identity{Role: models.UserRole("CONTRACTOR")},
		models.ModuleDashboard, "", models.PermissionFieldView)
	require.NoError(t, err)
	assert.False(t, allowed, "unknown roles get a fully denied default matrix")
}

func TestPermissionServiceCheckChildFlag(t *testing.T) {
	svc := NewPermissionService(&stubPermissionStore{}, nil, nil)

	allowed, err := svc.Check(context.Background(), models.Identity{Role: models.RoleSupervisor},
		models.ModuleFieldForms, models.ChildTimesheets, models.PermissionFieldEdit)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Check(context.Background(), models.Identity{Role: models.RoleSupervisor},
		models.ModuleFieldForms, models.ChildTimesheets, models.PermissionFieldDelete)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestPermissionServiceSetModuleFlagCascades(t *testing.T) {
	svc := NewPermissionService(&stubPermissionStore{}, nil, nil)

	record, err := svc.SetModuleFlag(context.Background(), models.RolePM, dto.SetModuleFlagRequest{
		Module: models.ModuleGlobalData,
		Field:  models.PermissionFieldView,
		Value:  false,
	})
	require.NoError(t, err)

	node := record.Modules[models.ModuleGlobalData]
	assert.False(t, node.View)
	assert.False(t, node.Edit, "clearing view clears edit on every child")
	for child, flags := range node.Children {
		assert.False(t, flags.View, "child %s should be cleared", child)
		assert.False(t, flags.Edit)
		assert.False(t, flags.Delete)
	}
}

func TestPermissionServiceChildFlagRecomputesParent(t *testing.T) {
	svc := NewPermissionService(&stubPermissionStore{}, nil, nil)

	// Lead defaults: settings fully denied. Granting one child view must
	// flip the parent view on.
	record, err := svc.SetModuleFlag(context.Background(), models.RoleLead, dto.SetModuleFlagRequest{
		Module: models.ModuleSettings,
		Child:  models.ChildUsers,
		Field:  models.PermissionFieldView,
		Value:  true,
	})
	require.NoError(t, err)

	node := record.Modules[models.ModuleSettings]
	assert.True(t, node.Children[models.ChildUsers].View)
	assert.True(t, node.View, "parent view is the OR over children")
	assert.False(t, node.Edit)
}

func TestPermissionServiceSetModuleFlagUnknownModule(t *testing.T) {
	svc := NewPermissionService(&stubPermissionStore{}, nil, nil)

	_, err := svc.SetModuleFlag(context.Background(), models.RolePM, dto.SetModuleFlagRequest{
		Module: models.ModuleKey("payroll"),
		Field:  models.PermissionFieldView,
		Value:  true,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnknownModule.Code, appErr.Code)
}

func TestPermissionServiceSaveInvalidatesCacheAndNotifies(t *testing.T) {
	store := &stubPermissionStore{}
	cache := &stubCache{}
	audit := &stubAudit{}

	var notified []models.UserRole
	svc := NewPermissionService(store, audit, nil,
		WithPermissionCache(cache, time.Minute),
		WithPermissionNotifier(PermissionChangeNotifierFunc(func(role models.UserRole, record models.RolePermissions) {
			notified = append(notified, role)
		})),
	)

	defaults := models.DefaultRolePermissions(models.RolePM)
	saved, err := svc.Save(context.Background(), models.RolePM, dto.SaveRolePermissionsRequest{
		Modules:       defaults.Modules,
		ProjectAccess: models.ProjectAccessAll,
	}, models.Identity{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	assert.Len(t, store.saved, 1)
	assert.Equal(t, []models.UserRole{models.RolePM}, notified)
	assert.NotEmpty(t, cache.deletes, "save must invalidate the cached record")
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionPermissionSave, audit.logs[0].Action)
	assert.Equal(t, models.ProjectAccessAll, saved.ProjectAccess)
}

func TestPermissionServiceSaveNormalizesTamperedPayload(t *testing.T) {
	store := &stubPermissionStore{}
	svc := NewPermissionService(store, nil, nil)

	// Hand-crafted matrix with edit=true but view=false on a child.
	matrix := models.DefaultRolePermissions(models.RoleLead).Modules
	node := matrix[models.ModuleFieldForms]
	node.Children[models.ChildTimesheets] = models.PermissionFlags{View: false, Edit: true, Delete: true}
	matrix[models.ModuleFieldForms] = node

	saved, err := svc.Save(context.Background(), models.RoleLead, dto.SaveRolePermissionsRequest{
		Modules:       matrix,
		ProjectAccess: models.ProjectAccessAssigned,
	}, models.Identity{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	flags := saved.Modules[models.ModuleFieldForms].Children[models.ChildTimesheets]
	assert.False(t, flags.Edit, "edit without view must be stripped")
	assert.False(t, flags.Delete)
}

func TestPermissionServiceResetToDefaultIsIdempotent(t *testing.T) {
	store := &stubPermissionStore{}
	svc := NewPermissionService(store, nil, nil)
	actor := models.Identity{UserID: "admin-1", Role: models.RoleAdmin}

	first, err := svc.ResetToDefault(context.Background(), models.RoleSupervisor, actor)
	require.NoError(t, err)
	second, err := svc.ResetToDefault(context.Background(), models.RoleSupervisor, actor)
	require.NoError(t, err)

	assert.Equal(t, first.Modules, second.Modules)
	assert.Equal(t, first.ProjectAccess, second.ProjectAccess)
}

func TestPermissionServiceProjectScope(t *testing.T) {
	svc := NewPermissionService(&stubPermissionStore{}, nil, nil)

	// All-scope role sees everything.
	scope, err := svc.ProjectScope(context.Background(), models.Identity{Role: models.RolePM})
	require.NoError(t, err)
	assert.Nil(t, scope)

	// Assigned-scope role with assignments.
	scope, err = svc.ProjectScope(context.Background(), models.Identity{
		Role:               models.RoleLead,
		AssignedProjectIDs: []string{"proj-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"proj-1"}, scope)

	// Assigned-scope role with no assignments sees nothing.
	scope, err = svc.ProjectScope(context.Background(), models.Identity{Role: models.RoleSupervisor})
	require.NoError(t, err)
	require.NotNil(t, scope)
	assert.Empty(t, scope)
}
