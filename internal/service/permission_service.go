package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
)

type permissionStore interface {
	GetByRole(ctx context.Context, role models.UserRole) (*models.RolePermissions, error)
	List(ctx context.Context) ([]models.RolePermissions, error)
	Upsert(ctx context.Context, record *models.RolePermissions) error
}

type permissionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PermissionChangeNotifier receives a callback whenever a role's permission
// record is saved or reset, so subscribers (websocket pushers, cache peers)
// can react without polling.
type PermissionChangeNotifier interface {
	PermissionsChanged(role models.UserRole, record models.RolePermissions)
}

// PermissionChangeNotifierFunc adapts a plain function.
type PermissionChangeNotifierFunc func(role models.UserRole, record models.RolePermissions)

// PermissionsChanged implements PermissionChangeNotifier.
func (f PermissionChangeNotifierFunc) PermissionsChanged(role models.UserRole, record models.RolePermissions) {
	f(role, record)
}

// PermissionService resolves, edits, and persists role permission records.
// Reads go through the cache; saves invalidate before upsert so a concurrent
// read never resurrects a stale record past the write.
type PermissionService struct {
	repo      permissionStore
	cache     permissionCache
	audit     auditLogger
	notifiers []PermissionChangeNotifier
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// PermissionServiceOption configures the service.
type PermissionServiceOption func(*PermissionService)

// WithPermissionCache enables the read-through cache.
func WithPermissionCache(cache permissionCache, ttl time.Duration) PermissionServiceOption {
	return func(s *PermissionService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithPermissionNotifier registers a change subscriber.
func WithPermissionNotifier(notifier PermissionChangeNotifier) PermissionServiceOption {
	return func(s *PermissionService) {
		if notifier != nil {
			s.notifiers = append(s.notifiers, notifier)
		}
	}
}

// NewPermissionService constructs the service.
func NewPermissionService(repo permissionStore, audit auditLogger, logger *zap.Logger, opts ...PermissionServiceOption) *PermissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &PermissionService{
		repo:     repo,
		audit:    audit,
		cacheTTL: 10 * time.Minute,
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

func permissionCacheKey(role models.UserRole) string {
	return fmt.Sprintf("permissions:role:%s", role)
}

// GetForRole returns the effective permission record for a role, falling
// back to built-in defaults when the role has never been saved.
func (s *PermissionService) GetForRole(ctx context.Context, role models.UserRole) (models.RolePermissions, error) {
	if s.cache != nil {
		var cached models.RolePermissions
		if err := s.cache.Get(ctx, permissionCacheKey(role), &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("permission cache read failed", zap.String("role", string(role)), zap.Error(err))
		}
	}

	record, err := s.repo.GetByRole(ctx, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			defaults := models.DefaultRolePermissions(role)
			s.cacheSet(ctx, role, defaults)
			return defaults, nil
		}
		return models.RolePermissions{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role permissions")
	}

	s.cacheSet(ctx, role, *record)
	return *record, nil
}

// List returns the permission record for every managed role, materializing
// defaults for roles that were never saved.
func (s *PermissionService) List(ctx context.Context) ([]models.RolePermissions, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list role permissions")
	}

	byRole := make(map[models.UserRole]models.RolePermissions, len(stored))
	for _, record := range stored {
		byRole[record.Role] = record
	}

	roles := models.PermissionRoles()
	out := make([]models.RolePermissions, 0, len(roles))
	for _, role := range roles {
		if record, ok := byRole[role]; ok {
			out = append(out, record)
			continue
		}
		out = append(out, models.DefaultRolePermissions(role))
	}
	return out, nil
}

// Check evaluates whether the identity may perform the given action on a
// module (or child) key. Super admins bypass the matrix entirely. Unknown
// roles fall back to their built-in defaults; a key absent from the stored
// matrix denies.
func (s *PermissionService) Check(ctx context.Context, identity models.Identity, module, child models.ModuleKey, field models.PermissionField) (bool, error) {
	if identity.Role == models.RoleSuperAdmin {
		return true, nil
	}
	if !models.IsKnownModule(module) || !field.Valid() {
		return false, nil
	}

	record, err := s.GetForRole(ctx, identity.Role)
	if err != nil {
		return false, err
	}

	node, ok := record.Modules[module]
	if !ok {
		return false, nil
	}
	if child == "" {
		return node.Get(field), nil
	}
	flags, ok := node.Children[child]
	if !ok {
		return false, nil
	}
	return flags.Get(field), nil
}

// ProjectScope resolves which project IDs a list query may see. A nil slice
// means unrestricted; an empty non-nil slice means the caller sees nothing.
func (s *PermissionService) ProjectScope(ctx context.Context, identity models.Identity) ([]string, error) {
	if identity.Role == models.RoleSuperAdmin {
		return nil, nil
	}
	record, err := s.GetForRole(ctx, identity.Role)
	if err != nil {
		return nil, err
	}
	if record.ProjectAccess == models.ProjectAccessAll {
		return nil, nil
	}
	if identity.AssignedProjectIDs == nil {
		return []string{}, nil
	}
	return identity.AssignedProjectIDs, nil
}

// SetModuleFlag applies one flag change on a module or child node and
// returns the updated, unsaved record.
func (s *PermissionService) SetModuleFlag(ctx context.Context, role models.UserRole, req dto.SetModuleFlagRequest) (models.RolePermissions, error) {
	if !models.IsKnownModule(req.Module) {
		return models.RolePermissions{}, appErrors.Clone(appErrors.ErrUnknownModule, fmt.Sprintf("unknown module %q", req.Module))
	}
	if !req.Field.Valid() {
		return models.RolePermissions{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown permission field %q", req.Field))
	}

	record, err := s.GetForRole(ctx, role)
	if err != nil {
		return models.RolePermissions{}, err
	}
	if req.Child != "" {
		return record.WithChildFlag(req.Module, req.Child, req.Field, req.Value), nil
	}
	return record.WithModuleFlag(req.Module, req.Field, req.Value), nil
}

// BulkSet applies one flag value across every module and returns the
// updated, unsaved record.
func (s *PermissionService) BulkSet(ctx context.Context, role models.UserRole, req dto.BulkSetRequest) (models.RolePermissions, error) {
	if !req.Field.Valid() {
		return models.RolePermissions{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown permission field %q", req.Field))
	}
	record, err := s.GetForRole(ctx, role)
	if err != nil {
		return models.RolePermissions{}, err
	}
	return record.WithAllModules(req.Field, req.Value), nil
}

// SetProjectAccess replaces the role's project scope and returns the
// updated, unsaved record.
func (s *PermissionService) SetProjectAccess(ctx context.Context, role models.UserRole, req dto.SetProjectAccessRequest) (models.RolePermissions, error) {
	if req.Scope != models.ProjectAccessAll && req.Scope != models.ProjectAccessAssigned {
		return models.RolePermissions{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown project access scope %q", req.Scope))
	}
	record, err := s.GetForRole(ctx, role)
	if err != nil {
		return models.RolePermissions{}, err
	}
	return record.WithProjectAccess(req.Scope), nil
}

// Save persists a full permission record for a role and notifies
// subscribers. Parent flags are recomputed server-side so a tampered payload
// cannot break the parent/child invariant.
func (s *PermissionService) Save(ctx context.Context, role models.UserRole, req dto.SaveRolePermissionsRequest, actor models.Identity) (models.RolePermissions, error) {
	record := models.RolePermissions{
		Role:          role,
		Modules:       req.Modules,
		ProjectAccess: req.ProjectAccess,
		UpdatedBy:     &actor.UserID,
	}
	record = record.Normalized()

	s.cacheInvalidate(ctx, role)
	if err := s.repo.Upsert(ctx, &record); err != nil {
		return models.RolePermissions{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save role permissions")
	}
	s.cacheInvalidate(ctx, role)

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionPermissionSave,
		Resource:   "role_permissions",
		ResourceID: strPtrOf(string(role)),
	})
	s.notify(role, record)
	return record, nil
}

// ResetToDefault restores the built-in permission set for a role.
func (s *PermissionService) ResetToDefault(ctx context.Context, role models.UserRole, actor models.Identity) (models.RolePermissions, error) {
	record := models.DefaultRolePermissions(role)
	record.UpdatedBy = &actor.UserID

	s.cacheInvalidate(ctx, role)
	if err := s.repo.Upsert(ctx, &record); err != nil {
		return models.RolePermissions{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset role permissions")
	}
	s.cacheInvalidate(ctx, role)

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionPermissionReset,
		Resource:   "role_permissions",
		ResourceID: strPtrOf(string(role)),
	})
	s.notify(role, record)
	return record, nil
}

func (s *PermissionService) cacheSet(ctx context.Context, role models.UserRole, record models.RolePermissions) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, permissionCacheKey(role), record, s.cacheTTL); err != nil {
		s.logger.Warn("permission cache write failed", zap.String("role", string(role)), zap.Error(err))
	}
}

func (s *PermissionService) cacheInvalidate(ctx context.Context, role models.UserRole) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, permissionCacheKey(role)); err != nil {
		s.logger.Warn("permission cache invalidation failed", zap.String("role", string(role)), zap.Error(err))
	}
}

func (s *PermissionService) notify(role models.UserRole, record models.RolePermissions) {
	for _, notifier := range s.notifiers {
		notifier.PermissionsChanged(role, record.Clone())
	}
}

func (s *PermissionService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", log.Action), zap.Error(err))
	}
}

func strPtrOf(value string) *string {
	return &value
}
