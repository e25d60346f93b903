package dto

import "github.com/fieldops-hq/fieldops-api/internal/models"

// SetModuleFlagRequest toggles one flag on a module node.
type SetModuleFlagRequest struct {
	Module models.ModuleKey       `json:"module" validate:"required"`
	Child  models.ModuleKey       `json:"child,omitempty"`
	Field  models.PermissionField `json:"field" validate:"required"`
	Value  bool                   `json:"value"`
}

// BulkSetRequest applies one flag value across every module.
type BulkSetRequest struct {
	Field models.PermissionField `json:"field" validate:"required"`
	Value bool                   `json:"value"`
}

// SetProjectAccessRequest replaces the role's project scope flag.
type SetProjectAccessRequest struct {
	Scope models.ProjectAccessScope `json:"scope" validate:"required,oneof=all assigned"`
}

// SaveRolePermissionsRequest persists a full edited permission record.
type SaveRolePermissionsRequest struct {
	Modules       models.ModuleMatrix       `json:"modules" validate:"required"`
	ProjectAccess models.ProjectAccessScope `json:"project_access" validate:"required,oneof=all assigned"`
}
