package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ModuleKey identifies a navigable feature area subject to permission gating.
// The set of modules is fixed at compile time; stored configurations with
// unknown keys are ignored by the evaluator.
type ModuleKey string

const (
	ModuleDashboard  ModuleKey = "dashboard"
	ModuleProjects   ModuleKey = "projects"
	ModuleGlobalData ModuleKey = "global_data"
	ModuleFieldForms ModuleKey = "field_forms"
	ModuleReports    ModuleKey = "reports"
	ModuleSettings   ModuleKey = "settings"

	ChildCompanies    ModuleKey = "companies"
	ChildEmployees    ModuleKey = "employees"
	ChildLookups      ModuleKey = "lookups"
	ChildTimesheets   ModuleKey = "timesheets"
	ChildMaterialLogs ModuleKey = "material_logs"
	ChildSafetyForms  ModuleKey = "safety_forms"
	ChildUsers        ModuleKey = "users"
	ChildPermissions  ModuleKey = "permissions"
	ChildWorkflows    ModuleKey = "workflows"
)

// moduleChildren is the closed module schema: top-level keys in navigation
// order, parents mapping to their child keys.
var moduleChildren = map[ModuleKey][]ModuleKey{
	ModuleDashboard:  nil,
	ModuleProjects:   nil,
	ModuleGlobalData: {ChildCompanies, ChildEmployees, ChildLookups},
	ModuleFieldForms: {ChildTimesheets, ChildMaterialLogs, ChildSafetyForms},
	ModuleReports:    nil,
	ModuleSettings:   {ChildUsers, ChildPermissions, ChildWorkflows},
}

// moduleOrder fixes iteration order for defaults and bulk operations.
var moduleOrder = []ModuleKey{
	ModuleDashboard,
	ModuleProjects,
	ModuleGlobalData,
	ModuleFieldForms,
	ModuleReports,
	ModuleSettings,
}

// ModuleKeys returns the top-level module keys in navigation order.
func ModuleKeys() []ModuleKey {
	keys := make([]ModuleKey, len(moduleOrder))
	copy(keys, moduleOrder)
	return keys
}

// ChildKeys returns the child keys for a parent module, nil for leaves.
func ChildKeys(module ModuleKey) []ModuleKey {
	children := moduleChildren[module]
	if len(children) == 0 {
		return nil
	}
	out := make([]ModuleKey, len(children))
	copy(out, children)
	return out
}

// IsKnownModule reports whether the key is part of the module schema.
func IsKnownModule(module ModuleKey) bool {
	_, ok := moduleChildren[module]
	return ok
}

// PermissionField selects one of the three flags on a node.
type PermissionField string

const (
	PermissionFieldView   PermissionField = "view"
	PermissionFieldEdit   PermissionField = "edit"
	PermissionFieldDelete PermissionField = "delete"
)

// Valid reports whether the field names a real flag.
func (f PermissionField) Valid() bool {
	switch f {
	case PermissionFieldView, PermissionFieldEdit, PermissionFieldDelete:
		return true
	}
	return false
}

// PermissionFlags is a leaf permission record.
type PermissionFlags struct {
	View   bool `json:"view"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
}

// Get returns the named flag.
func (p PermissionFlags) Get(field PermissionField) bool {
	switch field {
	case PermissionFieldView:
		return p.View
	case PermissionFieldEdit:
		return p.Edit
	case PermissionFieldDelete:
		return p.Delete
	}
	return false
}

// withField returns a copy with the named flag set, applying the view
// cascade: clearing view also clears edit and delete, and edit/delete can
// only be granted alongside view.
func (p PermissionFlags) withField(field PermissionField, value bool) PermissionFlags {
	switch field {
	case PermissionFieldView:
		p.View = value
		if !value {
			p.Edit = false
			p.Delete = false
		}
	case PermissionFieldEdit:
		p.Edit = value
		if value {
			p.View = true
		}
	case PermissionFieldDelete:
		p.Delete = value
		if value {
			p.View = true
		}
	}
	return p
}

// ModulePermissions is one node of the permission matrix. For parent modules
// the top-level flags are derived as the OR of the child flags.
type ModulePermissions struct {
	PermissionFlags
	Children map[ModuleKey]PermissionFlags `json:"children,omitempty"`
}

// ProjectAccessScope restricts a role to all projects or assigned ones only.
type ProjectAccessScope string

const (
	ProjectAccessAll      ProjectAccessScope = "all"
	ProjectAccessAssigned ProjectAccessScope = "assigned"
)

// ModuleMatrix maps every module key to its permission node. Stored as JSONB.
type ModuleMatrix map[ModuleKey]ModulePermissions

// Value marshals the matrix for persistence.
func (m ModuleMatrix) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal module matrix: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the matrix.
func (m *ModuleMatrix) Scan(value interface{}) error {
	if value == nil {
		*m = ModuleMatrix{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ModuleMatrix", value)
	}
	if len(data) == 0 {
		*m = ModuleMatrix{}
		return nil
	}
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("unmarshal module matrix: %w", err)
	}
	return nil
}

// RolePermissions is the full permission record for one role.
type RolePermissions struct {
	Role          UserRole           `db:"role" json:"role"`
	Modules       ModuleMatrix       `db:"modules" json:"modules"`
	ProjectAccess ProjectAccessScope `db:"project_access" json:"project_access"`
	UpdatedBy     *string            `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt     time.Time          `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so editors never alias the stored record.
func (r RolePermissions) Clone() RolePermissions {
	modules := make(ModuleMatrix, len(r.Modules))
	for key, node := range r.Modules {
		copied := ModulePermissions{PermissionFlags: node.PermissionFlags}
		if node.Children != nil {
			copied.Children = make(map[ModuleKey]PermissionFlags, len(node.Children))
			for child, flags := range node.Children {
				copied.Children[child] = flags
			}
		}
		modules[key] = copied
	}
	clone := r
	clone.Modules = modules
	return clone
}

// WithModuleFlag returns a copy with the flag applied to the module. For
// parent modules the value cascades into every child, and the parent flags
// are recomputed from the children afterwards.
func (r RolePermissions) WithModuleFlag(module ModuleKey, field PermissionField, value bool) RolePermissions {
	if !IsKnownModule(module) || !field.Valid() {
		return r.Clone()
	}
	out := r.Clone()
	node := out.Modules[module]
	if len(node.Children) > 0 {
		for child, flags := range node.Children {
			node.Children[child] = flags.withField(field, value)
		}
		node.PermissionFlags = deriveParentFlags(node.Children)
	} else {
		node.PermissionFlags = node.PermissionFlags.withField(field, value)
	}
	out.Modules[module] = node
	return out
}

// WithChildFlag returns a copy with the flag applied to a child leaf. The
// parent's flags are recomputed as the OR over all children.
func (r RolePermissions) WithChildFlag(module, child ModuleKey, field PermissionField, value bool) RolePermissions {
	out := r.Clone()
	node, ok := out.Modules[module]
	if !ok || node.Children == nil || !field.Valid() {
		return out
	}
	flags, ok := node.Children[child]
	if !ok {
		return out
	}
	node.Children[child] = flags.withField(field, value)
	node.PermissionFlags = deriveParentFlags(node.Children)
	out.Modules[module] = node
	return out
}

// WithProjectAccess returns a copy with the scope flag replaced.
func (r RolePermissions) WithProjectAccess(scope ProjectAccessScope) RolePermissions {
	out := r.Clone()
	out.ProjectAccess = scope
	return out
}

// WithAllModules applies WithModuleFlag semantics across every module,
// backing the "select all" editor action.
func (r RolePermissions) WithAllModules(field PermissionField, value bool) RolePermissions {
	out := r.Clone()
	for _, module := range moduleOrder {
		out = out.WithModuleFlag(module, field, value)
	}
	return out
}

// Normalized returns a copy reshaped onto the closed module schema: unknown
// keys are dropped, missing keys denied, the view cascade enforced on every
// leaf, and parent flags recomputed as the OR over their children.
func (r RolePermissions) Normalized() RolePermissions {
	out := r.Clone()
	modules := make(ModuleMatrix, len(moduleOrder))
	for _, module := range moduleOrder {
		node := out.Modules[module]
		children := moduleChildren[module]
		if len(children) == 0 {
			modules[module] = ModulePermissions{PermissionFlags: sanitizeFlags(node.PermissionFlags)}
			continue
		}
		childFlags := make(map[ModuleKey]PermissionFlags, len(children))
		for _, child := range children {
			childFlags[child] = sanitizeFlags(node.Children[child])
		}
		modules[module] = ModulePermissions{
			PermissionFlags: deriveParentFlags(childFlags),
			Children:        childFlags,
		}
	}
	out.Modules = modules
	if out.ProjectAccess != ProjectAccessAll && out.ProjectAccess != ProjectAccessAssigned {
		out.ProjectAccess = ProjectAccessAssigned
	}
	return out
}

// sanitizeFlags enforces the view cascade on a stored leaf.
func sanitizeFlags(flags PermissionFlags) PermissionFlags {
	if !flags.View {
		return PermissionFlags{}
	}
	return flags
}

func deriveParentFlags(children map[ModuleKey]PermissionFlags) PermissionFlags {
	var parent PermissionFlags
	for _, flags := range children {
		parent.View = parent.View || flags.View
		parent.Edit = parent.Edit || flags.Edit
		parent.Delete = parent.Delete || flags.Delete
	}
	return parent
}

// PermissionRoles lists the roles that carry a permission record.
func PermissionRoles() []UserRole {
	return []UserRole{RoleAdmin, RolePM, RoleSupervisor, RoleLead}
}

// DefaultRolePermissions returns the built-in permission set for a role.
// Unknown roles receive an empty, fully denied matrix.
func DefaultRolePermissions(role UserRole) RolePermissions {
	grant := func(view, edit, del bool) PermissionFlags {
		return PermissionFlags{View: view, Edit: edit, Delete: del}
	}

	var leaf func(module ModuleKey) PermissionFlags
	switch role {
	case RoleAdmin:
		leaf = func(ModuleKey) PermissionFlags { return grant(true, true, true) }
	case RolePM:
		leaf = func(module ModuleKey) PermissionFlags {
			switch module {
			case ChildUsers, ChildPermissions, ChildWorkflows:
				return grant(false, false, false)
			default:
				return grant(true, true, true)
			}
		}
	case RoleSupervisor:
		leaf = func(module ModuleKey) PermissionFlags {
			switch module {
			case ModuleDashboard, ModuleProjects, ChildCompanies, ChildEmployees, ChildLookups:
				return grant(true, false, false)
			case ChildTimesheets, ChildMaterialLogs, ChildSafetyForms:
				return grant(true, true, false)
			default:
				return grant(false, false, false)
			}
		}
	case RoleLead:
		leaf = func(module ModuleKey) PermissionFlags {
			switch module {
			case ModuleDashboard, ModuleProjects:
				return grant(true, false, false)
			case ChildTimesheets, ChildMaterialLogs, ChildSafetyForms:
				return grant(true, true, false)
			default:
				return grant(false, false, false)
			}
		}
	default:
		leaf = func(ModuleKey) PermissionFlags { return grant(false, false, false) }
	}

	modules := make(ModuleMatrix, len(moduleOrder))
	for _, module := range moduleOrder {
		children := moduleChildren[module]
		if len(children) == 0 {
			modules[module] = ModulePermissions{PermissionFlags: leaf(module)}
			continue
		}
		childFlags := make(map[ModuleKey]PermissionFlags, len(children))
		for _, child := range children {
			childFlags[child] = leaf(child)
		}
		modules[module] = ModulePermissions{
			PermissionFlags: deriveParentFlags(childFlags),
			Children:        childFlags,
		}
	}

	scope := ProjectAccessAll
	if role == RoleSupervisor || role == RoleLead {
		scope = ProjectAccessAssigned
	}

	return RolePermissions{
		Role:          role,
		Modules:       modules,
		ProjectAccess: scope,
		UpdatedAt:     time.Now().UTC(),
	}
}
