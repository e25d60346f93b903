package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/response"
)

type permissionService interface {
	List(ctx context.Context) ([]models.RolePermissions, error)
	GetForRole(ctx context.Context, role models.UserRole) (models.RolePermissions, error)
	SetModuleFlag(ctx context.Context, role models.UserRole, req dto.SetModuleFlagRequest) (models.RolePermissions, error)
	BulkSet(ctx context.Context, role models.UserRole, req dto.BulkSetRequest) (models.RolePermissions, error)
	SetProjectAccess(ctx context.Context, role models.UserRole, req dto.SetProjectAccessRequest) (models.RolePermissions, error)
	Save(ctx context.Context, role models.UserRole, req dto.SaveRolePermissionsRequest, actor models.Identity) (models.RolePermissions, error)
	ResetToDefault(ctx context.Context, role models.UserRole, actor models.Identity) (models.RolePermissions, error)
}

// PermissionHandler exposes the role permission matrix. Flag toggles and
// bulk edits return an unsaved preview; only save and reset persist.
type PermissionHandler struct {
	service permissionService
}

// NewPermissionHandler constructs a permission handler.
func NewPermissionHandler(svc permissionService) *PermissionHandler {
	return &PermissionHandler{service: svc}
}

func roleParam(c *gin.Context) (models.UserRole, error) {
	role := models.UserRole(strings.ToUpper(c.Param("role")))
	for _, known := range models.PermissionRoles() {
		if known == role {
			return role, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, "unknown role")
}

// List godoc
// @Summary List permission records for all manageable roles
// @Tags Permissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /permissions [get]
func (h *PermissionHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Get godoc
// @Summary Get the permission record for one role
// @Tags Permissions
// @Produce json
// @Param role path string true "Role name"
// @Success 200 {object} response.Envelope
// @Router /permissions/{role} [get]
func (h *PermissionHandler) Get(c *gin.Context) {
	role, err := roleParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.service.GetForRole(c.Request.Context(), role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// SetFlag godoc
// @Summary Toggle one permission flag (preview, not persisted)
// @Tags Permissions
// @Accept json
// @Produce json
// @Param role path string true "Role name"
// @Param payload body dto.SetModuleFlagRequest true "Flag change"
// @Success 200 {object} response.Envelope
// @Router /permissions/{role}/flag [post]
func (h *PermissionHandler) SetFlag(c *gin.Context) {
	role, err := roleParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SetModuleFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.SetModuleFlag(c.Request.Context(), role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// BulkSet godoc
// @Summary Apply one flag value across every module (preview, not persisted)
// @Tags Permissions
// @Accept json
// @Produce json
// @Param role path string true "Role name"
// @Param payload body dto.BulkSetRequest true "Bulk change"
// @Success 200 {object} response.Envelope
// @Router /permissions/{role}/bulk [post]
func (h *PermissionHandler) BulkSet(c *gin.Context) {
	role, err := roleParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.BulkSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.BulkSet(c.Request.Context(), role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// SetProjectAccess godoc
// @Summary Replace the role's project scope (preview, not persisted)
// @Tags Permissions
// @Accept json
// @Produce json
// @Param role path string true "Role name"
// @Param payload body dto.SetProjectAccessRequest true "Scope change"
// @Success 200 {object} response.Envelope
// @Router /permissions/{role}/project-access [post]
func (h *PermissionHandler) SetProjectAccess(c *gin.Context) {
	role, err := roleParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SetProjectAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.SetProjectAccess(c.Request.Context(), role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Save godoc
// @Summary Persist the full permission record for a role
// @Tags Permissions
// @Accept json
// @Produce json
// @Param role path string true "Role name"
// @Param payload body dto.SaveRolePermissionsRequest true "Permission record"
// @Success 200 {object} response.Envelope
// @Router /permissions/{role} [put]
func (h *PermissionHandler) Save(c *gin.Context) {
	role, err := roleParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SaveRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Save(c.Request.Context(), role, req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Reset godoc
// @Summary Restore the built-in permission set for a role
// @Tags Permissions
// @Produce json
// @Param role path string true "Role name"
// @Success 200 {object} response.Envelope
// @Router /permissions/{role}/reset [post]
func (h *PermissionHandler) Reset(c *gin.Context) {
	role, err := roleParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.service.ResetToDefault(c.Request.Context(), role, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
