package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	"github.com/fieldops-hq/fieldops-api/internal/service"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/response"
)

// SafetyFormHandler handles safety form endpoints. Safety forms are not
// approval-routed; submission locks them in place.
type SafetyFormHandler struct {
	service *service.SafetyFormService
}

// NewSafetyFormHandler constructs a safety form handler.
func NewSafetyFormHandler(svc *service.SafetyFormService) *SafetyFormHandler {
	return &SafetyFormHandler{service: svc}
}

// List godoc
// @Summary List safety forms visible to the caller
// @Tags SafetyForms
// @Produce json
// @Param project_id query string false "Filter by project"
// @Param kind query string false "Filter by kind"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /safety-forms [get]
func (h *SafetyFormHandler) List(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.SafetyFormFilter{
		ProjectID: c.Query("project_id"),
		Kind:      models.SafetyFormKind(c.Query("kind")),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}
	forms, err := h.service.List(c.Request.Context(), filter, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, forms, nil)
}

// Get godoc
// @Summary Get one safety form
// @Tags SafetyForms
// @Produce json
// @Param id path string true "Safety form ID"
// @Success 200 {object} response.Envelope
// @Router /safety-forms/{id} [get]
func (h *SafetyFormHandler) Get(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	form, err := h.service.Get(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Create godoc
// @Summary Record a safety form
// @Tags SafetyForms
// @Accept json
// @Produce json
// @Param payload body dto.CreateSafetyFormRequest true "Safety form payload"
// @Success 201 {object} response.Envelope
// @Router /safety-forms [post]
func (h *SafetyFormHandler) Create(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateSafetyFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.service.Create(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, form)
}

// Submit godoc
// @Summary Submit a safety form, locking it against edits
// @Tags SafetyForms
// @Produce json
// @Param id path string true "Safety form ID"
// @Success 200 {object} response.Envelope
// @Router /safety-forms/{id}/submit [post]
func (h *SafetyFormHandler) Submit(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	form, err := h.service.Submit(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Delete godoc
// @Summary Delete an unsubmitted safety form
// @Tags SafetyForms
// @Produce json
// @Param id path string true "Safety form ID"
// @Success 204
// @Router /safety-forms/{id} [delete]
func (h *SafetyFormHandler) Delete(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), identity); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
