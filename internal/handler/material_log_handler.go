package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/service"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/response"
)

// MaterialLogHandler handles material usage log endpoints.
type MaterialLogHandler struct {
	service *service.MaterialLogService
}

// NewMaterialLogHandler constructs a material log handler.
func NewMaterialLogHandler(svc *service.MaterialLogService) *MaterialLogHandler {
	return &MaterialLogHandler{service: svc}
}

// List godoc
// @Summary List material logs visible to the caller
// @Tags MaterialLogs
// @Produce json
// @Param project_id query string false "Filter by project"
// @Param status query []string false "Filter by status"
// @Param date_from query string false "Start date (yyyy-mm-dd)"
// @Param date_to query string false "End date (yyyy-mm-dd)"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /material-logs [get]
func (h *MaterialLogHandler) List(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.MaterialLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	logs, err := h.service.List(c.Request.Context(), query, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Get godoc
// @Summary Get one material log
// @Tags MaterialLogs
// @Produce json
// @Param id path string true "Material log ID"
// @Success 200 {object} response.Envelope
// @Router /material-logs/{id} [get]
func (h *MaterialLogHandler) Get(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	log, err := h.service.Get(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Create godoc
// @Summary Create a draft material log
// @Tags MaterialLogs
// @Accept json
// @Produce json
// @Param payload body dto.CreateMaterialLogRequest true "Material log payload"
// @Success 201 {object} response.Envelope
// @Router /material-logs [post]
func (h *MaterialLogHandler) Create(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateMaterialLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.service.Create(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

// Update godoc
// @Summary Edit a draft or rejected material log
// @Tags MaterialLogs
// @Accept json
// @Produce json
// @Param id path string true "Material log ID"
// @Param payload body dto.UpdateMaterialLogRequest true "Material log payload"
// @Success 200 {object} response.Envelope
// @Router /material-logs/{id} [put]
func (h *MaterialLogHandler) Update(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateMaterialLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	log, err := h.service.Update(c.Request.Context(), c.Param("id"), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// Delete godoc
// @Summary Delete a material log (approved records are locked)
// @Tags MaterialLogs
// @Produce json
// @Param id path string true "Material log ID"
// @Success 204
// @Router /material-logs/{id} [delete]
func (h *MaterialLogHandler) Delete(c *gin.Context) {
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
