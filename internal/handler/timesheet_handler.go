package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/response"
)

type timesheetService interface {
	List(ctx context.Context, query dto.TimesheetQuery, actor models.Identity) ([]models.Timesheet, error)
	Get(ctx context.Context, id string, actor models.Identity) (*models.Timesheet, error)
	Create(ctx context.Context, req dto.CreateTimesheetRequest, actor models.Identity) (*models.Timesheet, error)
	Update(ctx context.Context, id string, req dto.UpdateTimesheetRequest, actor models.Identity) (*models.Timesheet, error)
	Delete(ctx context.Context, id string, actor models.Identity) error
}

// TimesheetHandler handles timesheet endpoints.
type TimesheetHandler struct {
	service timesheetService
}

// NewTimesheetHandler constructs a timesheet handler.
func NewTimesheetHandler(svc timesheetService) *TimesheetHandler {
	return &TimesheetHandler{service: svc}
}

// List godoc
// @Summary List timesheets visible to the caller
// @Tags Timesheets
// @Produce json
// @Param project_id query string false "Filter by project"
// @Param employee_id query string false "Filter by employee"
// @Param status query []string false "Filter by status"
// @Param date_from query string false "Start date (yyyy-mm-dd)"
// @Param date_to query string false "End date (yyyy-mm-dd)"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /timesheets [get]
func (h *TimesheetHandler) List(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.TimesheetQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	timesheets, err := h.service.List(c.Request.Context(), query, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timesheets, nil)
}

// Get godoc
// @Summary Get one timesheet
// @Tags Timesheets
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id} [get]
func (h *TimesheetHandler) Get(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	ts, err := h.service.Get(c.Request.Context(), c.Param("id"), identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ts, nil)
}

// Create godoc
// @Summary Create a draft timesheet
// @Tags Timesheets
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimesheetRequest true "Timesheet payload"
// @Success 201 {object} response.Envelope
// @Router /timesheets [post]
func (h *TimesheetHandler) Create(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ts, err := h.service.Create(c.Request.Context(), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ts)
}

// Update godoc
// @Summary Edit a draft or rejected timesheet
// @Tags Timesheets
// @Accept json
// @Produce json
// @Param id path string true "Timesheet ID"
// @Param payload body dto.UpdateTimesheetRequest true "Timesheet payload"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id} [put]
func (h *TimesheetHandler) Update(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ts, err := h.service.Update(c.Request.Context(), c.Param("id"), req, identity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ts, nil)
}

// Delete godoc
// @Summary Delete a timesheet (approved records are locked)
// @Tags Timesheets
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 204
// @Router /timesheets/{id} [delete]
func (h *TimesheetHandler) Delete(c *gin.Context) {
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
