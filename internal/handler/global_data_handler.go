package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	"github.com/fieldops-hq/fieldops-api/internal/service"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/response"
)

// GlobalDataHandler serves the shared reference data: companies, employees
// and lookup tables.
type GlobalDataHandler struct {
	service *service.GlobalDataService
}

// NewGlobalDataHandler constructs a global data handler.
func NewGlobalDataHandler(svc *service.GlobalDataService) *GlobalDataHandler {
	return &GlobalDataHandler{service: svc}
}

// ListCompanies godoc
// @Summary List companies
// @Tags GlobalData
// @Produce json
// @Param search query string false "Search keyword"
// @Success 200 {object} response.Envelope
// @Router /companies [get]
func (h *GlobalDataHandler) ListCompanies(c *gin.Context) {
	companies, err := h.service.ListCompanies(c.Request.Context(), strings.TrimSpace(c.Query("search")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, companies, nil)
}

// GetCompany godoc
// @Summary Get one company
// @Tags GlobalData
// @Produce json
// @Param id path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Router /companies/{id} [get]
func (h *GlobalDataHandler) GetCompany(c *gin.Context) {
	company, err := h.service.GetCompany(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// CreateCompany godoc
// @Summary Create a company
// @Tags GlobalData
// @Accept json
// @Produce json
// @Param payload body dto.CreateCompanyRequest true "Company payload"
// @Success 201 {object} response.Envelope
// @Router /companies [post]
func (h *GlobalDataHandler) CreateCompany(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	company, err := h.service.CreateCompany(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, company)
}

// UpdateCompany godoc
// @Summary Edit a company
// @Tags GlobalData
// @Accept json
// @Produce json
// @Param id path string true "Company ID"
// @Param payload body dto.CreateCompanyRequest true "Company payload"
// @Success 200 {object} response.Envelope
// @Router /companies/{id} [put]
func (h *GlobalDataHandler) UpdateCompany(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	company, err := h.service.UpdateCompany(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, company, nil)
}

// DeleteCompany godoc
// @Summary Delete a company
// @Tags GlobalData
// @Produce json
// @Param id path string true "Company ID"
// @Success 204
// @Router /companies/{id} [delete]
func (h *GlobalDataHandler) DeleteCompany(c *gin.Context) {
	if err := h.service.DeleteCompany(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEmployees godoc
// @Summary List employees
// @Tags GlobalData
// @Produce json
// @Param role query string false "Filter by role"
// @Param company_id query string false "Filter by company"
// @Param search query string false "Search keyword"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *GlobalDataHandler) ListEmployees(c *gin.Context) {
	var filter models.EmployeeFilter
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(strings.ToUpper(raw))
		filter.Role = &role
	}
	filter.CompanyID = c.Query("company_id")
	filter.Search = strings.TrimSpace(c.Query("search"))
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}
	employees, err := h.service.ListEmployees(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, nil)
}

// GetEmployee godoc
// @Summary Get one employee
// @Tags GlobalData
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *GlobalDataHandler) GetEmployee(c *gin.Context) {
	employee, err := h.service.GetEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// CreateEmployee godoc
// @Summary Create an employee
// @Tags GlobalData
// @Accept json
// @Produce json
// @Param payload body dto.CreateEmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Router /employees [post]
func (h *GlobalDataHandler) CreateEmployee(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	employee, err := h.service.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// UpdateEmployee godoc
// @Summary Edit an employee
// @Tags GlobalData
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body dto.CreateEmployeeRequest true "Employee payload"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [put]
func (h *GlobalDataHandler) UpdateEmployee(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	employee, err := h.service.UpdateEmployee(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// DeleteEmployee godoc
// @Summary Delete an employee
// @Tags GlobalData
// @Produce json
// @Param id path string true "Employee ID"
// @Success 204
// @Router /employees/{id} [delete]
func (h *GlobalDataHandler) DeleteEmployee(c *gin.Context) {
	if err := h.service.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListLookupValues godoc
// @Summary List the entries of one lookup table
// @Tags GlobalData
// @Produce json
// @Param group path string true "Lookup group"
// @Success 200 {object} response.Envelope
// @Router /lookups/{group} [get]
func (h *GlobalDataHandler) ListLookupValues(c *gin.Context) {
	values, err := h.service.ListLookupValues(c.Request.Context(), models.LookupGroup(c.Param("group")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, values, nil)
}

// CreateLookupValue godoc
// @Summary Add a lookup table entry
// @Tags GlobalData
// @Accept json
// @Produce json
// @Param group path string true "Lookup group"
// @Param payload body dto.CreateLookupValueRequest true "Lookup payload"
// @Success 201 {object} response.Envelope
// @Router /lookups/{group} [post]
func (h *GlobalDataHandler) CreateLookupValue(c *gin.Context) {
	var req dto.CreateLookupValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.Group = models.LookupGroup(c.Param("group"))
	value, err := h.service.CreateLookupValue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, value)
}

// UpdateLookupValue godoc
// @Summary Edit a lookup table entry
// @Tags GlobalData
// @Accept json
// @Produce json
// @Param group path string true "Lookup group"
// @Param id path string true "Lookup value ID"
// @Success 200 {object} response.Envelope
// @Router /lookups/{group}/{id} [put]
func (h *GlobalDataHandler) UpdateLookupValue(c *gin.Context) {
	var payload struct {
		Value     string `json:"value" binding:"required"`
		Label     string `json:"label" binding:"required"`
		SortOrder int    `json:"sort_order"`
		Active    bool   `json:"active"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	value := &models.LookupValue{
		ID:        c.Param("id"),
		Group:     models.LookupGroup(c.Param("group")),
		Value:     payload.Value,
		Label:     payload.Label,
		SortOrder: payload.SortOrder,
		Active:    payload.Active,
	}
	if err := h.service.UpdateLookupValue(c.Request.Context(), value); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, value, nil)
}

// DeleteLookupValue godoc
// @Summary Soft-delete a lookup table entry
// @Tags GlobalData
// @Produce json
// @Param group path string true "Lookup group"
// @Param id path string true "Lookup value ID"
// @Success 204
// @Router /lookups/{group}/{id} [delete]
func (h *GlobalDataHandler) DeleteLookupValue(c *gin.Context) {
	if err := h.service.DeleteLookupValue(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
