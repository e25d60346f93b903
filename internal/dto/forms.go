package dto

import (
	"time"

	"github.com/fieldops-hq/fieldops-api/internal/models"
)

// CreateTimesheetRequest creates a draft timesheet.
type CreateTimesheetRequest struct {
	EmployeeID string  `json:"employee_id" validate:"required"`
	ProjectID  string  `json:"project_id" validate:"required"`
	WorkDate   string  `json:"work_date" validate:"required,datetime=2006-01-02"`
	Hours      float64 `json:"hours" validate:"required,gt=0,lte=24"`
	CostCode   string  `json:"cost_code" validate:"required"`
	Notes      string  `json:"notes"`
}

// UpdateTimesheetRequest edits a draft or rejected timesheet.
type UpdateTimesheetRequest struct {
	WorkDate string  `json:"work_date" validate:"omitempty,datetime=2006-01-02"`
	Hours    float64 `json:"hours" validate:"omitempty,gt=0,lte=24"`
	CostCode string  `json:"cost_code"`
	Notes    *string `json:"notes"`
}

// TimesheetQuery filters timesheet listings.
type TimesheetQuery struct {
	ProjectID  string              `form:"project_id"`
	EmployeeID string              `form:"employee_id"`
	Status     []models.FormStatus `form:"status"`
	DateFrom   string              `form:"date_from"`
	DateTo     string              `form:"date_to"`
	Limit      int                 `form:"limit"`
	Offset     int                 `form:"offset"`
}

// CreateMaterialLogRequest creates a draft material usage log.
type CreateMaterialLogRequest struct {
	ProjectID string  `json:"project_id" validate:"required"`
	Material  string  `json:"material" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	Unit      string  `json:"unit" validate:"required"`
	UsageDate string  `json:"usage_date" validate:"required,datetime=2006-01-02"`
	Notes     string  `json:"notes"`
}

// UpdateMaterialLogRequest edits a draft or rejected material log.
type UpdateMaterialLogRequest struct {
	Material  string  `json:"material"`
	Quantity  float64 `json:"quantity" validate:"omitempty,gt=0"`
	Unit      string  `json:"unit"`
	UsageDate string  `json:"usage_date" validate:"omitempty,datetime=2006-01-02"`
	Notes     *string `json:"notes"`
}

// MaterialLogQuery filters material log listings.
type MaterialLogQuery struct {
	ProjectID string              `form:"project_id"`
	Status    []models.FormStatus `form:"status"`
	DateFrom  string              `form:"date_from"`
	DateTo    string              `form:"date_to"`
	Limit     int                 `form:"limit"`
	Offset    int                 `form:"offset"`
}

// CreateSafetyFormRequest records a safety form.
type CreateSafetyFormRequest struct {
	Kind      models.SafetyFormKind    `json:"kind" validate:"required,oneof=JSA TOOLBOX_TALK INCIDENT_REPORT"`
	ProjectID string                   `json:"project_id" validate:"required"`
	FormDate  string                   `json:"form_date" validate:"required,datetime=2006-01-02"`
	Details   models.SafetyFormDetails `json:"details" validate:"required"`
}

// ParseFormDate parses the yyyy-mm-dd wire format used by form payloads.
func ParseFormDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}
