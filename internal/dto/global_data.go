package dto

import "github.com/fieldops-hq/fieldops-api/internal/models"

// CreateProjectRequest creates a project record.
type CreateProjectRequest struct {
	Code      string  `json:"code" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	CompanyID string  `json:"company_id"`
	Status    string  `json:"status" validate:"omitempty,oneof=ACTIVE ON_HOLD COMPLETED"`
	StartDate string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// UpdateProjectRequest edits a project record.
type UpdateProjectRequest struct {
	Name      string `json:"name"`
	CompanyID string `json:"company_id"`
	Status    string `json:"status" validate:"omitempty,oneof=ACTIVE ON_HOLD COMPLETED"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// AssignProjectRequest links users to a project.
type AssignProjectRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required"`
}

// CreateCompanyRequest creates a company record.
type CreateCompanyRequest struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

// CreateEmployeeRequest creates an employee record.
type CreateEmployeeRequest struct {
	FirstName  string          `json:"first_name" validate:"required"`
	LastName   string          `json:"last_name" validate:"required"`
	Role       models.UserRole `json:"role" validate:"required,oneof=ADMIN PM SUPERVISOR LEAD WORKER"`
	CompanyID  string          `json:"company_id"`
	UserID     string          `json:"user_id"`
	Trade      string          `json:"trade"`
	HourlyRate float64         `json:"hourly_rate" validate:"omitempty,gte=0"`
	HiredAt    string          `json:"hired_at" validate:"omitempty,datetime=2006-01-02"`
}

// CreateLookupValueRequest adds a value to a lookup table.
type CreateLookupValueRequest struct {
	Group     models.LookupGroup `json:"group" validate:"required"`
	Value     string             `json:"value" validate:"required"`
	Label     string             `json:"label" validate:"required"`
	SortOrder int                `json:"sort_order"`
}
