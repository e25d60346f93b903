package models

import "time"

// Employee is a personnel record. Workers appear here without a linked user
// account; supervisors and leads link to the account that logs in.
type Employee struct {
	ID         string     `db:"id" json:"id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	Role       UserRole   `db:"role" json:"role"`
	CompanyID  *string    `db:"company_id" json:"company_id,omitempty"`
	UserID     *string    `db:"user_id" json:"user_id,omitempty"`
	Trade      *string    `db:"trade" json:"trade,omitempty"`
	HourlyRate *float64   `db:"hourly_rate" json:"hourly_rate,omitempty"`
	Active     bool       `db:"active" json:"active"`
	HiredAt    *time.Time `db:"hired_at" json:"hired_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter constrains employee listing queries.
type EmployeeFilter struct {
	Role      *UserRole
	CompanyID string
	Active    *bool
	Search    string
	Limit     int
	Offset    int
}
