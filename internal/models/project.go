package models

import "time"

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

// Project is a job site that field forms and assignments reference.
type Project struct {
	ID        string        `db:"id" json:"id"`
	Code      string        `db:"code" json:"code"`
	Name      string        `db:"name" json:"name"`
	CompanyID *string       `db:"company_id" json:"company_id,omitempty"`
	Status    ProjectStatus `db:"status" json:"status"`
	StartDate *time.Time    `db:"start_date" json:"start_date,omitempty"`
	EndDate   *time.Time    `db:"end_date" json:"end_date,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// ProjectAssignment links a user to a project for assigned-only scoping.
type ProjectAssignment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ProjectID string    `db:"project_id" json:"project_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProjectFilter constrains project listing queries.
type ProjectFilter struct {
	Status    *ProjectStatus
	CompanyID string
	Search    string
	Limit     int
	Offset    int
}
