package models

import "time"

// Timesheet records hours worked by an employee on a project for one day.
// It embeds the approval state driving the submission workflow.
type Timesheet struct {
	ID         string    `db:"id" json:"id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	ProjectID  string    `db:"project_id" json:"project_id"`
	WorkDate   time.Time `db:"work_date" json:"work_date"`
	Hours      float64   `db:"hours" json:"hours"`
	CostCode   string    `db:"cost_code" json:"cost_code"`
	Notes      *string   `db:"notes" json:"notes,omitempty"`
	ApprovalState
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimesheetFilter constrains timesheet listing queries.
type TimesheetFilter struct {
	ProjectID  string
	EmployeeID string
	CreatedBy  string
	Status     []FormStatus
	// ProjectIDs restricts results to the given projects; used for
	// assigned-only roles. Nil means no restriction.
	ProjectIDs []string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
