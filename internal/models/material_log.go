package models

import "time"

// MaterialLog records materials consumed on a project. It shares the same
// approval lifecycle as timesheets.
type MaterialLog struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"project_id"`
	Material  string    `db:"material" json:"material"`
	Quantity  float64   `db:"quantity" json:"quantity"`
	Unit      string    `db:"unit" json:"unit"`
	UsageDate time.Time `db:"usage_date" json:"usage_date"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	ApprovalState
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MaterialLogFilter constrains material log listing queries.
type MaterialLogFilter struct {
	ProjectID  string
	CreatedBy  string
	Status     []FormStatus
	ProjectIDs []string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}
