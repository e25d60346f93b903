package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SafetyFormKind enumerates supported safety form templates.
type SafetyFormKind string

const (
	SafetyFormJSA      SafetyFormKind = "JSA"
	SafetyFormToolbox  SafetyFormKind = "TOOLBOX_TALK"
	SafetyFormIncident SafetyFormKind = "INCIDENT_REPORT"
)

// SafetyFormDetails holds the template-specific payload as JSONB.
type SafetyFormDetails map[string]interface{}

// Value marshals the details for persistence.
func (d SafetyFormDetails) Value() (driver.Value, error) {
	if d == nil {
		d = SafetyFormDetails{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal safety form details: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the details map.
func (d *SafetyFormDetails) Scan(value interface{}) error {
	return scanJSON(value, d, "SafetyFormDetails")
}

// SafetyForm is a submitted safety record. Safety forms are not routed
// through the approval workflow; once submitted they are read-only.
type SafetyForm struct {
	ID        string            `db:"id" json:"id"`
	Kind      SafetyFormKind    `db:"kind" json:"kind"`
	ProjectID string            `db:"project_id" json:"project_id"`
	FormDate  time.Time         `db:"form_date" json:"form_date"`
	Details   SafetyFormDetails `db:"details" json:"details"`
	Submitted bool              `db:"submitted" json:"submitted"`
	CreatedBy string            `db:"created_by" json:"created_by"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// SafetyFormFilter constrains safety form listing queries.
type SafetyFormFilter struct {
	ProjectID  string
	Kind       SafetyFormKind
	CreatedBy  string
	ProjectIDs []string
	Limit      int
	Offset     int
}
