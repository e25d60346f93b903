package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FormType identifies a submittable field-form category.
type FormType string

const (
	FormTypeTimesheet   FormType = "timesheet"
	FormTypeMaterialLog FormType = "material_usage"
	FormTypeSafetyForm  FormType = "safety_form"
)

// FormStatus captures the approval lifecycle of a form instance.
type FormStatus string

const (
	FormStatusDraft    FormStatus = "DRAFT"
	FormStatusPending  FormStatus = "PENDING_APPROVAL"
	FormStatusApproved FormStatus = "APPROVED"
	FormStatusRejected FormStatus = "REJECTED"
)

// ApprovalLevel is one stage of a multi-step approval sequence. Approvers
// are either role names (matched case-insensitively) or individual user IDs
// (matched exactly).
type ApprovalLevel struct {
	Number    int      `json:"number"`
	Approvers []string `json:"approvers"`
}

// ApprovalLevels is the ordered, gapless level sequence stored as JSONB.
type ApprovalLevels []ApprovalLevel

// Value marshals levels for persistence.
func (l ApprovalLevels) Value() (driver.Value, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal approval levels: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the level slice.
func (l *ApprovalLevels) Scan(value interface{}) error {
	return scanJSON(value, l, "ApprovalLevels")
}

// FormTypes is the set of form types a workflow routes, stored as JSONB.
type FormTypes []FormType

// Value marshals the form type list for persistence.
func (t FormTypes) Value() (driver.Value, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal form types: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the form type list.
func (t *FormTypes) Scan(value interface{}) error {
	return scanJSON(value, t, "FormTypes")
}

// Contains reports whether the list includes the given form type.
func (t FormTypes) Contains(formType FormType) bool {
	for _, candidate := range t {
		if candidate == formType {
			return true
		}
	}
	return false
}

// ApprovalWorkflow is a configured, ordered approval sequence applicable to
// one or more form types.
type ApprovalWorkflow struct {
	ID            string         `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	AssignedForms FormTypes      `db:"assigned_forms" json:"assigned_forms"`
	Levels        ApprovalLevels `db:"levels" json:"levels"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// LastLevel returns the highest level number, zero for an empty sequence.
func (w *ApprovalWorkflow) LastLevel() int {
	if w == nil || len(w.Levels) == 0 {
		return 0
	}
	return w.Levels[len(w.Levels)-1].Number
}

// FindActiveWorkflow returns the active workflow routing the given form
// type, or nil when none is configured. A nil result is a configuration gap
// the caller must surface: pending instances of that type have no eligible
// approver.
func FindActiveWorkflow(workflows []ApprovalWorkflow, formType FormType) *ApprovalWorkflow {
	for i := range workflows {
		if workflows[i].IsActive && workflows[i].AssignedForms.Contains(formType) {
			return &workflows[i]
		}
	}
	return nil
}

// LevelFor returns the level with the given number, or nil when absent. An
// absent level means nobody is eligible to act; it is a data-integrity
// warning state, not an error.
func (w *ApprovalWorkflow) LevelFor(number int) *ApprovalLevel {
	if w == nil {
		return nil
	}
	for i := range w.Levels {
		if w.Levels[i].Number == number {
			return &w.Levels[i]
		}
	}
	return nil
}

// IsEligibleApprover reports whether the identity may act at the level. Role
// identifiers match case-insensitively, user IDs match exactly, and a
// super admin matches the generic admin identifier.
func IsEligibleApprover(level *ApprovalLevel, identity Identity) bool {
	if level == nil {
		return false
	}
	for _, approver := range level.Approvers {
		if approver == identity.UserID {
			return true
		}
		if strings.EqualFold(approver, string(identity.Role)) {
			return true
		}
		if identity.Role == RoleSuperAdmin && strings.EqualFold(approver, string(RoleAdmin)) {
			return true
		}
	}
	return false
}

// ApprovalState is the workflow-facing portion of a form instance, embedded
// in each submittable record. ApprovalLevel is only meaningful while the
// status is PENDING_APPROVAL; after rejection it keeps the level where the
// rejection happened for audit traceability.
type ApprovalState struct {
	Status          FormStatus `db:"status" json:"status"`
	ApprovalLevel   int        `db:"approval_level" json:"approval_level"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Editable reports whether the owning caller may still modify the record.
func (s ApprovalState) Editable() bool {
	return s.Status == FormStatusDraft || s.Status == FormStatusRejected
}

// Deletable reports whether the record may be removed. Approved instances
// are immutable to deletion.
func (s ApprovalState) Deletable() bool {
	return s.Status != FormStatusApproved
}

func scanJSON(value interface{}, dest interface{}, typeName string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, typeName)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", typeName, err)
	}
	return nil
}
