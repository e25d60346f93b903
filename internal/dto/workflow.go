package dto

import "github.com/fieldops-hq/fieldops-api/internal/models"

// WorkflowLevelRequest defines one approval level in a workflow payload.
type WorkflowLevelRequest struct {
	Approvers []string `json:"approvers" validate:"required,min=1,dive,required"`
}

// SaveWorkflowRequest creates or replaces an approval workflow. Levels are
// renumbered contiguously from 1 in payload order.
type SaveWorkflowRequest struct {
	Name          string                 `json:"name" validate:"required"`
	IsActive      bool                   `json:"is_active"`
	AssignedForms []models.FormType      `json:"assigned_forms" validate:"required,min=1"`
	Levels        []WorkflowLevelRequest `json:"levels" validate:"required,min=1,dive"`
}

// ApproveRequest carries the optional reviewer comment.
type ApproveRequest struct {
	Comment string `json:"comment"`
}

// RejectRequest carries the mandatory rejection reason.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// PendingCounts reports per-form-type pending instance counts for the
// caller; used for notification badges.
type PendingCounts struct {
	Timesheets   int `json:"timesheets"`
	MaterialLogs int `json:"material_logs"`
	Total        int `json:"total"`
}
