package dto

import "github.com/fieldops-hq/fieldops-api/internal/models"

// CreateExportRequest queues an asynchronous export job.
type CreateExportRequest struct {
	Type      models.ExportType   `json:"type" validate:"required,oneof=timesheets material_logs"`
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	ProjectID string              `json:"project_id"`
	DateFrom  string              `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo    string              `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// ExportJobStatus is the polling response for a queued export.
type ExportJobStatus struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	ResultURL    *string `json:"result_url,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}
