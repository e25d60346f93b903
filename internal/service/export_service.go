package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	"github.com/fieldops-hq/fieldops-api/internal/repository"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/export"
	"github.com/fieldops-hq/fieldops-api/pkg/jobs"
	"github.com/fieldops-hq/fieldops-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
}

type exportTimesheetSource interface {
	List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error)
}

type exportMaterialLogSource interface {
	List(ctx context.Context, filter models.MaterialLogFilter) ([]models.MaterialLog, error)
}

type exportDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportService queues export jobs and renders their files in the
// background. Finished files land in local storage behind HMAC-signed
// download tokens.
type ExportService struct {
	repo         exportJobStore
	timesheets   exportTimesheetSource
	materialLogs exportMaterialLogSource
	queue        exportDispatcher
	store        *storage.LocalStorage
	signer       *storage.SignedURLSigner
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	logger       *zap.Logger
}

// NewExportService constructs the service. SetQueue must be called before
// Request; the queue handler is the service's Process method, so wiring is
// two-step.
func NewExportService(repo exportJobStore, timesheets exportTimesheetSource, materialLogs exportMaterialLogSource, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:         repo,
		timesheets:   timesheets,
		materialLogs: materialLogs,
		store:        store,
		signer:       signer,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		logger:       logger,
	}
}

// SetQueue attaches the job dispatcher once the queue has been built around
// Process.
func (s *ExportService) SetQueue(queue exportDispatcher) {
	s.queue = queue
}

// Request validates the payload, persists a queued job, and enqueues it.
func (s *ExportService) Request(ctx context.Context, req dto.CreateExportRequest, actor models.Identity) (*dto.ExportJobStatus, error) {
	params := models.ExportJobParams{ProjectID: req.ProjectID, Format: req.Format}
	if req.DateFrom != "" {
		from, err := dto.ParseFormDate(req.DateFrom)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_from must be yyyy-mm-dd")
		}
		params.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := dto.ParseFormDate(req.DateTo)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_to must be yyyy-mm-dd")
		}
		params.DateTo = &to
	}

	job := &models.ExportJob{
		Type:      req.Type,
		Params:    params,
		Status:    models.ExportStatusQueued,
		CreatedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue is not running")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &dto.ExportJobStatus{ID: job.ID, Type: string(job.Type), Status: string(job.Status)}, nil
}

// Status exposes job metadata, enforcing ownership for non-admins.
func (s *ExportService) Status(ctx context.Context, id string, actor models.Identity) (*dto.ExportJobStatus, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.CreatedBy != actor.UserID && actor.Role != models.RoleAdmin && actor.Role != models.RoleSuperAdmin {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ExportJobStatus{
		ID:     job.ID,
		Type:   string(job.Type),
		Status: string(job.Status),
	}
	if job.ResultURL != nil {
		resp.ResultURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.ErrorMessage = job.ErrorMessage
	}
	return resp, nil
}

// Process renders the export file for a queued job. Used as the queue
// handler; errors bubble up so the queue can retry.
func (s *ExportService) Process(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.GetByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if job.Status == models.ExportStatusFinished {
		return nil
	}

	processing := models.ExportStatusProcessing
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}

	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	var payload []byte
	var ext string
	switch job.Params.Format {
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		ext = "pdf"
	default:
		payload, err = s.csv.Render(dataset)
		ext = "csv"
	}
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	filename := fmt.Sprintf("%s-%s.%s", job.Type, job.ID, ext)
	relPath, err := s.store.Save(filename, payload)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	finished := models.ExportStatusFinished
	resultURL := "/api/v1/exports/download?token=" + token
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:     &finished,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("finalize export job: %w", err)
	}
	s.logger.Info("export job finished", zap.String("job_id", job.ID), zap.String("file", relPath))
	return nil
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "export is not ready")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer exists")
	}
	return &ExportDownload{
		File:      file,
		Filename:  relPath,
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// CleanupExpired deletes files older than the TTL; run periodically.
func (s *ExportService) CleanupExpired(ttl time.Duration) {
	removed, err := s.store.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("export cleanup removed files", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) fail(ctx context.Context, jobID string, cause error) error {
	status := models.ExportStatusFailed
	msg := cause.Error()
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:       &status,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	return cause
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ExportTypeTimesheets:
		rows, err := s.timesheets.List(ctx, models.TimesheetFilter{
			ProjectID: job.Params.ProjectID,
			DateFrom:  job.Params.DateFrom,
			DateTo:    job.Params.DateTo,
		})
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load timesheets: %w", err)
		}
		dataset := export.Dataset{
			Headers: []string{"Date", "Employee", "Project", "Cost Code", "Hours", "Status"},
		}
		var totalHours float64
		for _, ts := range rows {
			totalHours += ts.Hours
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Date":      ts.WorkDate.Format("2006-01-02"),
				"Employee":  ts.EmployeeID,
				"Project":   ts.ProjectID,
				"Cost Code": ts.CostCode,
				"Hours":     strconv.FormatFloat(ts.Hours, 'f', 2, 64),
				"Status":    string(ts.Status),
			})
		}
		if len(rows) > 0 {
			dataset.Footer = map[string]string{
				"Date":  "Total",
				"Hours": strconv.FormatFloat(totalHours, 'f', 2, 64),
			}
		}
		return dataset, "Timesheets", nil
	case models.ExportTypeMaterialLogs:
		rows, err := s.materialLogs.List(ctx, models.MaterialLogFilter{
			ProjectID: job.Params.ProjectID,
			DateFrom:  job.Params.DateFrom,
			DateTo:    job.Params.DateTo,
		})
		if err != nil {
			return export.Dataset{}, "", fmt.Errorf("load material logs: %w", err)
		}
		dataset := export.Dataset{
			Headers: []string{"Date", "Project", "Material", "Quantity", "Unit", "Status"},
		}
		for _, log := range rows {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Date":     log.UsageDate.Format("2006-01-02"),
				"Project":  log.ProjectID,
				"Material": log.Material,
				"Quantity": strconv.FormatFloat(log.Quantity, 'f', 2, 64),
				"Unit":     log.Unit,
				"Status":   string(log.Status),
			})
		}
		// Quantities carry mixed units, so the footer reports entry count only.
		if len(rows) > 0 {
			dataset.Footer = map[string]string{
				"Date":     "Total",
				"Material": fmt.Sprintf("%d entries", len(rows)),
			}
		}
		return dataset, "Material Logs", nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unknown export type %q", job.Type)
	}
}
