package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	"github.com/fieldops-hq/fieldops-api/internal/repository"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
	"github.com/fieldops-hq/fieldops-api/pkg/jobs"
	"github.com/fieldops-hq/fieldops-api/pkg/storage"
)

type stubExportJobStore struct {
	jobs map[string]*models.ExportJob
}

func (s *stubExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *stubExportJobStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (s *stubExportJobStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

type stubTimesheetSource struct {
	rows []models.Timesheet
}

func (s stubTimesheetSource) List(ctx context.Context, filter models.TimesheetFilter) ([]models.Timesheet, error) {
	return s.rows, nil
}

type stubMaterialLogSource struct {
	rows []models.MaterialLog
}

func (s stubMaterialLogSource) List(ctx context.Context, filter models.MaterialLogFilter) ([]models.MaterialLog, error) {
	return s.rows, nil
}

type recordingDispatcher struct {
	enqueued []jobs.Job
}

func (d *recordingDispatcher) Enqueue(job jobs.Job) error {
	d.enqueued = append(d.enqueued, job)
	return nil
}

func newExportFixture(t *testing.T) (*ExportService, *stubExportJobStore, *recordingDispatcher) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)

	repo := &stubExportJobStore{jobs: make(map[string]*models.ExportJob)}
	approved := models.ApprovalState{Status: models.FormStatusApproved}
	timesheets := stubTimesheetSource{rows: []models.Timesheet{
		{ID: "ts-1", EmployeeID: "emp-1", ProjectID: "proj-1", WorkDate: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), Hours: 8, CostCode: "CC-100", ApprovalState: approved},
		{ID: "ts-2", EmployeeID: "emp-2", ProjectID: "proj-1", WorkDate: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), Hours: 6.5, CostCode: "CC-200", ApprovalState: approved},
	}}
	materials := stubMaterialLogSource{rows: []models.MaterialLog{
		{ID: "ml-1", ProjectID: "proj-1", UsageDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), Material: "Rebar", Quantity: 120, Unit: "kg", ApprovalState: approved},
	}}

	svc := NewExportService(repo, timesheets, materials, store, signer, nil)
	dispatcher := &recordingDispatcher{}
	svc.SetQueue(dispatcher)
	return svc, repo, dispatcher
}

func TestExportServiceRequestEnqueues(t *testing.T) {
	svc, repo, dispatcher := newExportFixture(t)
	actor := models.Identity{UserID: "pm-1", Role: models.RolePM}

	status, err := svc.Request(context.Background(), dto.CreateExportRequest{
		Type:      models.ExportTypeTimesheets,
		Format:    models.ExportFormatCSV,
		ProjectID: "proj-1",
		DateFrom:  "2026-08-01",
		DateTo:    "2026-08-31",
	}, actor)
	require.NoError(t, err)
	require.NotEmpty(t, status.ID)
	assert.Equal(t, string(models.ExportStatusQueued), status.Status)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, status.ID, dispatcher.enqueued[0].ID)

	job := repo.jobs[status.ID]
	require.NotNil(t, job)
	assert.Equal(t, "pm-1", job.CreatedBy)
	require.NotNil(t, job.Params.DateFrom)
}

func TestExportServiceRequestBadDate(t *testing.T) {
	svc, _, _ := newExportFixture(t)

	_, err := svc.Request(context.Background(), dto.CreateExportRequest{
		Type:     models.ExportTypeTimesheets,
		Format:   models.ExportFormatCSV,
		DateFrom: "31-08-2026",
	}, models.Identity{UserID: "pm-1", Role: models.RolePM})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceProcessAndDownloadCSV(t *testing.T) {
	svc, repo, _ := newExportFixture(t)
	actor := models.Identity{UserID: "pm-1", Role: models.RolePM}

	status, err := svc.Request(context.Background(), dto.CreateExportRequest{
		Type:   models.ExportTypeTimesheets,
		Format: models.ExportFormatCSV,
	}, actor)
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: status.ID, Type: status.Type}))

	finished := repo.jobs[status.ID]
	assert.Equal(t, models.ExportStatusFinished, finished.Status)
	require.NotNil(t, finished.ResultURL)
	require.NotNil(t, finished.FinishedAt)

	token := strings.TrimPrefix(*finished.ResultURL, "/api/v1/exports/download?token=")
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()

	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	body := string(content)
	assert.Contains(t, body, "Date,Employee,Project,Cost Code,Hours,Status")
	assert.Contains(t, body, "emp-1")
	// Summary row totals the hours column.
	assert.Contains(t, body, "Total")
	assert.Contains(t, body, "14.50")
}

func TestExportServiceProcessPDF(t *testing.T) {
	svc, repo, _ := newExportFixture(t)
	actor := models.Identity{UserID: "pm-1", Role: models.RolePM}

	status, err := svc.Request(context.Background(), dto.CreateExportRequest{
		Type:   models.ExportTypeMaterialLogs,
		Format: models.ExportFormatPDF,
	}, actor)
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: status.ID}))

	finished := repo.jobs[status.ID]
	require.NotNil(t, finished.ResultURL)
	token := strings.TrimPrefix(*finished.ResultURL, "/api/v1/exports/download?token=")
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatPDF, download.Format)

	header := make([]byte, 4)
	_, err = download.File.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportServiceProcessUnknownTypeFails(t *testing.T) {
	svc, repo, _ := newExportFixture(t)
	repo.jobs["job-x"] = &models.ExportJob{
		ID:     "job-x",
		Type:   models.ExportType("budgets"),
		Status: models.ExportStatusQueued,
	}

	err := svc.Process(context.Background(), jobs.Job{ID: "job-x"})
	require.Error(t, err)
	assert.Equal(t, models.ExportStatusFailed, repo.jobs["job-x"].Status)
	require.NotNil(t, repo.jobs["job-x"].ErrorMessage)
}

func TestExportServiceStatusOwnership(t *testing.T) {
	svc, _, _ := newExportFixture(t)
	owner := models.Identity{UserID: "pm-1", Role: models.RolePM}

	created, err := svc.Request(context.Background(), dto.CreateExportRequest{
		Type:   models.ExportTypeTimesheets,
		Format: models.ExportFormatCSV,
	}, owner)
	require.NoError(t, err)

	_, err = svc.Status(context.Background(), created.ID, models.Identity{UserID: "lead-9", Role: models.RoleLead})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	status, err := svc.Status(context.Background(), created.ID, models.Identity{UserID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusQueued), status.Status)
}

func TestExportServiceResolveDownloadNotReady(t *testing.T) {
	svc, _, dispatcher := newExportFixture(t)
	actor := models.Identity{UserID: "pm-1", Role: models.RolePM}

	created, err := svc.Request(context.Background(), dto.CreateExportRequest{
		Type:   models.ExportTypeTimesheets,
		Format: models.ExportFormatCSV,
	}, actor)
	require.NoError(t, err)
	require.Len(t, dispatcher.enqueued, 1)

	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	token, _, err := signer.Generate(created.ID, "timesheets-"+created.ID+".csv")
	require.NoError(t, err)

	_, err = svc.ResolveDownload(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
