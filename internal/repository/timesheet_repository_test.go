package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops-hq/fieldops-api/internal/models"
)

var timesheetCols = []string{
	"id", "employee_id", "project_id", "work_date", "hours", "cost_code", "notes",
	"status", "approval_level", "rejection_reason", "submitted_at", "resolved_at",
	"created_by", "created_at", "updated_at",
}

func TestTimesheetRepositoryCreateDefaultsDraft(t *testing.T) {
	db, mock, cleanup := newPermissionRepoMock(t)
	defer cleanup()

	repo := NewTimesheetRepository(db)
	mock.ExpectExec("INSERT INTO timesheets").
		WillReturnResult(sqlmock.NewResult(1, 1))

	ts := &models.Timesheet{
		EmployeeID: "emp-1",
		ProjectID:  "proj-1",
		WorkDate:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Hours:      8,
		CostCode:   "CC-100",
		CreatedBy:  "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), ts))
	assert.NotEmpty(t, ts.ID)
	assert.Equal(t, models.FormStatusDraft, ts.Status)
}

func TestTimesheetRepositoryListProjectScope(t *testing.T) {
	db, mock, cleanup := newPermissionRepoMock(t)
	defer cleanup()

	repo := NewTimesheetRepository(db)
	rows := sqlmock.NewRows(timesheetCols).
		AddRow("ts-1", "emp-1", "proj-1", time.Now(), 8.0, "CC-100", nil,
			"PENDING_APPROVAL", 1, nil, time.Now(), nil,
			"user-1", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, employee_id").
		WithArgs("proj-1", "proj-2").
		WillReturnRows(rows)

	result, err := repo.List(context.Background(), models.TimesheetFilter{
		ProjectIDs: []string{"proj-1", "proj-2"},
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, models.FormStatusPending, result[0].Status)
	assert.Equal(t, 1, result[0].ApprovalLevel)
}

func TestTimesheetRepositoryListEmptyScopeShortCircuits(t *testing.T) {
	db, mock, cleanup := newPermissionRepoMock(t)
	defer cleanup()

	repo := NewTimesheetRepository(db)
	result, err := repo.List(context.Background(), models.TimesheetFilter{
		ProjectIDs: []string{},
	})
	require.NoError(t, err)
	assert.Empty(t, result)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimesheetRepositoryUpdateApprovalState(t *testing.T) {
	db, mock, cleanup := newPermissionRepoMock(t)
	defer cleanup()

	repo := NewTimesheetRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec("UPDATE timesheets").
		WithArgs("ts-1", models.FormStatusApproved, 0, nil, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	state := models.ApprovalState{
		Status:      models.FormStatusApproved,
		SubmittedAt: &now,
		ResolvedAt:  &now,
	}
	require.NoError(t, repo.UpdateApprovalState(context.Background(), "ts-1", state))
	require.NoError(t, mock.ExpectationsWereMet())
}
