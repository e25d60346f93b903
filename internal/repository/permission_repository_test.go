package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops-hq/fieldops-api/internal/models"
)

func newPermissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestPermissionRepositoryGetByRole(t *testing.T) {
	db, mock, cleanup := newPermissionRepoMock(t)
	defer cleanup()

	repo := NewPermissionRepository(db)
	matrix, err := models.DefaultRolePermissions(models.RolePM).Modules.Value()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"role", "modules", "project_access", "updated_by", "updated_at"}).
		AddRow("PM", matrix, "all", nil, time.Now())
	mock.ExpectQuery("SELECT role, modules, project_access").
		WithArgs(models.RolePM).
		WillReturnRows(rows)

	record, err := repo.GetByRole(context.Background(), models.RolePM)
	require.NoError(t, err)
	assert.Equal(t, models.RolePM, record.Role)
	assert.Equal(t, models.ProjectAccessAll, record.ProjectAccess)
	assert.True(t, record.Modules[models.ModuleProjects].View)
}

func TestPermissionRepositoryGetByRoleMissing(t *testing.T) {
	db, mock, cleanup := newPermissionRepoMock(t)
	defer cleanup()

	repo := NewPermissionRepository(db)
	mock.ExpectQuery("SELECT role, modules, project_access").
		WithArgs(models.RoleLead).
		WillReturnError(sql.ErrNoRows)

	record, err := repo.GetByRole(context.Background(), models.RoleLead)
	assert.Nil(t, record)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestPermissionRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newPermissionRepoMock(t)
	defer cleanup()

	repo := NewPermissionRepository(db)
	mock.ExpectExec("INSERT INTO role_permissions").
		WithArgs(models.RoleSupervisor, sqlmock.AnyArg(), "assigned", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := models.DefaultRolePermissions(models.RoleSupervisor)
	require.NoError(t, repo.Upsert(context.Background(), &record))
	assert.False(t, record.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
