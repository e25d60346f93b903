package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldops-hq/fieldops-api/internal/models"
)

// CompanyRepository persists company records.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository constructs the repository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts a new company with generated defaults.
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now
	const query = `INSERT INTO companies (id, name, contact, phone, email, address, created_at, updated_at)
VALUES (:id, :name, :contact, :phone, :email, :address, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

// GetByID returns a company by identifier.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	const query = `SELECT id, name, contact, phone, email, address, created_at, updated_at
FROM companies WHERE id = $1`
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, err
	}
	return &company, nil
}

// List returns companies, optionally filtered by a name search.
func (r *CompanyRepository) List(ctx context.Context, search string) ([]models.Company, error) {
	query := `SELECT id, name, contact, phone, email, address, created_at, updated_at FROM companies`
	var args []interface{}
	if search != "" {
		query += ` WHERE LOWER(name) LIKE $1`
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += ` ORDER BY name ASC`
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query, args...); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// Update replaces mutable company fields.
func (r *CompanyRepository) Update(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now().UTC()
	const query = `UPDATE companies
SET name = :name, contact = :contact, phone = :phone, email = :email, address = :address, updated_at = :updated_at
WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, company)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("company %s not found", company.ID)
	}
	return nil
}

// Delete removes a company row.
func (r *CompanyRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM companies WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}
