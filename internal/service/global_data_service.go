package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/fieldops-hq/fieldops-api/internal/dto"
	"github.com/fieldops-hq/fieldops-api/internal/models"
	appErrors "github.com/fieldops-hq/fieldops-api/pkg/errors"
)

type companyStore interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id string) (*models.Company, error)
	List(ctx context.Context, search string) ([]models.Company, error)
	Update(ctx context.Context, company *models.Company) error
	Delete(ctx context.Context, id string) error
}

type employeeStore interface {
	Create(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id string) (*models.Employee, error)
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error)
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id string) error
}

type lookupStore interface {
	ListByGroup(ctx context.Context, group models.LookupGroup) ([]models.LookupValue, error)
	Create(ctx context.Context, value *models.LookupValue) error
	Update(ctx context.Context, value *models.LookupValue) error
	Delete(ctx context.Context, id string) error
}

// GlobalDataService covers the reference-data screens: companies, employees,
// and lookup tables.
type GlobalDataService struct {
	companies companyStore
	employees employeeStore
	lookups   lookupStore
	logger    *zap.Logger
}

// NewGlobalDataService constructs the service.
func NewGlobalDataService(companies companyStore, employees employeeStore, lookups lookupStore, logger *zap.Logger) *GlobalDataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GlobalDataService{companies: companies, employees: employees, lookups: lookups, logger: logger}
}

// CreateCompany stores a new company.
func (s *GlobalDataService) CreateCompany(ctx context.Context, req dto.CreateCompanyRequest) (*models.Company, error) {
	company := &models.Company{Name: req.Name}
	if req.Contact != "" {
		company.Contact = &req.Contact
	}
	if req.Phone != "" {
		company.Phone = &req.Phone
	}
	if req.Email != "" {
		company.Email = &req.Email
	}
	if req.Address != "" {
		company.Address = &req.Address
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create company")
	}
	return company, nil
}

// GetCompany returns a single company.
func (s *GlobalDataService) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	return company, nil
}

// ListCompanies returns companies matching the optional search term.
func (s *GlobalDataService) ListCompanies(ctx context.Context, search string) ([]models.Company, error) {
	return s.companies.List(ctx, search)
}

// UpdateCompany edits a company record.
func (s *GlobalDataService) UpdateCompany(ctx context.Context, id string, req dto.CreateCompanyRequest) (*models.Company, error) {
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		company.Name = req.Name
	}
	if req.Contact != "" {
		company.Contact = &req.Contact
	}
	if req.Phone != "" {
		company.Phone = &req.Phone
	}
	if req.Email != "" {
		company.Email = &req.Email
	}
	if req.Address != "" {
		company.Address = &req.Address
	}
	if err := s.companies.Update(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update company")
	}
	return company, nil
}

// DeleteCompany removes a company record.
func (s *GlobalDataService) DeleteCompany(ctx context.Context, id string) error {
	if _, err := s.GetCompany(ctx, id); err != nil {
		return err
	}
	if err := s.companies.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete company")
	}
	return nil
}

// CreateEmployee stores a new personnel record.
func (s *GlobalDataService) CreateEmployee(ctx context.Context, req dto.CreateEmployeeRequest) (*models.Employee, error) {
	employee := &models.Employee{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Active:    true,
	}
	if req.CompanyID != "" {
		employee.CompanyID = &req.CompanyID
	}
	if req.UserID != "" {
		employee.UserID = &req.UserID
	}
	if req.Trade != "" {
		employee.Trade = &req.Trade
	}
	if req.HourlyRate > 0 {
		employee.HourlyRate = &req.HourlyRate
	}
	if req.HiredAt != "" {
		hired, err := dto.ParseFormDate(req.HiredAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "hired_at must be yyyy-mm-dd")
		}
		employee.HiredAt = &hired
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	return employee, nil
}

// GetEmployee returns a single employee.
func (s *GlobalDataService) GetEmployee(ctx context.Context, id string) (*models.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// ListEmployees returns employees matching the filter.
func (s *GlobalDataService) ListEmployees(ctx context.Context, filter models.EmployeeFilter) ([]models.Employee, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.employees.List(ctx, filter)
}

// UpdateEmployee edits a personnel record.
func (s *GlobalDataService) UpdateEmployee(ctx context.Context, id string, req dto.CreateEmployeeRequest) (*models.Employee, error) {
	employee, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != "" {
		employee.FirstName = req.FirstName
	}
	if req.LastName != "" {
		employee.LastName = req.LastName
	}
	if req.Role != "" {
		employee.Role = req.Role
	}
	if req.CompanyID != "" {
		employee.CompanyID = &req.CompanyID
	}
	if req.Trade != "" {
		employee.Trade = &req.Trade
	}
	if req.HourlyRate > 0 {
		employee.HourlyRate = &req.HourlyRate
	}
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}
	return employee, nil
}

// DeleteEmployee removes a personnel record.
func (s *GlobalDataService) DeleteEmployee(ctx context.Context, id string) error {
	if _, err := s.GetEmployee(ctx, id); err != nil {
		return err
	}
	if err := s.employees.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete employee")
	}
	return nil
}

// ListLookupValues returns the entries of one lookup table.
func (s *GlobalDataService) ListLookupValues(ctx context.Context, group models.LookupGroup) ([]models.LookupValue, error) {
	if !knownLookupGroup(group) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown lookup group")
	}
	return s.lookups.ListByGroup(ctx, group)
}

// CreateLookupValue adds an entry to a lookup table.
func (s *GlobalDataService) CreateLookupValue(ctx context.Context, req dto.CreateLookupValueRequest) (*models.LookupValue, error) {
	if !knownLookupGroup(req.Group) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown lookup group")
	}
	value := &models.LookupValue{
		Group:     req.Group,
		Value:     req.Value,
		Label:     req.Label,
		SortOrder: req.SortOrder,
		Active:    true,
	}
	if err := s.lookups.Create(ctx, value); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lookup value")
	}
	return value, nil
}

// UpdateLookupValue edits a lookup entry.
func (s *GlobalDataService) UpdateLookupValue(ctx context.Context, value *models.LookupValue) error {
	if err := s.lookups.Update(ctx, value); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lookup value")
	}
	return nil
}

// DeleteLookupValue soft-deletes a lookup entry so historical forms keep
// resolving their labels.
func (s *GlobalDataService) DeleteLookupValue(ctx context.Context, id string) error {
	if err := s.lookups.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lookup value")
	}
	return nil
}

func knownLookupGroup(group models.LookupGroup) bool {
	for _, known := range models.KnownLookupGroups() {
		if known == group {
			return true
		}
	}
	return false
}
