package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockClinicRepository mocks repository.ClinicRepository
type MockClinicRepository struct {
	mock.Mock
}

func (m *MockClinicRepository) Create(ctx context.Context, c *entity.Clinic) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockClinicRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Clinic, error) {
	args := m.Called(ctx, id)
	clinic, _ := args.Get(0).(*entity.Clinic)
	return clinic, args.Error(1)
}

func (m *MockClinicRepository) GetByCode(ctx context.Context, code string) (*entity.Clinic, error) {
	args := m.Called(ctx, code)
	clinic, _ := args.Get(0).(*entity.Clinic)
	return clinic, args.Error(1)
}

// MockVoucherRepository mocks the lookup the allocator needs. Calling any
// other method panics on the nil embedded interface.
type MockVoucherRepository struct {
	repository.VoucherRepository
	mock.Mock
}

func (m *MockVoucherRepository) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	args := m.Called(ctx, prefix)
	return args.String(0), args.Error(1)
}

// MockServiceRepository mocks repository.TreatmentServiceRepository
type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, svc *entity.TreatmentService) error {
	return m.Called(ctx, svc).Error(0)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.TreatmentService, error) {
	args := m.Called(ctx, id)
	svc, _ := args.Get(0).(*entity.TreatmentService)
	return svc, args.Error(1)
}

func (m *MockServiceRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.TreatmentService, error) {
	args := m.Called(ctx, ids)
	services, _ := args.Get(0).([]entity.TreatmentService)
	return services, args.Error(1)
}

func (m *MockServiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.TreatmentService, error) {
	args := m.Called(ctx, id)
	svc, _ := args.Get(0).(*entity.TreatmentService)
	return svc, args.Error(1)
}

func (m *MockServiceRepository) UpdateBalance(ctx context.Context, id uuid.UUID, amountPaid, debt decimal.Decimal) error {
	return m.Called(ctx, id, amountPaid, debt).Error(0)
}

func (m *MockServiceRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.TreatmentService, error) {
	args := m.Called(ctx, customerID)
	services, _ := args.Get(0).([]entity.TreatmentService)
	return services, args.Error(1)
}

// MockCustomerRepository mocks repository.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	args := m.Called(ctx, id)
	customer, _ := args.Get(0).(*entity.Customer)
	return customer, args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, clinicID *uuid.UUID, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error) {
	args := m.Called(ctx, clinicID, params, search)
	customers, _ := args.Get(0).([]entity.Customer)
	return customers, args.Get(1).(int64), args.Error(2)
}

// MockVoucherReportRepository mocks repository.VoucherReportRepository
type MockVoucherReportRepository struct {
	mock.Mock
}

func (m *MockVoucherReportRepository) DailyVoucherTotals(ctx context.Context, filter repository.ReportFilter) ([]repository.DailyVoucherTotal, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]repository.DailyVoucherTotal)
	return rows, args.Error(1)
}

func (m *MockVoucherReportRepository) DailyMethodTotals(ctx context.Context, filter repository.ReportFilter) ([]repository.DailyMethodTotal, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]repository.DailyMethodTotal)
	return rows, args.Error(1)
}

func (m *MockVoucherReportRepository) MethodTotals(ctx context.Context, filter repository.ReportFilter) ([]repository.MethodTotal, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]repository.MethodTotal)
	return rows, args.Error(1)
}

func (m *MockVoucherReportRepository) ClinicTotals(ctx context.Context, filter repository.ReportFilter) ([]repository.ClinicTotal, error) {
	args := m.Called(ctx, filter)
	rows, _ := args.Get(0).([]repository.ClinicTotal)
	return rows, args.Error(1)
}

func (m *MockVoucherReportRepository) CustomerBalance(ctx context.Context, customerID uuid.UUID) (*repository.CustomerBalanceResult, error) {
	args := m.Called(ctx, customerID)
	result, _ := args.Get(0).(*repository.CustomerBalanceResult)
	return result, args.Error(1)
}
