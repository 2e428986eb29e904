package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/sangkips/clinic-ledger-api/pkg/pagination"
)

// CustomerService exposes the customer lookups the cashier desk needs. Customer
// records themselves are owned by the clinic management system.
type CustomerService struct {
	customerRepo repository.CustomerRepository
	serviceRepo  repository.TreatmentServiceRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo repository.CustomerRepository, serviceRepo repository.TreatmentServiceRepository) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, serviceRepo: serviceRepo}
}

// GetCustomer retrieves a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.ErrCustomerNotFound
	}
	return customer, nil
}

// ListCustomers lists customers, optionally scoped to one clinic
func (s *CustomerService) ListCustomers(ctx context.Context, clinicID *uuid.UUID, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Customer], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	customers, total, err := s.customerRepo.List(ctx, clinicID, params, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(customers, pag), nil
}

// ListServices returns the customer's treatment services with their current
// paid amount and debt
func (s *CustomerService) ListServices(ctx context.Context, customerID uuid.UUID) ([]entity.TreatmentService, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.serviceRepo.ListByCustomer(ctx, customerID)
}
