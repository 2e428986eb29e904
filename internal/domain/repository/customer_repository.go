package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/pkg/pagination"
)

// CustomerRepository defines the interface for customer lookups
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
	// List returns customers with page-based pagination, optionally scoped to a clinic
	List(ctx context.Context, clinicID *uuid.UUID, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error)
}
