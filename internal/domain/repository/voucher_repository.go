package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/enum"
	"github.com/sangkips/clinic-ledger-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// VoucherRepository defines the interface for voucher data operations
type VoucherRepository interface {
	// Create inserts the voucher header only; details go through VoucherDetailRepository
	Create(ctx context.Context, voucher *entity.Voucher) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Voucher, error)
	// GetForUpdate loads the voucher header and locks its row for the running transaction
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Voucher, error)
	GetByNumber(ctx context.Context, number string) (*entity.Voucher, error)
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Voucher, error)
	Update(ctx context.Context, voucher *entity.Voucher) error
	Delete(ctx context.Context, id uuid.UUID) error
	// LatestNumberWithPrefix returns the greatest voucher number made of prefix
	// and a four character sequence, or "" when none exists
	LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	List(ctx context.Context, params *VoucherFilterParams) ([]entity.Voucher, int64, error)
	ListWithCursor(ctx context.Context, params *VoucherCursorFilterParams) ([]entity.Voucher, error)
}

// VoucherFilter holds the filters shared by page and cursor listing
type VoucherFilter struct {
	CustomerID    *uuid.UUID
	ClinicID      *uuid.UUID
	CashierID     *uuid.UUID
	PaymentMethod *enum.PaymentMethod
	Search        string
	StartDate     *time.Time
	EndDate       *time.Time
}

// VoucherFilterParams contains filtering parameters for voucher queries
type VoucherFilterParams struct {
	VoucherFilter
	Pagination *pagination.PaginationParams
	SortBy     string
	SortOrder  string
}

// VoucherCursorFilterParams contains cursor-based filtering for voucher queries
type VoucherCursorFilterParams struct {
	VoucherFilter
	Cursor *pagination.CursorParams
}

// VoucherDetailRepository defines the interface for voucher line item operations
type VoucherDetailRepository interface {
	CreateBatch(ctx context.Context, details []entity.VoucherDetail) error
	GetByVoucherID(ctx context.Context, voucherID uuid.UUID) ([]entity.VoucherDetail, error)
	DeleteByVoucherID(ctx context.Context, voucherID uuid.UUID) error
}

// TreatmentServiceRepository defines the interface for the paid/owed balance of services
type TreatmentServiceRepository interface {
	Create(ctx context.Context, service *entity.TreatmentService) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.TreatmentService, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.TreatmentService, error)
	// GetForUpdate loads the service and locks its row for the running transaction
	GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.TreatmentService, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, amountPaid, debt decimal.Decimal) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.TreatmentService, error)
}

// ClinicRepository defines the interface for clinic lookups
type ClinicRepository interface {
	Create(ctx context.Context, clinic *entity.Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Clinic, error)
	GetByCode(ctx context.Context, code string) (*entity.Clinic, error)
}
