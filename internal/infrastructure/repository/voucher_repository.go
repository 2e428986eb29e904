package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	domainRepo "github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/pagination"
	"github.com/sangkips/clinic-ledger-api/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// voucherSortColumns whitelists the columns vouchers can be sorted by
var voucherSortColumns = map[string]string{
	"payment_date":   "vouchers.payment_date",
	"created_at":     "vouchers.created_at",
	"total_amount":   "vouchers.total_amount",
	"voucher_number": "vouchers.voucher_number",
}

func orderedDetails(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

type voucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository creates a new voucher repository
func NewVoucherRepository(db *gorm.DB) domainRepo.VoucherRepository {
	return &voucherRepository{db: db}
}

func (r *voucherRepository) Create(ctx context.Context, voucher *entity.Voucher) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Create(voucher).Error
	return translateError(err)
}

func (r *voucherRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	var voucher entity.Voucher
	err := conn(ctx, r.db).First(&voucher, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &voucher, err
}

func (r *voucherRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	var voucher entity.Voucher
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&voucher, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &voucher, translateError(err)
}

func (r *voucherRepository) GetByNumber(ctx context.Context, number string) (*entity.Voucher, error) {
	var voucher entity.Voucher
	err := conn(ctx, r.db).
		Preload("Details", orderedDetails).
		Preload("Customer").
		Preload("Clinic").
		Preload("Cashier").
		First(&voucher, "voucher_number = ?", number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &voucher, err
}

func (r *voucherRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	var voucher entity.Voucher
	err := conn(ctx, r.db).
		Preload("Details", orderedDetails).
		Preload("Customer").
		Preload("Clinic").
		Preload("Cashier").
		First(&voucher, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &voucher, err
}

func (r *voucherRepository) Update(ctx context.Context, voucher *entity.Voucher) error {
	err := conn(ctx, r.db).Model(&entity.Voucher{}).
		Where("id = ?", voucher.ID).
		Updates(map[string]interface{}{
			"customer_id":  voucher.CustomerID,
			"cashier_id":   voucher.CashierID,
			"payment_date": voucher.PaymentDate,
			"total_amount": voucher.TotalAmount,
			"notes":        voucher.Notes,
			"updated_by":   voucher.UpdatedByID,
			"updated_at":   voucher.UpdatedAt,
		}).Error
	return translateError(err)
}

func (r *voucherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := conn(ctx, r.db).Delete(&entity.Voucher{}, "id = ?", id).Error
	return translateError(err)
}

func (r *voucherRepository) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := conn(ctx, r.db).Model(&entity.Voucher{}).
		Where("voucher_number LIKE ? AND length(voucher_number) = ?", escapeLike(prefix)+"%", utils.VoucherNumberLength(prefix)).
		Order("voucher_number DESC").
		Limit(1).
		Pluck("voucher_number", &numbers).Error
	if err != nil {
		return "", translateError(err)
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *voucherRepository) List(ctx context.Context, params *domainRepo.VoucherFilterParams) ([]entity.Voucher, int64, error) {
	var vouchers []entity.Voucher
	var total int64

	query := conn(ctx, r.db).Model(&entity.Voucher{}).Scopes(VoucherFilterScope(params.VoucherFilter))

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, direction := pagination.ResolveSort(params.SortBy, params.SortOrder, voucherSortColumns, "payment_date")

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Details", orderedDetails).
		Preload("Customer").
		Preload("Clinic").
		Order(column + " " + direction + ", vouchers.id " + direction).
		Find(&vouchers).Error

	return vouchers, total, err
}

// ListWithCursor returns vouchers using cursor-based pagination
func (r *voucherRepository) ListWithCursor(ctx context.Context, params *domainRepo.VoucherCursorFilterParams) ([]entity.Voucher, error) {
	var vouchers []entity.Voucher

	params.Cursor.Validate()
	query := conn(ctx, r.db).Model(&entity.Voucher{}).Scopes(VoucherFilterScope(params.VoucherFilter))

	cursor, err := params.Cursor.DecodeCursor()
	if err != nil {
		return nil, err
	}

	if cursor != nil {
		if params.Cursor.Direction == pagination.CursorDirectionNext {
			query = query.Where("(vouchers.created_at, vouchers.id) > (?, ?)", cursor.CreatedAt, cursor.ID)
		} else {
			query = query.Where("(vouchers.created_at, vouchers.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	err = query.Limit(params.Cursor.Limit+1).
		Preload("Details", orderedDetails).
		Preload("Customer").
		Order("vouchers.created_at ASC, vouchers.id ASC").
		Find(&vouchers).Error

	return vouchers, err
}

type voucherDetailRepository struct {
	db *gorm.DB
}

// NewVoucherDetailRepository creates a new voucher detail repository
func NewVoucherDetailRepository(db *gorm.DB) domainRepo.VoucherDetailRepository {
	return &voucherDetailRepository{db: db}
}

func (r *voucherDetailRepository) CreateBatch(ctx context.Context, details []entity.VoucherDetail) error {
	if len(details) == 0 {
		return nil
	}
	return translateError(conn(ctx, r.db).Create(&details).Error)
}

func (r *voucherDetailRepository) GetByVoucherID(ctx context.Context, voucherID uuid.UUID) ([]entity.VoucherDetail, error) {
	var details []entity.VoucherDetail
	err := conn(ctx, r.db).
		Where("voucher_id = ?", voucherID).
		Order("line_no ASC").
		Find(&details).Error
	return details, translateError(err)
}

func (r *voucherDetailRepository) DeleteByVoucherID(ctx context.Context, voucherID uuid.UUID) error {
	err := conn(ctx, r.db).Delete(&entity.VoucherDetail{}, "voucher_id = ?", voucherID).Error
	return translateError(err)
}
