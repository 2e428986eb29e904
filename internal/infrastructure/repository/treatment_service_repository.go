package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	domainRepo "github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type treatmentServiceRepository struct {
	db *gorm.DB
}

// NewTreatmentServiceRepository creates a new treatment service repository
func NewTreatmentServiceRepository(db *gorm.DB) domainRepo.TreatmentServiceRepository {
	return &treatmentServiceRepository{db: db}
}

func (r *treatmentServiceRepository) Create(ctx context.Context, service *entity.TreatmentService) error {
	return conn(ctx, r.db).Create(service).Error
}

func (r *treatmentServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.TreatmentService, error) {
	var service entity.TreatmentService
	err := conn(ctx, r.db).First(&service, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &service, err
}

func (r *treatmentServiceRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.TreatmentService, error) {
	var services []entity.TreatmentService
	if len(ids) == 0 {
		return services, nil
	}
	err := conn(ctx, r.db).Where("id IN ?", ids).Find(&services).Error
	return services, err
}

func (r *treatmentServiceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.TreatmentService, error) {
	var service entity.TreatmentService
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&service, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &service, translateError(err)
}

func (r *treatmentServiceRepository) UpdateBalance(ctx context.Context, id uuid.UUID, amountPaid, debt decimal.Decimal) error {
	result := conn(ctx, r.db).Model(&entity.TreatmentService{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"amount_paid": amountPaid,
			"debt":        debt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NewServiceNotFoundError(id)
	}
	return nil
}

func (r *treatmentServiceRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.TreatmentService, error) {
	var services []entity.TreatmentService
	err := conn(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&services).Error
	return services, err
}
