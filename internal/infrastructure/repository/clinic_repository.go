package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	domainRepo "github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"gorm.io/gorm"
)

type clinicRepository struct {
	db *gorm.DB
}

// NewClinicRepository creates a new clinic repository
func NewClinicRepository(db *gorm.DB) domainRepo.ClinicRepository {
	return &clinicRepository{db: db}
}

func (r *clinicRepository) Create(ctx context.Context, clinic *entity.Clinic) error {
	return conn(ctx, r.db).Create(clinic).Error
}

func (r *clinicRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Clinic, error) {
	var clinic entity.Clinic
	err := conn(ctx, r.db).First(&clinic, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &clinic, err
}

func (r *clinicRepository) GetByCode(ctx context.Context, code string) (*entity.Clinic, error) {
	var clinic entity.Clinic
	err := conn(ctx, r.db).First(&clinic, "UPPER(clinic_code) = ?", strings.ToUpper(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &clinic, err
}
