package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/sangkips/clinic-ledger-api/pkg/utils"
)

// VoucherNumberAllocator issues PREFIX-YYMM-NNNN voucher numbers. Next reads
// the current maximum and must run in the same transaction as the insert that
// uses its result; the unique index on voucher_number turns a lost race into a
// retryable sequence conflict.
type VoucherNumberAllocator struct {
	clinicRepo  repository.ClinicRepository
	voucherRepo repository.VoucherRepository
	clock       Clock
	location    *time.Location
}

// NewVoucherNumberAllocator creates a new allocator. Year-month is taken from
// clock in location.
func NewVoucherNumberAllocator(
	clinicRepo repository.ClinicRepository,
	voucherRepo repository.VoucherRepository,
	clock Clock,
	location *time.Location,
) *VoucherNumberAllocator {
	if clock == nil {
		clock = SystemClock
	}
	if location == nil {
		location = time.UTC
	}
	return &VoucherNumberAllocator{
		clinicRepo:  clinicRepo,
		voucherRepo: voucherRepo,
		clock:       clock,
		location:    location,
	}
}

// Next returns the next free voucher number for the clinic in the current month
func (a *VoucherNumberAllocator) Next(ctx context.Context, clinicID uuid.UUID) (string, error) {
	clinic, err := a.clinicRepo.GetByID(ctx, clinicID)
	if err != nil {
		return "", err
	}
	if clinic == nil {
		return "", apperror.ErrClinicNotFound
	}
	if strings.TrimSpace(clinic.ClinicCode) == "" {
		return "", apperror.NewInvalidSequenceStateError("clinic %s has no clinic code", clinic.ID)
	}

	prefix := utils.VoucherNumberPrefix(clinic.ClinicCode, a.clock().In(a.location))

	latest, err := a.voucherRepo.LatestNumberWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	seq := 1
	if latest != "" {
		last, err := utils.ParseVoucherSequence(prefix, latest)
		if err != nil {
			return "", apperror.NewInvalidSequenceStateError("%v", err)
		}
		seq = last + 1
	}

	if seq > utils.MaxVoucherSequence {
		return "", apperror.NewInvalidSequenceStateError("sequence %s exhausted at %d", prefix, utils.MaxVoucherSequence)
	}

	return utils.FormatVoucherNumber(prefix, seq), nil
}
