package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// BalanceReconciler applies and reverses line item amounts on treatment
// services. Every adjustment re-reads the service under a row lock in the
// caller's transaction and rewrites amount_paid and debt together.
type BalanceReconciler struct {
	serviceRepo repository.TreatmentServiceRepository
}

// NewBalanceReconciler creates a new balance reconciler
func NewBalanceReconciler(serviceRepo repository.TreatmentServiceRepository) *BalanceReconciler {
	return &BalanceReconciler{serviceRepo: serviceRepo}
}

// Apply adds amount to the service's amount paid
func (r *BalanceReconciler) Apply(ctx context.Context, serviceID uuid.UUID, amount decimal.Decimal) error {
	return r.adjust(ctx, serviceID, amount)
}

// Reverse removes amount from the service's amount paid. The result may be
// negative until the enclosing transaction re-applies the replacement items.
func (r *BalanceReconciler) Reverse(ctx context.Context, serviceID uuid.UUID, amount decimal.Decimal) error {
	return r.adjust(ctx, serviceID, amount.Neg())
}

func (r *BalanceReconciler) adjust(ctx context.Context, serviceID uuid.UUID, delta decimal.Decimal) error {
	svc, err := r.serviceRepo.GetForUpdate(ctx, serviceID)
	if err != nil {
		return err
	}
	if svc == nil {
		return apperror.NewServiceNotFoundError(serviceID)
	}

	amountPaid := svc.AmountPaid.Add(delta)
	return r.serviceRepo.UpdateBalance(ctx, serviceID, amountPaid, entity.DebtFor(svc.FinalPrice, amountPaid))
}

// VerifyNonNegative fails when any of the services ends with a negative amount
// paid. Run it after the last adjustment and before commit.
func (r *BalanceReconciler) VerifyNonNegative(ctx context.Context, serviceIDs []uuid.UUID) error {
	for _, id := range uniqueIDs(serviceIDs) {
		svc, err := r.serviceRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if svc == nil {
			return apperror.NewServiceNotFoundError(id)
		}
		if svc.AmountPaid.IsNegative() {
			return apperror.NewInconsistencyError("treatment service %s would end with negative amount paid %s",
				id, svc.AmountPaid.StringFixed(2))
		}
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
