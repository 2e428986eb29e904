package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
)

// SQLSTATE codes the ledger reacts to
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// VoucherNumberIndex is the unique index guarding voucher numbers
const VoucherNumberIndex = "idx_vouchers_voucher_number"

// translateError maps postgres failures onto application errors. Losing a race
// for a voucher number, a serialization failure and a deadlock all become
// ErrSequenceConflict so the caller can retry the whole transaction.
func translateError(err error) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == VoucherNumberIndex {
			return fmt.Errorf("%w: %s", apperror.ErrSequenceConflict, pgErr.Detail)
		}
		return apperror.NewConflictError(pgErr.Detail)
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: %s", apperror.ErrSequenceConflict, pgErr.Message)
	}

	return err
}
