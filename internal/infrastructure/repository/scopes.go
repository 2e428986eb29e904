package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	domainRepo "github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"gorm.io/gorm"
)

type ctxKey string

// txKey is the context key holding the running ledger transaction
const txKey ctxKey = "ledger_tx"

// withTx stores the transaction handle in ctx so repositories join it
func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// txFrom returns the transaction stored in ctx, if any
func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	return tx, ok
}

// conn returns the transaction carried by ctx, falling back to the pool
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// ClinicScope filters by clinic_id when clinicID is set
func ClinicScope(clinicID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if clinicID == nil {
			return db
		}
		return db.Where("clinic_id = ?", *clinicID)
	}
}

// VoucherFilterScope applies the listing filters shared by page and cursor queries
func VoucherFilterScope(f domainRepo.VoucherFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(ClinicScope(f.ClinicID))

		if f.CustomerID != nil {
			db = db.Where("vouchers.customer_id = ?", *f.CustomerID)
		}
		if f.CashierID != nil {
			db = db.Where("vouchers.cashier_id = ?", *f.CashierID)
		}
		if f.PaymentMethod != nil {
			db = db.Where("EXISTS (SELECT 1 FROM voucher_details d WHERE d.voucher_id = vouchers.id AND d.payment_method = ?)",
				string(*f.PaymentMethod))
		}
		if f.Search != "" {
			pattern := "%" + escapeLike(f.Search) + "%"
			db = db.Where("(vouchers.voucher_number ILIKE ? OR vouchers.notes ILIKE ?)", pattern, pattern)
		}
		if f.StartDate != nil {
			db = db.Where("vouchers.payment_date >= ?", *f.StartDate)
		}
		if f.EndDate != nil {
			db = db.Where("vouchers.payment_date < ?", *f.EndDate)
		}
		return db
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so s matches literally
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
