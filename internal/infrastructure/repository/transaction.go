package repository

import (
	"context"
	"database/sql"

	domainRepo "github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"gorm.io/gorm"
)

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor running serializable transactions on db
func NewTransactor(db *gorm.DB) domainRepo.Transactor {
	return &gormTransactor{db: db}
}

// WithinTransaction runs fn in a serializable transaction. A ctx that already
// carries a transaction joins it instead of opening a nested one.
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})

	return translateError(err)
}
