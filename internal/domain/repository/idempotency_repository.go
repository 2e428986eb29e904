package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves an idempotency key by its key string and user ID
	GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error)
	// Reserve inserts a pending key. It reports false, without error, when the
	// user already holds a row for the key.
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (bool, error)
	// Complete stores the response on the pending key and moves its expiry
	Complete(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Release deletes a pending key so the request can be submitted again
	Release(ctx context.Context, key string, userID uuid.UUID) error
	// DeleteExpiredKey deletes one key if it expired before now
	DeleteExpiredKey(ctx context.Context, key string, userID uuid.UUID, now time.Time) error
	// DeleteExpired removes keys that expired before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
