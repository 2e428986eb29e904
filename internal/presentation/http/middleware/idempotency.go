package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/dto/response"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour
	// IdempotencyPendingLease bounds how long a key stays reserved by a request
	// that never finished, e.g. after a crash
	IdempotencyPendingLease = 5 * time.Minute
	maxIdempotencyKeyLen    = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	// Now defaults to time.Now
	Now func() time.Time
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyRequired requires an Idempotency-Key on POST requests and replays
// the stored response when a client resubmits the same key. The key is
// reserved before the handler runs, so a concurrent resubmission gets 409
// instead of a second voucher. Reusing a key with a different body is
// rejected. Only 2xx responses are stored; any other outcome releases the
// key so the submission can be retried.
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required for this request")
			c.Abort()
			return
		}
		if len(idempotencyKey) > maxIdempotencyKeyLen {
			response.BadRequest(c, "Idempotency-Key header is too long")
			c.Abort()
			return
		}

		userIDValue, exists := c.Get("user_id")
		if !exists {
			response.Unauthorized(c, "User not authenticated")
			c.Abort()
			return
		}
		userID, ok := userIDValue.(uuid.UUID)
		if !ok {
			response.Unauthorized(c, "Invalid user ID")
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "Failed to read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		sum := sha256.Sum256(body)
		requestHash := hex.EncodeToString(sum[:])

		ctx := c.Request.Context()
		ikey := &entity.IdempotencyKey{
			Key:         idempotencyKey,
			UserID:      userID,
			Endpoint:    c.Request.Method + " " + c.FullPath(),
			RequestHash: requestHash,
			ExpiresAt:   now().Add(IdempotencyPendingLease),
		}

		existing, err := reserveIdempotencyKey(ctx, config.Repo, ikey, now())
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if existing != nil {
			switch {
			case existing.RequestHash != "" && existing.RequestHash != requestHash:
				response.Error(c, apperror.NewAppError(http.StatusUnprocessableEntity,
					"Idempotency-Key was already used with a different request body"))
			case existing.IsPending():
				response.Error(c, apperror.NewAppError(http.StatusConflict,
					"A request with this Idempotency-Key is still in progress"))
			default:
				c.Header("X-Idempotency-Replayed", "true")
				c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
			}
			c.Abort()
			return
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			if err := config.Repo.Release(ctx, idempotencyKey, userID); err != nil {
				log.Printf("Warning: failed to release idempotency key %q: %v", idempotencyKey, err)
			}
			return
		}

		ikey.ResponseCode = status
		ikey.ResponseBody = blw.body.String()
		ikey.ExpiresAt = now().Add(IdempotencyKeyTTL)
		if err := config.Repo.Complete(ctx, ikey); err != nil {
			log.Printf("Warning: failed to store idempotency key %q: %v", idempotencyKey, err)
		}
	}
}

// reserveIdempotencyKey inserts ikey as pending. It returns nil once the
// caller holds the key, otherwise the live record that blocks it. An expired
// record is cleared before the insert is tried again.
func reserveIdempotencyKey(ctx context.Context, repo repository.IdempotencyRepository, ikey *entity.IdempotencyKey, now time.Time) (*entity.IdempotencyKey, error) {
	for attempt := 0; attempt < 2; attempt++ {
		reserved, err := repo.Reserve(ctx, ikey)
		if err != nil {
			return nil, err
		}
		if reserved {
			return nil, nil
		}

		existing, err := repo.GetByKey(ctx, ikey.Key, ikey.UserID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			// released between the insert and the read
			continue
		}
		if !existing.IsExpired(now) {
			return existing, nil
		}
		if err := repo.DeleteExpiredKey(ctx, ikey.Key, ikey.UserID, now); err != nil {
			return nil, err
		}
	}
	return nil, apperror.NewAppError(http.StatusConflict, "Idempotency-Key is busy, retry the request")
}
