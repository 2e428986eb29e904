package handler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
)

const dayLayout = "2006-01-02"

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) *uuid.UUID {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// bindingErrors turns a gin binding failure into field errors. Malformed JSON
// is reported against the body as a whole.
func bindingErrors(err error) []apperror.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperror.FieldError{{Field: "body", Message: "malformed request body"}}
	}

	out := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperror.FieldError{
			Field:   jsonPath(fe.Namespace()),
			Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
		})
	}
	return out
}

// jsonPath converts "CreateVoucherRequest.LineItems[0].ServiceID" into
// "line_items[0].service_id"
func jsonPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		index := ""
		if j := strings.IndexByte(p, '['); j >= 0 {
			p, index = p[:j], p[j:]
		}
		parts[i] = snakeCase(p) + index
	}
	return strings.Join(parts, ".")
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			// keep acronyms such as "ID" together
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// fieldErrors accumulates query parameter problems
type fieldErrors []apperror.FieldError

func (f *fieldErrors) add(field, message string) {
	*f = append(*f, apperror.FieldError{Field: field, Message: message})
}

func (f *fieldErrors) uuid(field, raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		f.add(field, "must be a valid UUID")
		return nil
	}
	return &id
}

// day parses a YYYY-MM-DD calendar day as midnight in loc
func (f *fieldErrors) day(field, raw string, loc *time.Location) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(dayLayout, raw, loc)
	if err != nil {
		f.add(field, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperror.NewValidationError(f)
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.NewValidationError([]apperror.FieldError{{Field: name, Message: "must be a valid UUID"}})
	}
	return id, nil
}
