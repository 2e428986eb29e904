package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherLineItemRequest is one payment toward a treatment service
type VoucherLineItemRequest struct {
	ServiceID     uuid.UUID       `json:"service_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
}

// CreateVoucherRequest is the body of POST /vouchers
type CreateVoucherRequest struct {
	CustomerID  uuid.UUID                `json:"customer_id" binding:"required"`
	ClinicID    uuid.UUID                `json:"clinic_id" binding:"required"`
	CashierID   *uuid.UUID               `json:"cashier_id"`
	PaymentDate *time.Time               `json:"payment_date"`
	Notes       *string                  `json:"notes" binding:"omitempty,max=2000"`
	LineItems   []VoucherLineItemRequest `json:"line_items" binding:"required,min=1,dive"`
}

// UpdateVoucherRequest is the body of PUT /vouchers/:id. Omitted fields are
// left unchanged; line_items, when present, replaces every line item.
type UpdateVoucherRequest struct {
	CashierID   *uuid.UUID               `json:"cashier_id"`
	PaymentDate *time.Time               `json:"payment_date"`
	Notes       *string                  `json:"notes" binding:"omitempty,max=2000"`
	LineItems   []VoucherLineItemRequest `json:"line_items" binding:"omitempty,dive"`
}

// VoucherListQuery holds the query string of GET /vouchers. Dates are
// calendar days (YYYY-MM-DD) in the ledger time zone, both inclusive.
type VoucherListQuery struct {
	Page          int    `form:"page"`
	PerPage       int    `form:"per_page"`
	Cursor        string `form:"cursor"`
	Limit         int    `form:"limit"`
	CustomerID    string `form:"customer_id"`
	ClinicID      string `form:"clinic_id"`
	CashierID     string `form:"cashier_id"`
	PaymentMethod string `form:"payment_method"`
	Search        string `form:"search"`
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
	SortBy        string `form:"sort_by"`
	SortOrder     string `form:"sort_order"`
}

// ReportQuery holds the query string of the report endpoints
type ReportQuery struct {
	ClinicID   string `form:"clinic_id"`
	CustomerID string `form:"customer_id"`
	StartDate  string `form:"start_date"`
	EndDate    string `form:"end_date"`
}
