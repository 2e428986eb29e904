package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// ReportFilter scopes voucher aggregations. From is inclusive and To exclusive;
// days are bucketed in Location.
type ReportFilter struct {
	ClinicID   *uuid.UUID
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Location   *time.Location
}

// DailyVoucherTotal is the voucher total for one calendar day
type DailyVoucherTotal struct {
	Day          time.Time
	Amount       decimal.Decimal
	VoucherCount int64
}

// DailyMethodTotal is the line item total of one payment method on one day
type DailyMethodTotal struct {
	Day           time.Time
	PaymentMethod enum.PaymentMethod
	Amount        decimal.Decimal
	Count         int64
}

// MethodTotal is the line item total of one payment method
type MethodTotal struct {
	PaymentMethod enum.PaymentMethod
	Amount        decimal.Decimal
	Count         int64
}

// ClinicTotal is the voucher total of one clinic
type ClinicTotal struct {
	ClinicID     uuid.UUID
	ClinicName   string
	ClinicCode   string
	Amount       decimal.Decimal
	VoucherCount int64
}

// CustomerBalanceResult sums the services of one customer
type CustomerBalanceResult struct {
	CustomerID   uuid.UUID
	ServiceCount int64
	FinalPrice   decimal.Decimal
	AmountPaid   decimal.Decimal
	Debt         decimal.Decimal
}

// VoucherReportRepository defines aggregation queries over vouchers
type VoucherReportRepository interface {
	DailyVoucherTotals(ctx context.Context, filter ReportFilter) ([]DailyVoucherTotal, error)
	DailyMethodTotals(ctx context.Context, filter ReportFilter) ([]DailyMethodTotal, error)
	MethodTotals(ctx context.Context, filter ReportFilter) ([]MethodTotal, error)
	ClinicTotals(ctx context.Context, filter ReportFilter) ([]ClinicTotal, error)
	CustomerBalance(ctx context.Context, customerID uuid.UUID) (*CustomerBalanceResult, error)
}
