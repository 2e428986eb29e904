package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/enum"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

const reportDateLayout = "2006-01-02"

// maxReportDays caps the range of a daily report
const maxReportDays = 366

// VoucherReportService aggregates committed vouchers. It reads outside the
// ledger transactions.
type VoucherReportService struct {
	reportRepo   repository.VoucherReportRepository
	customerRepo repository.CustomerRepository
	clock        Clock
	location     *time.Location
}

// NewVoucherReportService creates a new voucher report service
func NewVoucherReportService(
	reportRepo repository.VoucherReportRepository,
	customerRepo repository.CustomerRepository,
	clock Clock,
	location *time.Location,
) *VoucherReportService {
	if clock == nil {
		clock = SystemClock
	}
	if location == nil {
		location = time.UTC
	}
	return &VoucherReportService{
		reportRepo:   reportRepo,
		customerRepo: customerRepo,
		clock:        clock,
		location:     location,
	}
}

// ReportRange is an inclusive range of calendar days in the ledger time zone
type ReportRange struct {
	ClinicID   *uuid.UUID
	CustomerID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// MethodSummary is the total of one payment method
type MethodSummary struct {
	PaymentMethod enum.PaymentMethod `json:"payment_method"`
	Amount        decimal.Decimal    `json:"amount"`
	Count         int64              `json:"count"`
}

// DailyTotal is one day of the daily report
type DailyTotal struct {
	Date         string          `json:"date"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	VoucherCount int64           `json:"voucher_count"`
	Methods      []MethodSummary `json:"methods"`
}

// DailyReport lists every day in the range, including days without vouchers
type DailyReport struct {
	From         string          `json:"from"`
	To           string          `json:"to"`
	ClinicID     *uuid.UUID      `json:"clinic_id,omitempty"`
	Days         []DailyTotal    `json:"days"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	VoucherCount int64           `json:"voucher_count"`
	Methods      []MethodSummary `json:"methods"`
}

// ClinicSummary is the total of one clinic
type ClinicSummary struct {
	ClinicID     uuid.UUID       `json:"clinic_id"`
	ClinicName   string          `json:"clinic_name"`
	ClinicCode   string          `json:"clinic_code"`
	Amount       decimal.Decimal `json:"amount"`
	VoucherCount int64           `json:"voucher_count"`
}

// VoucherStatistics summarizes vouchers over a range
type VoucherStatistics struct {
	TotalAmount    decimal.Decimal `json:"total_amount"`
	VoucherCount   int64           `json:"voucher_count"`
	AverageVoucher decimal.Decimal `json:"average_voucher"`
	Methods        []MethodSummary `json:"methods"`
	Clinics        []ClinicSummary `json:"clinics"`
}

// CustomerBalance sums the treatment services of one customer
type CustomerBalance struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	ServiceCount int64           `json:"service_count"`
	FinalPrice   decimal.Decimal `json:"final_price"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	Debt         decimal.Decimal `json:"debt"`
}

// DailyTotals returns total amount, voucher count and per-method sum/count for
// each day of the range. The range defaults to the current month up to today.
func (s *VoucherReportService) DailyTotals(ctx context.Context, r ReportRange) (*DailyReport, error) {
	from, to, err := s.resolveRange(r)
	if err != nil {
		return nil, err
	}

	filter := s.filterFor(r, from, to)

	dayTotals, err := s.reportRepo.DailyVoucherTotals(ctx, filter)
	if err != nil {
		return nil, err
	}
	methodTotals, err := s.reportRepo.DailyMethodTotals(ctx, filter)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*DailyTotal)
	report := &DailyReport{
		From:        from.Format(reportDateLayout),
		To:          to.Format(reportDateLayout),
		ClinicID:    r.ClinicID,
		TotalAmount: decimal.Zero,
	}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(reportDateLayout)
		report.Days = append(report.Days, DailyTotal{Date: key, TotalAmount: decimal.Zero, Methods: []MethodSummary{}})
	}
	for i := range report.Days {
		byDay[report.Days[i].Date] = &report.Days[i]
	}

	for _, t := range dayTotals {
		day, ok := byDay[t.Day.Format(reportDateLayout)]
		if !ok {
			continue
		}
		day.TotalAmount = day.TotalAmount.Add(t.Amount)
		day.VoucherCount += t.VoucherCount
		report.TotalAmount = report.TotalAmount.Add(t.Amount)
		report.VoucherCount += t.VoucherCount
	}

	overall := make(map[enum.PaymentMethod]*MethodSummary)
	for _, t := range methodTotals {
		day, ok := byDay[t.Day.Format(reportDateLayout)]
		if !ok {
			continue
		}
		day.Methods = append(day.Methods, MethodSummary{PaymentMethod: t.PaymentMethod, Amount: t.Amount, Count: t.Count})

		m, ok := overall[t.PaymentMethod]
		if !ok {
			m = &MethodSummary{PaymentMethod: t.PaymentMethod, Amount: decimal.Zero}
			overall[t.PaymentMethod] = m
		}
		m.Amount = m.Amount.Add(t.Amount)
		m.Count += t.Count
	}
	report.Methods = orderedMethods(overall)

	return report, nil
}

// Statistics returns grand totals, the average voucher and per-method and
// per-clinic breakdowns over the range
func (s *VoucherReportService) Statistics(ctx context.Context, r ReportRange) (*VoucherStatistics, error) {
	from, to, err := s.resolveRange(r)
	if err != nil {
		return nil, err
	}

	filter := s.filterFor(r, from, to)

	methodTotals, err := s.reportRepo.MethodTotals(ctx, filter)
	if err != nil {
		return nil, err
	}
	clinicTotals, err := s.reportRepo.ClinicTotals(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &VoucherStatistics{
		TotalAmount:    decimal.Zero,
		AverageVoucher: decimal.Zero,
		Methods:        make([]MethodSummary, 0, len(methodTotals)),
		Clinics:        make([]ClinicSummary, 0, len(clinicTotals)),
	}

	for _, m := range methodTotals {
		stats.Methods = append(stats.Methods, MethodSummary{PaymentMethod: m.PaymentMethod, Amount: m.Amount, Count: m.Count})
	}
	for _, c := range clinicTotals {
		stats.Clinics = append(stats.Clinics, ClinicSummary{
			ClinicID:     c.ClinicID,
			ClinicName:   c.ClinicName,
			ClinicCode:   c.ClinicCode,
			Amount:       c.Amount,
			VoucherCount: c.VoucherCount,
		})
		stats.TotalAmount = stats.TotalAmount.Add(c.Amount)
		stats.VoucherCount += c.VoucherCount
	}

	if stats.VoucherCount > 0 {
		stats.AverageVoucher = stats.TotalAmount.Div(decimal.NewFromInt(stats.VoucherCount)).Round(2)
	}

	return stats, nil
}

// CustomerBalance returns the summed price, paid amount and debt of the
// customer's services
func (s *VoucherReportService) CustomerBalance(ctx context.Context, customerID uuid.UUID) (*CustomerBalance, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.ErrCustomerNotFound
	}

	result, err := s.reportRepo.CustomerBalance(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return &CustomerBalance{
		CustomerID:   customerID,
		ServiceCount: result.ServiceCount,
		FinalPrice:   result.FinalPrice,
		AmountPaid:   result.AmountPaid,
		Debt:         result.Debt,
	}, nil
}

// resolveRange returns the first and last day (midnight in the ledger zone)
func (s *VoucherReportService) resolveRange(r ReportRange) (time.Time, time.Time, error) {
	now := s.clock().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)

	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, s.location)
	to := today
	if r.From != nil {
		from = s.startOfDay(*r.From)
	}
	if r.To != nil {
		to = s.startOfDay(*r.To)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, apperror.NewValidationError([]apperror.FieldError{
			{Field: "end_date", Message: "must not be before start_date"},
		})
	}
	if to.Sub(from) > maxReportDays*24*time.Hour {
		return time.Time{}, time.Time{}, apperror.NewValidationError([]apperror.FieldError{
			{Field: "end_date", Message: "range must not exceed 366 days"},
		})
	}
	return from, to, nil
}

// startOfDay keeps the calendar date of t and pins it to midnight in the
// ledger zone, so "2025-01-15" parsed as UTC means the 15th locally
func (s *VoucherReportService) startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.location)
}

func (s *VoucherReportService) filterFor(r ReportRange, from, to time.Time) repository.ReportFilter {
	end := to.AddDate(0, 0, 1)
	return repository.ReportFilter{
		ClinicID:   r.ClinicID,
		CustomerID: r.CustomerID,
		From:       &from,
		To:         &end,
		Location:   s.location,
	}
}

func orderedMethods(totals map[enum.PaymentMethod]*MethodSummary) []MethodSummary {
	out := make([]MethodSummary, 0, len(totals))
	for _, m := range enum.PaymentMethods {
		if t, ok := totals[m]; ok {
			out = append(out, *t)
		}
	}
	return out
}
