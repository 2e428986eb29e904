package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	domainRepo "github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"gorm.io/gorm"
)

type voucherReportRepository struct {
	db *gorm.DB
}

// NewVoucherReportRepository creates a new voucher report repository
func NewVoucherReportRepository(db *gorm.DB) domainRepo.VoucherReportRepository {
	return &voucherReportRepository{db: db}
}

// reportWhere builds the WHERE clause for filter against the vouchers alias v
func reportWhere(filter domainRepo.ReportFilter) (string, []interface{}) {
	conditions := []string{"1 = 1"}
	args := []interface{}{}

	if filter.ClinicID != nil {
		conditions = append(conditions, "v.clinic_id = ?")
		args = append(args, *filter.ClinicID)
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, "v.customer_id = ?")
		args = append(args, *filter.CustomerID)
	}
	if filter.From != nil {
		conditions = append(conditions, "v.payment_date >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, "v.payment_date < ?")
		args = append(args, *filter.To)
	}

	return strings.Join(conditions, " AND "), args
}

func zoneName(filter domainRepo.ReportFilter) string {
	if filter.Location == nil {
		return "UTC"
	}
	return filter.Location.String()
}

func (r *voucherReportRepository) DailyVoucherTotals(ctx context.Context, filter domainRepo.ReportFilter) ([]domainRepo.DailyVoucherTotal, error) {
	var results []domainRepo.DailyVoucherTotal

	where, args := reportWhere(filter)
	args = append([]interface{}{zoneName(filter)}, args...)

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			(v.payment_date AT TIME ZONE ?)::date AS day,
			COALESCE(SUM(v.total_amount), 0) AS amount,
			COUNT(*) AS voucher_count
		FROM vouchers v
		WHERE `+where+`
		GROUP BY 1
		ORDER BY 1
	`, args...).Scan(&results).Error

	if err != nil {
		return nil, err
	}

	return results, nil
}

func (r *voucherReportRepository) DailyMethodTotals(ctx context.Context, filter domainRepo.ReportFilter) ([]domainRepo.DailyMethodTotal, error) {
	var results []domainRepo.DailyMethodTotal

	where, args := reportWhere(filter)
	args = append([]interface{}{zoneName(filter)}, args...)

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			(v.payment_date AT TIME ZONE ?)::date AS day,
			d.payment_method,
			COALESCE(SUM(d.amount), 0) AS amount,
			COUNT(d.id) AS count
		FROM voucher_details d
		JOIN vouchers v ON v.id = d.voucher_id
		WHERE `+where+`
		GROUP BY 1, 2
		ORDER BY 1, 2
	`, args...).Scan(&results).Error

	if err != nil {
		return nil, err
	}

	return results, nil
}

func (r *voucherReportRepository) MethodTotals(ctx context.Context, filter domainRepo.ReportFilter) ([]domainRepo.MethodTotal, error) {
	var results []domainRepo.MethodTotal

	where, args := reportWhere(filter)

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			d.payment_method,
			COALESCE(SUM(d.amount), 0) AS amount,
			COUNT(d.id) AS count
		FROM voucher_details d
		JOIN vouchers v ON v.id = d.voucher_id
		WHERE `+where+`
		GROUP BY d.payment_method
		ORDER BY amount DESC
	`, args...).Scan(&results).Error

	if err != nil {
		return nil, err
	}

	return results, nil
}

func (r *voucherReportRepository) ClinicTotals(ctx context.Context, filter domainRepo.ReportFilter) ([]domainRepo.ClinicTotal, error) {
	var results []domainRepo.ClinicTotal

	where, args := reportWhere(filter)

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			c.id AS clinic_id,
			c.name AS clinic_name,
			c.clinic_code,
			COALESCE(SUM(v.total_amount), 0) AS amount,
			COUNT(v.id) AS voucher_count
		FROM vouchers v
		JOIN clinics c ON c.id = v.clinic_id
		WHERE `+where+`
		GROUP BY c.id, c.name, c.clinic_code
		ORDER BY amount DESC
	`, args...).Scan(&results).Error

	if err != nil {
		return nil, err
	}

	return results, nil
}

func (r *voucherReportRepository) CustomerBalance(ctx context.Context, customerID uuid.UUID) (*domainRepo.CustomerBalanceResult, error) {
	var result domainRepo.CustomerBalanceResult

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS service_count,
			COALESCE(SUM(final_price), 0) AS final_price,
			COALESCE(SUM(amount_paid), 0) AS amount_paid,
			COALESCE(SUM(debt), 0) AS debt
		FROM treatment_services
		WHERE customer_id = ?
	`, customerID).Scan(&result).Error

	if err != nil {
		return nil, err
	}

	result.CustomerID = customerID
	return &result, nil
}
