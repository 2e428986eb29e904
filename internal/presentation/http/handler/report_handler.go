package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/application/service"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/dto/request"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/dto/response"
)

// VoucherReports is the reporting API the handler drives
type VoucherReports interface {
	DailyTotals(ctx context.Context, r service.ReportRange) (*service.DailyReport, error)
	Statistics(ctx context.Context, r service.ReportRange) (*service.VoucherStatistics, error)
	CustomerBalance(ctx context.Context, customerID uuid.UUID) (*service.CustomerBalance, error)
}

// ReportHandler handles voucher report requests
type ReportHandler struct {
	reports  VoucherReports
	location *time.Location
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports VoucherReports, location *time.Location) *ReportHandler {
	if location == nil {
		location = time.UTC
	}
	return &ReportHandler{reports: reports, location: location}
}

func (h *ReportHandler) parseRange(c *gin.Context) (service.ReportRange, error) {
	var q request.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return service.ReportRange{}, err
	}

	var errs fieldErrors
	r := service.ReportRange{
		ClinicID:   errs.uuid("clinic_id", q.ClinicID),
		CustomerID: errs.uuid("customer_id", q.CustomerID),
		From:       errs.day("start_date", q.StartDate, h.location),
		To:         errs.day("end_date", q.EndDate, h.location),
	}
	return r, errs.err()
}

// Daily handles GET /reports/vouchers/daily
func (h *ReportHandler) Daily(c *gin.Context) {
	r, err := h.parseRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.reports.DailyTotals(c.Request.Context(), r)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Daily voucher totals retrieved successfully", report)
}

// Statistics handles GET /reports/vouchers/statistics
func (h *ReportHandler) Statistics(c *gin.Context) {
	r, err := h.parseRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.reports.Statistics(c.Request.Context(), r)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Voucher statistics retrieved successfully", stats)
}

// CustomerBalance handles GET /customers/:id/balance
func (h *ReportHandler) CustomerBalance(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	balance, err := h.reports.CustomerBalance(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer balance retrieved successfully", balance)
}
