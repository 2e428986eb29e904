package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/application/service"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockVoucherReports struct {
	mock.Mock
}

func (m *MockVoucherReports) DailyTotals(ctx context.Context, r service.ReportRange) (*service.DailyReport, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).(*service.DailyReport)
	return out, args.Error(1)
}

func (m *MockVoucherReports) Statistics(ctx context.Context, r service.ReportRange) (*service.VoucherStatistics, error) {
	args := m.Called(ctx, r)
	out, _ := args.Get(0).(*service.VoucherStatistics)
	return out, args.Error(1)
}

func (m *MockVoucherReports) CustomerBalance(ctx context.Context, customerID uuid.UUID) (*service.CustomerBalance, error) {
	args := m.Called(ctx, customerID)
	out, _ := args.Get(0).(*service.CustomerBalance)
	return out, args.Error(1)
}

func newReportRouter(reports VoucherReports) *gin.Engine {
	h := NewReportHandler(reports, ict)
	r := gin.New()
	r.GET("/reports/vouchers/daily", h.Daily)
	r.GET("/reports/vouchers/statistics", h.Statistics)
	r.GET("/customers/:id/balance", h.CustomerBalance)
	return r
}

func TestReportHandler_DailyParsesRange(t *testing.T) {
	reports := new(MockVoucherReports)
	clinicID := uuid.New()

	reports.On("DailyTotals", mock.Anything, mock.MatchedBy(func(r service.ReportRange) bool {
		return r.ClinicID != nil && *r.ClinicID == clinicID &&
			r.CustomerID == nil &&
			r.From.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, ict)) &&
			r.To.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, ict))
	})).Return(&service.DailyReport{From: "2025-01-01", To: "2025-01-31", TotalAmount: decimal.Zero}, nil)

	w, body := doJSON(t, newReportRouter(reports), http.MethodGet,
		"/reports/vouchers/daily?clinic_id="+clinicID.String()+"&start_date=2025-01-01&end_date=2025-01-31", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"from":"2025-01-01"`)
	reports.AssertExpectations(t)
}

func TestReportHandler_DailyDefaultsToServiceRange(t *testing.T) {
	reports := new(MockVoucherReports)
	reports.On("DailyTotals", mock.Anything, service.ReportRange{}).Return(&service.DailyReport{}, nil)

	w, _ := doJSON(t, newReportRouter(reports), http.MethodGet, "/reports/vouchers/daily", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	reports.AssertExpectations(t)
}

func TestReportHandler_StatisticsRejectsBadQuery(t *testing.T) {
	reports := new(MockVoucherReports)

	w, body := doJSON(t, newReportRouter(reports), http.MethodGet,
		"/reports/vouchers/statistics?customer_id=x&end_date=2025/01/31", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.ElementsMatch(t, []string{"customer_id", "end_date"}, fields(body.Errors))
	reports.AssertNotCalled(t, "Statistics", mock.Anything, mock.Anything)
}

func TestReportHandler_StatisticsPassesServiceValidation(t *testing.T) {
	reports := new(MockVoucherReports)
	reports.On("Statistics", mock.Anything, mock.Anything).Return(nil, apperror.NewValidationError([]apperror.FieldError{
		{Field: "end_date", Message: "must not be before start_date"},
	}))

	w, body := doJSON(t, newReportRouter(reports), http.MethodGet,
		"/reports/vouchers/statistics?start_date=2025-02-01&end_date=2025-01-01", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"end_date"}, fields(body.Errors))
}

func TestReportHandler_CustomerBalance(t *testing.T) {
	reports := new(MockVoucherReports)
	customerID := uuid.New()
	reports.On("CustomerBalance", mock.Anything, customerID).Return(&service.CustomerBalance{
		CustomerID: customerID,
		FinalPrice: decimal.NewFromInt(1000000),
		AmountPaid: decimal.NewFromInt(200000),
		Debt:       decimal.NewFromInt(800000),
	}, nil)

	w, body := doJSON(t, newReportRouter(reports), http.MethodGet, "/customers/"+customerID.String()+"/balance", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(body.Data), `"debt":"800000"`)
}

func TestReportHandler_CustomerBalanceNotFound(t *testing.T) {
	reports := new(MockVoucherReports)
	reports.On("CustomerBalance", mock.Anything, mock.Anything).Return(nil, apperror.ErrCustomerNotFound)

	w, body := doJSON(t, newReportRouter(reports), http.MethodGet, "/customers/"+uuid.New().String()+"/balance", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", body.Kind)
}
