package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/application/service"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/enum"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/dto/request"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/dto/response"
	"github.com/sangkips/clinic-ledger-api/pkg/pagination"
)

// VoucherLedger is the voucher API the handler drives
type VoucherLedger interface {
	CreateVoucher(ctx context.Context, input *service.CreateVoucherInput) (*entity.Voucher, error)
	UpdateVoucher(ctx context.Context, id uuid.UUID, input *service.UpdateVoucherInput) (*entity.Voucher, error)
	DeleteVoucher(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error
	GetVoucher(ctx context.Context, id uuid.UUID) (*entity.Voucher, error)
	GetVoucherByNumber(ctx context.Context, number string) (*entity.Voucher, error)
	ListVouchers(ctx context.Context, params *repository.VoucherFilterParams) (*pagination.PaginatedResult[entity.Voucher], error)
	ListVouchersWithCursor(ctx context.Context, params *repository.VoucherCursorFilterParams) (*pagination.CursorPaginatedResult[entity.Voucher], error)
}

// VoucherHandler handles voucher-related HTTP requests
type VoucherHandler struct {
	ledger   VoucherLedger
	location *time.Location
}

// NewVoucherHandler creates a new voucher handler. location interprets the
// calendar days of the date filters.
func NewVoucherHandler(ledger VoucherLedger, location *time.Location) *VoucherHandler {
	if location == nil {
		location = time.UTC
	}
	return &VoucherHandler{ledger: ledger, location: location}
}

// List handles listing vouchers (page-based, or cursor-based when cursor or
// limit is given)
func (h *VoucherHandler) List(c *gin.Context) {
	var q request.VoucherListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, bindingErrors(err))
		return
	}

	filter, err := h.parseFilter(&q)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.list(c, &q, filter)
}

// ListForCustomer handles GET /customers/:id/vouchers, the payment history of
// one customer
func (h *VoucherHandler) ListForCustomer(c *gin.Context) {
	customerID, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var q request.VoucherListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, bindingErrors(err))
		return
	}
	q.CustomerID = ""

	filter, err := h.parseFilter(&q)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.CustomerID = &customerID
	h.list(c, &q, filter)
}

func (h *VoucherHandler) list(c *gin.Context, q *request.VoucherListQuery, filter repository.VoucherFilter) {
	paging := pagination.UnifiedPaginationParams{
		Page:    q.Page,
		PerPage: q.PerPage,
		Cursor:  q.Cursor,
		Limit:   q.Limit,
	}

	if paging.IsCursorBased() {
		result, err := h.ledger.ListVouchersWithCursor(c.Request.Context(), &repository.VoucherCursorFilterParams{
			VoucherFilter: filter,
			Cursor:        paging.ToCursorParams(),
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.SuccessWithCursor(c, http.StatusOK, "Vouchers retrieved successfully", result)
		return
	}

	result, err := h.ledger.ListVouchers(c.Request.Context(), &repository.VoucherFilterParams{
		VoucherFilter: filter,
		Pagination:    paging.ToPaginationParams(),
		SortBy:        q.SortBy,
		SortOrder:     q.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, "Vouchers retrieved successfully", result)
}

// parseFilter validates the query filters. end_date is inclusive, so the
// repository bound is the following midnight.
func (h *VoucherHandler) parseFilter(q *request.VoucherListQuery) (repository.VoucherFilter, error) {
	var errs fieldErrors
	filter := repository.VoucherFilter{
		CustomerID: errs.uuid("customer_id", q.CustomerID),
		ClinicID:   errs.uuid("clinic_id", q.ClinicID),
		CashierID:  errs.uuid("cashier_id", q.CashierID),
		Search:     q.Search,
		StartDate:  errs.day("start_date", q.StartDate, h.location),
	}

	if end := errs.day("end_date", q.EndDate, h.location); end != nil {
		next := end.AddDate(0, 0, 1)
		filter.EndDate = &next
	}

	if q.PaymentMethod != "" {
		method, err := enum.ParsePaymentMethod(q.PaymentMethod)
		if err != nil {
			errs.add("payment_method", "must be one of cash, card-regular, card-premium, bank-transfer")
		} else {
			filter.PaymentMethod = &method
		}
	}

	return filter, errs.err()
}

// Create handles recording a voucher
func (h *VoucherHandler) Create(c *gin.Context) {
	var req request.CreateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingErrors(err))
		return
	}

	voucher, err := h.ledger.CreateVoucher(c.Request.Context(), &service.CreateVoucherInput{
		CustomerID:  req.CustomerID,
		ClinicID:    req.ClinicID,
		CashierID:   req.CashierID,
		PaymentDate: req.PaymentDate,
		Notes:       req.Notes,
		LineItems:   lineInputs(req.LineItems),
		ActorID:     GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Voucher created successfully", voucher)
}

// Get handles getting a single voucher
func (h *VoucherHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	voucher, err := h.ledger.GetVoucher(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Voucher retrieved successfully", voucher)
}

// GetByNumber handles looking a voucher up by its PREFIX-YYMM-NNNN number
func (h *VoucherHandler) GetByNumber(c *gin.Context) {
	voucher, err := h.ledger.GetVoucherByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Voucher retrieved successfully", voucher)
}

// Update handles editing a voucher
func (h *VoucherHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req request.UpdateVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingErrors(err))
		return
	}

	input := &service.UpdateVoucherInput{
		CashierID:   req.CashierID,
		PaymentDate: req.PaymentDate,
		Notes:       req.Notes,
		ActorID:     GetUserID(c),
	}
	if req.LineItems != nil {
		input.LineItems = lineInputs(req.LineItems)
	}

	voucher, err := h.ledger.UpdateVoucher(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Voucher updated successfully", voucher)
}

// Delete handles deleting a voucher
func (h *VoucherHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.ledger.DeleteVoucher(c.Request.Context(), id, GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Voucher deleted successfully", nil)
}

func lineInputs(items []request.VoucherLineItemRequest) []service.VoucherLineInput {
	out := make([]service.VoucherLineInput, len(items))
	for i, item := range items {
		out[i] = service.VoucherLineInput{
			ServiceID:     item.ServiceID,
			Amount:        item.Amount,
			PaymentMethod: enum.PaymentMethod(item.PaymentMethod),
		}
	}
	return out
}
