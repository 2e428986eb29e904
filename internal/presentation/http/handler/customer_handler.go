package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/clinic-ledger-api/internal/application/service"
	"github.com/sangkips/clinic-ledger-api/internal/presentation/http/dto/response"
	"github.com/sangkips/clinic-ledger-api/pkg/pagination"
)

// CustomerHandler handles customer lookups
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// List handles listing customers, optionally filtered by clinic_id and search
func (h *CustomerHandler) List(c *gin.Context) {
	var params pagination.PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		response.ValidationError(c, bindingErrors(err))
		return
	}

	var errs fieldErrors
	clinicID := errs.uuid("clinic_id", c.Query("clinic_id"))
	if err := errs.err(); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.customerService.ListCustomers(c.Request.Context(), clinicID, &params, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Customers retrieved successfully", result)
}

// Get handles getting a single customer
func (h *CustomerHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", customer)
}

// ListServices handles listing a customer's treatment services with their
// paid amount and debt
func (h *CustomerHandler) ListServices(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	services, err := h.customerService.ListServices(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Treatment services retrieved successfully", services)
}
