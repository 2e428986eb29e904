package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/enum"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/sangkips/clinic-ledger-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// maxLineAmount is the largest value a numeric(15,2) column holds
var maxLineAmount = decimal.RequireFromString("9999999999999.99")

// LedgerOptions bounds each ledger transaction
type LedgerOptions struct {
	TxTimeout  time.Duration
	MaxRetries int
}

// DefaultLedgerOptions returns a 10s timeout and 3 attempts
func DefaultLedgerOptions() LedgerOptions {
	return LedgerOptions{TxTimeout: 10 * time.Second, MaxRetries: 3}
}

// VoucherServiceDeps groups the collaborators of VoucherService
type VoucherServiceDeps struct {
	Transactor   repository.Transactor
	VoucherRepo  repository.VoucherRepository
	DetailRepo   repository.VoucherDetailRepository
	ServiceRepo  repository.TreatmentServiceRepository
	CustomerRepo repository.CustomerRepository
	ClinicRepo   repository.ClinicRepository
	Allocator    *VoucherNumberAllocator
	Reconciler   *BalanceReconciler
	Clock        Clock
	Options      LedgerOptions
}

// VoucherService is the only writer of vouchers. Create, update and delete each
// run as one serializable transaction covering the voucher, its line items and
// every affected service balance.
type VoucherService struct {
	tx           repository.Transactor
	voucherRepo  repository.VoucherRepository
	detailRepo   repository.VoucherDetailRepository
	serviceRepo  repository.TreatmentServiceRepository
	customerRepo repository.CustomerRepository
	clinicRepo   repository.ClinicRepository
	allocator    *VoucherNumberAllocator
	reconciler   *BalanceReconciler
	clock        Clock
	opts         LedgerOptions
}

// NewVoucherService creates a new voucher service
func NewVoucherService(deps VoucherServiceDeps) *VoucherService {
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	if deps.Options.MaxRetries < 1 {
		deps.Options.MaxRetries = DefaultLedgerOptions().MaxRetries
	}
	return &VoucherService{
		tx:           deps.Transactor,
		voucherRepo:  deps.VoucherRepo,
		detailRepo:   deps.DetailRepo,
		serviceRepo:  deps.ServiceRepo,
		customerRepo: deps.CustomerRepo,
		clinicRepo:   deps.ClinicRepo,
		allocator:    deps.Allocator,
		reconciler:   deps.Reconciler,
		clock:        deps.Clock,
		opts:         deps.Options,
	}
}

// VoucherLineInput represents one line item of a voucher request
type VoucherLineInput struct {
	ServiceID     uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod enum.PaymentMethod
}

// CreateVoucherInput represents the create voucher input
type CreateVoucherInput struct {
	CustomerID  uuid.UUID
	ClinicID    uuid.UUID
	CashierID   *uuid.UUID
	PaymentDate *time.Time
	Notes       *string
	LineItems   []VoucherLineInput
	ActorID     *uuid.UUID
}

// UpdateVoucherInput represents the update voucher input. Nil fields are left
// unchanged; a non-nil LineItems replaces every existing line item.
type UpdateVoucherInput struct {
	CashierID   *uuid.UUID
	PaymentDate *time.Time
	Notes       *string
	LineItems   []VoucherLineInput
	ActorID     *uuid.UUID
}

// CreateVoucher records a payment, allocates its number and applies every line
// item to its service balance
func (s *VoucherService) CreateVoucher(ctx context.Context, input *CreateVoucherInput) (*entity.Voucher, error) {
	if errs := validateLineItems(input.LineItems); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	customer, err := s.customerRepo.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.ErrCustomerNotFound
	}

	clinic, err := s.clinicRepo.GetByID(ctx, input.ClinicID)
	if err != nil {
		return nil, err
	}
	if clinic == nil {
		return nil, apperror.ErrClinicNotFound
	}

	if errs, err := s.checkServices(ctx, input.LineItems, input.CustomerID); err != nil {
		return nil, err
	} else if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}

	paymentDate := s.clock()
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	var created *entity.Voucher
	err = s.runInLedgerTx(ctx, "create", func(ctx context.Context) error {
		number, err := s.allocator.Next(ctx, input.ClinicID)
		if err != nil {
			return err
		}

		now := s.clock()
		voucher := &entity.Voucher{
			ID:            uuid.New(),
			VoucherNumber: number,
			CustomerID:    input.CustomerID,
			CashierID:     input.CashierID,
			ClinicID:      input.ClinicID,
			PaymentDate:   paymentDate,
			TotalAmount:   sumLineItems(input.LineItems),
			Notes:         normalizeNotes(input.Notes),
			CreatedByID:   input.ActorID,
			UpdatedByID:   input.ActorID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.voucherRepo.Create(ctx, voucher); err != nil {
			return err
		}

		details := buildDetails(voucher.ID, input.LineItems, input.ActorID, now)
		if err := s.detailRepo.CreateBatch(ctx, details); err != nil {
			return err
		}

		if err := s.applyDetails(ctx, details); err != nil {
			return err
		}
		if err := s.reconciler.VerifyNonNegative(ctx, detailServiceIDs(details)); err != nil {
			return err
		}

		created, err = s.voucherRepo.GetWithDetails(ctx, voucher.ID)
		if err != nil {
			return err
		}
		if created == nil {
			return apperror.NewInconsistencyError("voucher %s vanished before commit", voucher.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Voucher %s created: total=%s items=%d actor=%s",
		created.VoucherNumber, created.TotalAmount.StringFixed(2), len(created.Details), actorString(input.ActorID))
	return created, nil
}

// UpdateVoucher edits the mutable fields of a voucher. Replacing line items
// reverses every old item before the new ones are applied.
func (s *VoucherService) UpdateVoucher(ctx context.Context, id uuid.UUID, input *UpdateVoucherInput) (*entity.Voucher, error) {
	if input.LineItems != nil {
		if errs := validateLineItems(input.LineItems); len(errs) > 0 {
			return nil, apperror.NewValidationError(errs)
		}
	}

	var updated *entity.Voucher
	err := s.runInLedgerTx(ctx, "update", func(ctx context.Context) error {
		voucher, err := s.voucherRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if voucher == nil {
			return apperror.ErrVoucherNotFound
		}

		now := s.clock()
		var touched []uuid.UUID
		var replacement []entity.VoucherDetail

		if input.LineItems != nil {
			errs, err := s.checkServices(ctx, input.LineItems, voucher.CustomerID)
			if err != nil {
				return err
			}
			if len(errs) > 0 {
				return apperror.NewValidationError(errs)
			}

			existing, err := s.detailRepo.GetByVoucherID(ctx, voucher.ID)
			if err != nil {
				return err
			}
			// Reverse everything first: the same service may appear in both sets.
			if err := s.reverseDetails(ctx, existing); err != nil {
				return err
			}
			if err := s.detailRepo.DeleteByVoucherID(ctx, voucher.ID); err != nil {
				return err
			}

			replacement = buildDetails(voucher.ID, input.LineItems, input.ActorID, now)
			voucher.TotalAmount = sumLineItems(input.LineItems)
			touched = append(detailServiceIDs(existing), detailServiceIDs(replacement)...)
		}

		if input.CashierID != nil {
			voucher.CashierID = input.CashierID
		}
		if input.PaymentDate != nil {
			voucher.PaymentDate = *input.PaymentDate
		}
		if input.Notes != nil {
			voucher.Notes = normalizeNotes(input.Notes)
		}
		voucher.UpdatedByID = input.ActorID
		voucher.UpdatedAt = now

		if err := s.voucherRepo.Update(ctx, voucher); err != nil {
			return err
		}

		if replacement != nil {
			if err := s.detailRepo.CreateBatch(ctx, replacement); err != nil {
				return err
			}
			if err := s.applyDetails(ctx, replacement); err != nil {
				return err
			}
			if err := s.reconciler.VerifyNonNegative(ctx, touched); err != nil {
				return err
			}
		}

		updated, err = s.voucherRepo.GetWithDetails(ctx, voucher.ID)
		if err != nil {
			return err
		}
		if updated == nil {
			return apperror.NewInconsistencyError("voucher %s vanished before commit", voucher.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Voucher %s updated: total=%s items=%d actor=%s",
		updated.VoucherNumber, updated.TotalAmount.StringFixed(2), len(updated.Details), actorString(input.ActorID))
	return updated, nil
}

// DeleteVoucher reverses every line item and removes the voucher. Its number is
// not handed out again unless it was the latest in its month.
func (s *VoucherService) DeleteVoucher(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error {
	var number string
	err := s.runInLedgerTx(ctx, "delete", func(ctx context.Context) error {
		voucher, err := s.voucherRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if voucher == nil {
			return apperror.ErrVoucherNotFound
		}

		details, err := s.detailRepo.GetByVoucherID(ctx, voucher.ID)
		if err != nil {
			return err
		}
		if err := s.reverseDetails(ctx, details); err != nil {
			return err
		}
		if err := s.detailRepo.DeleteByVoucherID(ctx, voucher.ID); err != nil {
			return err
		}
		if err := s.voucherRepo.Delete(ctx, voucher.ID); err != nil {
			return err
		}
		if err := s.reconciler.VerifyNonNegative(ctx, detailServiceIDs(details)); err != nil {
			return err
		}

		number = voucher.VoucherNumber
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Voucher %s deleted: actor=%s", number, actorString(actorID))
	return nil
}

// GetVoucher retrieves a voucher with its line items and relations
func (s *VoucherService) GetVoucher(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	voucher, err := s.voucherRepo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, apperror.ErrVoucherNotFound
	}
	return voucher, nil
}

// GetVoucherByNumber retrieves a voucher by its PREFIX-YYMM-NNNN number
func (s *VoucherService) GetVoucherByNumber(ctx context.Context, number string) (*entity.Voucher, error) {
	voucher, err := s.voucherRepo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, apperror.ErrVoucherNotFound
	}
	return voucher, nil
}

// ListVouchers lists vouchers with page-based pagination
func (s *VoucherService) ListVouchers(ctx context.Context, params *repository.VoucherFilterParams) (*pagination.PaginatedResult[entity.Voucher], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}

	vouchers, total, err := s.voucherRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(vouchers, pag), nil
}

// ListVouchersWithCursor lists vouchers with cursor-based pagination
func (s *VoucherService) ListVouchersWithCursor(ctx context.Context, params *repository.VoucherCursorFilterParams) (*pagination.CursorPaginatedResult[entity.Voucher], error) {
	if params.Cursor == nil {
		params.Cursor = pagination.DefaultCursorParams()
	}

	vouchers, err := s.voucherRepo.ListWithCursor(ctx, params)
	if err != nil {
		return nil, err
	}

	cursorPag, items := pagination.NewCursorPagination(vouchers, params.Cursor.Limit,
		func(v entity.Voucher) string { return v.ID.String() },
		func(v entity.Voucher) time.Time { return v.CreatedAt },
	)
	cursorPag.HasPrev = params.Cursor.Cursor != ""

	return pagination.NewCursorPaginatedResult(items, cursorPag), nil
}

// runInLedgerTx runs fn in a fresh transaction per attempt. Only sequence
// conflicts are retried; each attempt re-derives everything inside fn.
func (s *VoucherService) runInLedgerTx(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := s.opts.MaxRetries
	for attempt := 1; attempt <= attempts; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !apperror.IsRetryable(err) {
			return err
		}
		log.Printf("Voucher %s: sequence conflict on attempt %d/%d: %v", op, attempt, attempts, err)
	}
	return apperror.ErrConflict
}

func (s *VoucherService) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	txCtx := ctx
	if s.opts.TxTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.opts.TxTimeout)
		defer cancel()
	}

	err := s.tx.WithinTransaction(txCtx, fn)
	if err != nil && errors.Is(txCtx.Err(), context.DeadlineExceeded) {
		return apperror.ErrTimeout
	}
	return err
}

func (s *VoucherService) applyDetails(ctx context.Context, details []entity.VoucherDetail) error {
	for _, d := range details {
		if err := s.reconciler.Apply(ctx, d.ServiceID, d.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (s *VoucherService) reverseDetails(ctx context.Context, details []entity.VoucherDetail) error {
	for _, d := range details {
		if err := s.reconciler.Reverse(ctx, d.ServiceID, d.Amount); err != nil {
			return err
		}
	}
	return nil
}

// checkServices reports line items whose service is unknown or billed to
// another customer
func (s *VoucherService) checkServices(ctx context.Context, items []VoucherLineInput, customerID uuid.UUID) ([]apperror.FieldError, error) {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ServiceID
	}

	services, err := s.serviceRepo.GetByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, err
	}

	serviceMap := make(map[uuid.UUID]*entity.TreatmentService, len(services))
	for i := range services {
		serviceMap[services[i].ID] = &services[i]
	}

	var errs []apperror.FieldError
	for i, item := range items {
		field := fmt.Sprintf("line_items[%d].service_id", i)
		svc, ok := serviceMap[item.ServiceID]
		switch {
		case !ok:
			errs = append(errs, apperror.FieldError{Field: field, Message: "treatment service not found"})
		case svc.CustomerID != customerID:
			errs = append(errs, apperror.FieldError{Field: field, Message: "treatment service belongs to another customer"})
		}
	}
	return errs, nil
}

func validateLineItems(items []VoucherLineInput) []apperror.FieldError {
	if len(items) == 0 {
		return []apperror.FieldError{{Field: "line_items", Message: "at least one line item is required"}}
	}

	var errs []apperror.FieldError
	for i, item := range items {
		if item.ServiceID == uuid.Nil {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("line_items[%d].service_id", i), Message: "is required"})
		}

		amountField := fmt.Sprintf("line_items[%d].amount", i)
		switch {
		case !item.Amount.IsPositive():
			errs = append(errs, apperror.FieldError{Field: amountField, Message: "must be greater than zero"})
		case !item.Amount.Equal(item.Amount.Round(2)):
			errs = append(errs, apperror.FieldError{Field: amountField, Message: "must have at most 2 decimal places"})
		case item.Amount.GreaterThan(maxLineAmount):
			errs = append(errs, apperror.FieldError{Field: amountField, Message: "is too large"})
		}

		if !item.PaymentMethod.IsValid() {
			errs = append(errs, apperror.FieldError{
				Field:   fmt.Sprintf("line_items[%d].payment_method", i),
				Message: "must be one of cash, card-regular, card-premium, bank-transfer",
			})
		}
	}
	return errs
}

func buildDetails(voucherID uuid.UUID, items []VoucherLineInput, actorID *uuid.UUID, now time.Time) []entity.VoucherDetail {
	details := make([]entity.VoucherDetail, len(items))
	for i, item := range items {
		details[i] = entity.VoucherDetail{
			ID:            uuid.New(),
			VoucherID:     voucherID,
			LineNo:        i + 1,
			ServiceID:     item.ServiceID,
			Amount:        item.Amount,
			PaymentMethod: item.PaymentMethod,
			CreatedByID:   actorID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	return details
}

func sumLineItems(items []VoucherLineInput) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

func detailServiceIDs(details []entity.VoucherDetail) []uuid.UUID {
	ids := make([]uuid.UUID, len(details))
	for i, d := range details {
		ids[i] = d.ServiceID
	}
	return ids
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func actorString(actorID *uuid.UUID) string {
	if actorID == nil {
		return "system"
	}
	return actorID.String()
}
