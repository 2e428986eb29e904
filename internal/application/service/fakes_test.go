package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sangkips/clinic-ledger-api/internal/domain/entity"
	"github.com/sangkips/clinic-ledger-api/internal/domain/enum"
	"github.com/sangkips/clinic-ledger-api/internal/domain/repository"
	"github.com/sangkips/clinic-ledger-api/pkg/apperror"
	"github.com/sangkips/clinic-ledger-api/pkg/pagination"
	"github.com/sangkips/clinic-ledger-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory ledger database. The fake transactor snapshots it
// before each transaction and restores the snapshot on failure.
type memStore struct {
	mu        sync.RWMutex
	vouchers  map[uuid.UUID]entity.Voucher
	details   map[uuid.UUID]entity.VoucherDetail
	services  map[uuid.UUID]entity.TreatmentService
	clinics   map[uuid.UUID]entity.Clinic
	customers map[uuid.UUID]entity.Customer
}

type memSnapshot struct {
	vouchers map[uuid.UUID]entity.Voucher
	details  map[uuid.UUID]entity.VoucherDetail
	services map[uuid.UUID]entity.TreatmentService
}

func newMemStore() *memStore {
	return &memStore{
		vouchers:  map[uuid.UUID]entity.Voucher{},
		details:   map[uuid.UUID]entity.VoucherDetail{},
		services:  map[uuid.UUID]entity.TreatmentService{},
		clinics:   map[uuid.UUID]entity.Clinic{},
		customers: map[uuid.UUID]entity.Customer{},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return memSnapshot{
		vouchers: copyMap(s.vouchers),
		details:  copyMap(s.details),
		services: copyMap(s.services),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers = snap.vouchers
	s.details = snap.details
	s.services = snap.services
}

func (s *memStore) service(id uuid.UUID) entity.TreatmentService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services[id]
}

func (s *memStore) voucherCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vouchers)
}

func (s *memStore) detailCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.details)
}

// sumForService adds every persisted line item referencing id
func (s *memStore) sumForService(id uuid.UUID) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, d := range s.details {
		if d.ServiceID == id {
			total = total.Add(d.Amount)
		}
	}
	return total
}

// fakeTransactor serializes transactions, which is what serializable
// isolation guarantees for the rows the ledger touches.
type fakeTransactor struct {
	store *memStore
	mu    sync.Mutex
	calls int
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++

	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

type fakeVoucherRepo struct {
	store *memStore

	mu          sync.Mutex
	staleLatest []string // returned by LatestNumberWithPrefix before the real value
}

func (r *fakeVoucherRepo) queueStaleLatest(numbers ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staleLatest = append(r.staleLatest, numbers...)
}

func (r *fakeVoucherRepo) Create(ctx context.Context, v *entity.Voucher) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.vouchers {
		if existing.VoucherNumber == v.VoucherNumber {
			return fmt.Errorf("%w: duplicate voucher number %s", apperror.ErrSequenceConflict, v.VoucherNumber)
		}
	}
	row := *v
	row.Details = nil
	row.Customer, row.Clinic, row.Cashier = nil, nil, nil
	r.store.vouchers[v.ID] = row
	return nil
}

func (r *fakeVoucherRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	v, ok := r.store.vouchers[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (r *fakeVoucherRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *fakeVoucherRepo) hydrate(v entity.Voucher) *entity.Voucher {
	for _, d := range r.store.details {
		if d.VoucherID == v.ID {
			v.Details = append(v.Details, d)
		}
	}
	sort.Slice(v.Details, func(i, j int) bool { return v.Details[i].LineNo < v.Details[j].LineNo })
	if c, ok := r.store.customers[v.CustomerID]; ok {
		v.Customer = &c
	}
	if c, ok := r.store.clinics[v.ClinicID]; ok {
		v.Clinic = &c
	}
	return &v
}

func (r *fakeVoucherRepo) GetByNumber(ctx context.Context, number string) (*entity.Voucher, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, v := range r.store.vouchers {
		if v.VoucherNumber == number {
			return r.hydrate(v), nil
		}
	}
	return nil, nil
}

func (r *fakeVoucherRepo) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Voucher, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	v, ok := r.store.vouchers[id]
	if !ok {
		return nil, nil
	}
	return r.hydrate(v), nil
}

func (r *fakeVoucherRepo) Update(ctx context.Context, v *entity.Voucher) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.vouchers[v.ID]
	if !ok {
		return fmt.Errorf("voucher %s missing", v.ID)
	}
	existing.CustomerID = v.CustomerID
	existing.CashierID = v.CashierID
	existing.PaymentDate = v.PaymentDate
	existing.TotalAmount = v.TotalAmount
	existing.Notes = v.Notes
	existing.UpdatedByID = v.UpdatedByID
	existing.UpdatedAt = v.UpdatedAt
	r.store.vouchers[v.ID] = existing
	return nil
}

func (r *fakeVoucherRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.vouchers, id)
	return nil
}

func (r *fakeVoucherRepo) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	r.mu.Lock()
	if len(r.staleLatest) > 0 {
		stale := r.staleLatest[0]
		r.staleLatest = r.staleLatest[1:]
		r.mu.Unlock()
		return stale, nil
	}
	r.mu.Unlock()

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	latest := ""
	for _, v := range r.store.vouchers {
		if !strings.HasPrefix(v.VoucherNumber, prefix) || utf8.RuneCountInString(v.VoucherNumber) != utils.VoucherNumberLength(prefix) {
			continue
		}
		if v.VoucherNumber > latest {
			latest = v.VoucherNumber
		}
	}
	return latest, nil
}

func (r *fakeVoucherRepo) filtered(f repository.VoucherFilter) []entity.Voucher {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []entity.Voucher
	for _, v := range r.store.vouchers {
		if f.CustomerID != nil && v.CustomerID != *f.CustomerID {
			continue
		}
		if f.ClinicID != nil && v.ClinicID != *f.ClinicID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(v.VoucherNumber), strings.ToLower(f.Search)) {
			continue
		}
		if f.StartDate != nil && v.PaymentDate.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && !v.PaymentDate.Before(*f.EndDate) {
			continue
		}
		out = append(out, *r.hydrate(v))
	}
	return out
}

func (r *fakeVoucherRepo) List(ctx context.Context, params *repository.VoucherFilterParams) ([]entity.Voucher, int64, error) {
	all := r.filtered(params.VoucherFilter)
	sort.Slice(all, func(i, j int) bool { return all[i].VoucherNumber > all[j].VoucherNumber })

	params.Pagination.Validate()
	start := params.Pagination.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + params.Pagination.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *fakeVoucherRepo) ListWithCursor(ctx context.Context, params *repository.VoucherCursorFilterParams) ([]entity.Voucher, error) {
	all := r.filtered(params.VoucherFilter)
	sort.Slice(all, func(i, j int) bool { return all[i].VoucherNumber < all[j].VoucherNumber })
	params.Cursor.Validate()
	if len(all) > params.Cursor.Limit+1 {
		all = all[:params.Cursor.Limit+1]
	}
	return all, nil
}

type fakeDetailRepo struct {
	store *memStore
}

func (r *fakeDetailRepo) CreateBatch(ctx context.Context, details []entity.VoucherDetail) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, d := range details {
		r.store.details[d.ID] = d
	}
	return nil
}

func (r *fakeDetailRepo) GetByVoucherID(ctx context.Context, voucherID uuid.UUID) ([]entity.VoucherDetail, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []entity.VoucherDetail
	for _, d := range r.store.details {
		if d.VoucherID == voucherID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, nil
}

func (r *fakeDetailRepo) DeleteByVoucherID(ctx context.Context, voucherID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, d := range r.store.details {
		if d.VoucherID == voucherID {
			delete(r.store.details, id)
		}
	}
	return nil
}

type fakeServiceRepo struct {
	store *memStore

	// beforeLock runs at the start of GetForUpdate
	beforeLock func(ctx context.Context, id uuid.UUID) error
	// vanished services are invisible to GetForUpdate only, as if deleted
	// after validation
	vanished map[uuid.UUID]bool
}

func (r *fakeServiceRepo) Create(ctx context.Context, svc *entity.TreatmentService) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	r.store.services[svc.ID] = *svc
	return nil
}

func (r *fakeServiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.TreatmentService, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	svc, ok := r.store.services[id]
	if !ok {
		return nil, nil
	}
	return &svc, nil
}

func (r *fakeServiceRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.TreatmentService, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []entity.TreatmentService
	for _, id := range ids {
		if svc, ok := r.store.services[id]; ok {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (r *fakeServiceRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*entity.TreatmentService, error) {
	if r.beforeLock != nil {
		if err := r.beforeLock(ctx, id); err != nil {
			return nil, err
		}
	}
	if r.vanished[id] {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *fakeServiceRepo) UpdateBalance(ctx context.Context, id uuid.UUID, amountPaid, debt decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	svc, ok := r.store.services[id]
	if !ok {
		return apperror.NewServiceNotFoundError(id)
	}
	svc.AmountPaid = amountPaid
	svc.Debt = debt
	r.store.services[id] = svc
	return nil
}

func (r *fakeServiceRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]entity.TreatmentService, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []entity.TreatmentService
	for _, svc := range r.store.services {
		if svc.CustomerID == customerID {
			out = append(out, svc)
		}
	}
	return out, nil
}

type fakeClinicRepo struct {
	store *memStore
}

func (r *fakeClinicRepo) Create(ctx context.Context, c *entity.Clinic) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.store.clinics[c.ID] = *c
	return nil
}

func (r *fakeClinicRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Clinic, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.clinics[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeClinicRepo) GetByCode(ctx context.Context, code string) (*entity.Clinic, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, c := range r.store.clinics {
		if strings.EqualFold(c.ClinicCode, code) {
			return &c, nil
		}
	}
	return nil, nil
}

type fakeCustomerRepo struct {
	store *memStore
}

func (r *fakeCustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.store.customers[c.ID] = *c
	return nil
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeCustomerRepo) List(ctx context.Context, clinicID *uuid.UUID, params *pagination.PaginationParams, search string) ([]entity.Customer, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []entity.Customer
	for _, c := range r.store.customers {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

// ledgerFixture wires a VoucherService over a memStore with one clinic
// (CLINICA), one customer and a clock pinned to 15 January 2025.
type ledgerFixture struct {
	store      *memStore
	tx         *fakeTransactor
	vouchers   *fakeVoucherRepo
	services   *fakeServiceRepo
	svc        *VoucherService
	clinicID   uuid.UUID
	customerID uuid.UUID
	actorID    uuid.UUID
	now        time.Time
}

func newLedgerFixture(opts LedgerOptions) *ledgerFixture {
	store := newMemStore()
	f := &ledgerFixture{
		store:      store,
		tx:         &fakeTransactor{store: store},
		vouchers:   &fakeVoucherRepo{store: store},
		services:   &fakeServiceRepo{store: store, vanished: map[uuid.UUID]bool{}},
		clinicID:   uuid.New(),
		customerID: uuid.New(),
		actorID:    uuid.New(),
		now:        time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC),
	}

	store.clinics[f.clinicID] = entity.Clinic{ID: f.clinicID, Name: "Clinic A", ClinicCode: "clinica"}
	store.customers[f.customerID] = entity.Customer{ID: f.customerID, Name: "Nguyen Van A"}

	clock := func() time.Time { return f.now }
	clinicRepo := &fakeClinicRepo{store: store}

	f.svc = NewVoucherService(VoucherServiceDeps{
		Transactor:   f.tx,
		VoucherRepo:  f.vouchers,
		DetailRepo:   &fakeDetailRepo{store: store},
		ServiceRepo:  f.services,
		CustomerRepo: &fakeCustomerRepo{store: store},
		ClinicRepo:   clinicRepo,
		Allocator:    NewVoucherNumberAllocator(clinicRepo, f.vouchers, clock, time.UTC),
		Reconciler:   NewBalanceReconciler(f.services),
		Clock:        clock,
		Options:      opts,
	})
	return f
}

func (f *ledgerFixture) addService(finalPrice int64) uuid.UUID {
	return f.addServiceFor(f.customerID, finalPrice)
}

func (f *ledgerFixture) addServiceFor(customerID uuid.UUID, finalPrice int64) uuid.UUID {
	id := uuid.New()
	price := decimal.NewFromInt(finalPrice)
	f.store.mu.Lock()
	f.store.services[id] = entity.TreatmentService{
		ID:         id,
		CustomerID: customerID,
		ClinicID:   f.clinicID,
		Name:       "Implant",
		FinalPrice: price,
		AmountPaid: decimal.Zero,
		Debt:       price,
	}
	f.store.mu.Unlock()
	return id
}

func (f *ledgerFixture) createInput(lines ...VoucherLineInput) *CreateVoucherInput {
	return &CreateVoucherInput{
		CustomerID: f.customerID,
		ClinicID:   f.clinicID,
		LineItems:  lines,
		ActorID:    &f.actorID,
	}
}

func cash(serviceID uuid.UUID, amount int64) VoucherLineInput {
	return VoucherLineInput{ServiceID: serviceID, Amount: decimal.NewFromInt(amount), PaymentMethod: enum.PaymentMethodCash}
}
