package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stocksync/internal/domain"
	"stocksync/internal/dto"
	"stocksync/internal/model"
	"stocksync/internal/realtime"
	"stocksync/internal/repository"
	"stocksync/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// capturePub records every envelope the fan-out router emits.
type capturePub struct {
	envelopes []realtime.Envelope
}

func (p *capturePub) Publish(_ context.Context, env realtime.Envelope) error {
	p.envelopes = append(p.envelopes, env)
	return nil
}

func (p *capturePub) byEvent(event string) []realtime.Envelope {
	var out []realtime.Envelope
	for _, e := range p.envelopes {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (p *capturePub) byRoom(room string) []realtime.Envelope {
	var out []realtime.Envelope
	for _, e := range p.envelopes {
		if e.Room == room {
			out = append(out, e)
		}
	}
	return out
}

func (p *capturePub) reset() { p.envelopes = nil }

var _ realtime.Publisher = (*capturePub)(nil)

// stubProductRepo is an in-memory ProductRepository.
type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

// FindByIDForUpdate returns a snapshot copy, mirroring a row read: later
// in-place updates through AdjustStockTx must not alter the loaded struct.
func (r *stubProductRepo) FindByIDForUpdate(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) AdjustStockTx(_ *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.QtyInStock += delta
	return nil
}

func (r *stubProductRepo) ApplyApprovalTx(_ *gorm.DB, id uuid.UUID, totalPrice, profit decimal.Decimal, at time.Time) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.TotalSales = p.TotalSales.Add(totalPrice)
	p.TotalProfit = p.TotalProfit.Add(profit)
	t := at
	p.LastSaleDate = &t
	return nil
}

func (r *stubProductRepo) ListBelowMinStock(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.Active && p.QtyInStock <= p.MinStockLevel {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// stubUserRepo is an in-memory UserRepository.
type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.Active {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// stubMovementRepo captures audit rows for assertion.
type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(_ context.Context, _ dto.MovementFilter) ([]model.StockMovement, int64, error) {
	return r.movements, int64(len(r.movements)), nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// stubSaleRepo is an in-memory SaleRepository. FindByID attaches the
// product/user references like the GORM preloads would.
type stubSaleRepo struct {
	sales    map[uuid.UUID]*model.Sale
	seq      int
	products *stubProductRepo
	users    *stubUserRepo
}

func newStubSaleRepo(products *stubProductRepo, users *stubUserRepo) *stubSaleRepo {
	return &stubSaleRepo{
		sales:    make(map[uuid.UUID]*model.Sale),
		products: products,
		users:    users,
	}
}

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.Product = r.products.products[s.ProductID]
	s.SoldBy = r.users.users[s.SoldByID]
	if s.ApprovedByID != nil {
		s.ApprovedBy = r.users.users[*s.ApprovedByID]
	}
	return s, nil
}

func (r *stubSaleRepo) FindByIDForUpdate(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) UpdateTx(_ *gorm.DB, s *model.Sale) error {
	if _, ok := r.sales[s.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) NextNumber(_ context.Context, _ *gorm.DB) (int, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubSaleRepo) CountPending(_ context.Context, employeeID *uuid.UUID) (int64, error) {
	var count int64
	for _, s := range r.sales {
		if s.Status != model.SaleStatusPending {
			continue
		}
		if employeeID != nil && s.SoldByID != *employeeID {
			continue
		}
		count++
	}
	return count, nil
}

func (r *stubSaleRepo) List(_ context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if filter.Status != "" && filter.Status != "all" && s.Status != filter.Status {
			continue
		}
		if filter.EmployeeID != "" && s.SoldByID.String() != filter.EmployeeID {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Fixtures ──────────────────────────────────────────────────────────────────

type saleFixture struct {
	svc       service.SaleService
	pub       *capturePub
	sales     *stubSaleRepo
	products  *stubProductRepo
	movements *stubMovementRepo
	users     *stubUserRepo
	employee  *model.User
	admin     *model.User
}

func buildSaleFixture() *saleFixture {
	products := newStubProductRepo()
	users := newStubUserRepo()
	sales := newStubSaleRepo(products, users)
	movements := &stubMovementRepo{}
	pub := &capturePub{}

	employee := &model.User{ID: uuid.New(), Username: "maria", Name: "Maria Lopez", Role: model.RoleEmployee, Active: true}
	admin := &model.User{ID: uuid.New(), Username: "carlos", Name: "Carlos Ruiz", Role: model.RoleAdmin, Active: true}
	users.users[employee.ID] = employee
	users.users[admin.ID] = admin

	svc := service.NewSaleService(sales, products, movements, users, realtime.NewRouter(pub))
	return &saleFixture{
		svc: svc, pub: pub, sales: sales, products: products,
		movements: movements, users: users, employee: employee, admin: admin,
	}
}

func (f *saleFixture) seedProduct(name, sku string, stock int, price, cost float64) *model.Product {
	p := &model.Product{
		ID:            uuid.New(),
		SKU:           sku,
		Name:          name,
		Category:      "general",
		CostPrice:     decimal.NewFromFloat(cost),
		Price:         decimal.NewFromFloat(price),
		QtyInStock:    stock,
		MinStockLevel: 2,
		Active:        true,
	}
	f.products.products[p.ID] = p
	return p
}

func (f *saleFixture) createSale(t *testing.T, productID uuid.UUID, qty int) *dto.SaleResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.employee.ID, dto.CreateSaleRequest{
		ProductID: productID.String(),
		QtySold:   qty,
	})
	require.NoError(t, err)
	return resp
}

// ── Create ────────────────────────────────────────────────────────────────────

func TestCreateSale_EconomicsAndStock(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Wireless Mouse", "WM-001", 5, 100, 60)

	resp := f.createSale(t, p.ID, 2)

	assert.Equal(t, "SALE-000001", resp.SaleNumber)
	assert.Equal(t, model.SaleStatusPending, resp.Status)
	assert.Equal(t, "200", resp.TotalPrice.String())
	assert.Equal(t, "120", resp.TotalCost.String())
	assert.Equal(t, "80", resp.Profit.String())
	assert.Equal(t, "100", resp.UnitPrice.String())

	// Stock reserved at creation, before any approval
	assert.Equal(t, 3, f.products.products[p.ID].QtyInStock)

	// Exactly one "out" audit row, referencing the sale
	require.Len(t, f.movements.movements, 1)
	m := f.movements.movements[0]
	assert.Equal(t, model.MovementOut, m.Type)
	assert.Equal(t, 2, m.Quantity)
	assert.Equal(t, 5, m.StockBefore)
	assert.Equal(t, 3, m.StockAfter)
	require.NotNil(t, m.ReferenceID)
	assert.Equal(t, resp.ID, m.ReferenceID.String())

	// Aggregates untouched until approval
	assert.True(t, f.products.products[p.ID].TotalSales.IsZero())
}

func TestCreateSale_Events(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("USB Cable", "UC-001", 5, 100, 60)

	f.createSale(t, p.ID, 2)

	adminEvents := f.pub.byRoom(realtime.AdminRoom)
	require.Len(t, adminEvents, 2) // new_sale_pending + pending_count_updated
	assert.Equal(t, realtime.EventNewSalePending, adminEvents[0].Event)
	pending := adminEvents[0].Data.(realtime.NewSalePending)
	assert.Equal(t, "Maria Lopez", pending.Sale.EmployeeName)
	assert.Equal(t, "USB Cable", pending.Sale.ProductName)

	countEv := f.pub.byEvent(realtime.EventPendingCountUpdated)
	require.Len(t, countEv, 1)
	count := countEv[0].Data.(realtime.PendingCountUpdated)
	assert.Equal(t, int64(1), count.Count)
	assert.Equal(t, "sale_created", count.Action)
	require.NotNil(t, count.Delta)
	assert.Equal(t, 1, *count.Delta)

	// Creation ack goes to the owning employee's room
	empEvents := f.pub.byRoom(realtime.EmployeeRoom(f.employee.ID))
	require.Len(t, empEvents, 1)
	assert.Equal(t, realtime.EventSaleCreated, empEvents[0].Event)
}

func TestCreateSale_InsufficientStock(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Keyboard", "KB-001", 5, 100, 60)

	_, err := f.svc.Create(context.Background(), f.employee.ID, dto.CreateSaleRequest{
		ProductID: p.ID.String(),
		QtySold:   10,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 10, stockErr.Requested)

	// No mutation: stock intact, no sale, no movement, no events
	assert.Equal(t, 5, f.products.products[p.ID].QtyInStock)
	assert.Empty(t, f.sales.sales)
	assert.Empty(t, f.movements.movements)
	assert.Empty(t, f.pub.envelopes)
}

func TestCreateSale_NonPositiveQty(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Desk Mat", "DM-001", 5, 100, 60)

	for _, qty := range []int{0, -3} {
		_, err := f.svc.Create(context.Background(), f.employee.ID, dto.CreateSaleRequest{
			ProductID: p.ID.String(),
			QtySold:   qty,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}

	// A negative quantity must never inflate stock or record a sale
	assert.Equal(t, 5, f.products.products[p.ID].QtyInStock)
	assert.Empty(t, f.sales.sales)
	assert.Empty(t, f.movements.movements)
	assert.Empty(t, f.pub.envelopes)
}

func TestCreateSale_InactiveProduct(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Retired Item", "RI-001", 5, 100, 60)
	p.Active = false

	_, err := f.svc.Create(context.Background(), f.employee.ID, dto.CreateSaleRequest{
		ProductID: p.ID.String(),
		QtySold:   1,
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCreateSale_SequentialNumbers(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Notebook", "NB-001", 10, 100, 60)

	first := f.createSale(t, p.ID, 1)
	second := f.createSale(t, p.ID, 1)

	assert.Equal(t, "SALE-000001", first.SaleNumber)
	assert.Equal(t, "SALE-000002", second.SaleNumber)
}

// ── Approve ───────────────────────────────────────────────────────────────────

func TestApproveSale(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Monitor", "MN-001", 5, 100, 60)
	created := f.createSale(t, p.ID, 2)
	f.pub.reset()

	resp, err := f.svc.Approve(context.Background(), f.admin.ID, uuid.MustParse(created.ID), "looks good")
	require.NoError(t, err)

	assert.Equal(t, model.SaleStatusApproved, resp.Status)
	require.NotNil(t, resp.ApprovedByID)
	assert.Equal(t, f.admin.ID.String(), *resp.ApprovedByID)
	require.NotNil(t, resp.ApprovedAt)

	// Stock moved at creation; approval only rolls up aggregates
	stored := f.products.products[p.ID]
	assert.Equal(t, 3, stored.QtyInStock)
	assert.Equal(t, "200", stored.TotalSales.String())
	assert.Equal(t, "80", stored.TotalProfit.String())
	require.NotNil(t, stored.LastSaleDate)

	// No extra movement rows on approval
	assert.Len(t, f.movements.movements, 1)

	// Employee gets the status event, admins the resolution broadcast
	empEvents := f.pub.byRoom(realtime.EmployeeRoom(f.employee.ID))
	require.Len(t, empEvents, 1)
	status := empEvents[0].Data.(realtime.SaleStatusUpdated)
	assert.Equal(t, model.SaleStatusApproved, status.Status)
	assert.Nil(t, status.StockRestored)

	require.Len(t, f.pub.byEvent(realtime.EventSaleApproved), 1)
	count := f.pub.byEvent(realtime.EventPendingCountUpdated)[0].Data.(realtime.PendingCountUpdated)
	assert.Equal(t, int64(0), count.Count)
	assert.Equal(t, "sale_approved", count.Action)
}

func TestApproveSale_ExactlyOnce(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Headset", "HS-001", 5, 100, 60)
	created := f.createSale(t, p.ID, 2)

	_, err := f.svc.Approve(context.Background(), f.admin.ID, uuid.MustParse(created.ID), "")
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), f.admin.ID, uuid.MustParse(created.ID), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	var transErr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, model.SaleStatusApproved, transErr.Current)

	// Aggregates applied exactly once
	assert.Equal(t, "200", f.products.products[p.ID].TotalSales.String())
}

func TestApproveSale_NotFound(t *testing.T) {
	f := buildSaleFixture()

	_, err := f.svc.Approve(context.Background(), f.admin.ID, uuid.New(), "")
	assert.ErrorIs(t, err, domain.ErrSaleNotFound)
}

// flakySaleRepo simulates a repository whose row lookups hit an
// infrastructure fault rather than a missing row.
type flakySaleRepo struct {
	*stubSaleRepo
	lookupErr error
}

func (r *flakySaleRepo) FindByIDForUpdate(_ *gorm.DB, _ uuid.UUID) (*model.Sale, error) {
	return nil, r.lookupErr
}

func TestApproveSale_TransientLookupError(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Dock", "DK-001", 5, 100, 60)
	created := f.createSale(t, p.ID, 1)

	lookupErr := errors.New("connection reset by peer")
	flaky := &flakySaleRepo{stubSaleRepo: f.sales, lookupErr: lookupErr}
	svc := service.NewSaleService(flaky, f.products, f.movements, f.users, realtime.NewRouter(f.pub))

	_, err := svc.Approve(context.Background(), f.admin.ID, uuid.MustParse(created.ID), "")
	require.Error(t, err)

	// An infrastructure fault must surface as itself, not as a missing sale
	assert.ErrorIs(t, err, lookupErr)
	assert.NotErrorIs(t, err, domain.ErrSaleNotFound)
}

// ── Reject ────────────────────────────────────────────────────────────────────

func TestRejectSale_RestoresStock(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Webcam", "WC-001", 5, 100, 60)
	created := f.createSale(t, p.ID, 2)
	f.pub.reset()

	resp, err := f.svc.Reject(context.Background(), f.admin.ID, uuid.MustParse(created.ID), "item damaged")
	require.NoError(t, err)

	assert.Equal(t, model.SaleStatusRejected, resp.Status)
	require.NotNil(t, resp.Notes)
	assert.Equal(t, "item damaged", *resp.Notes)

	// Exactly the reserved quantity comes back
	assert.Equal(t, 5, f.products.products[p.ID].QtyInStock)

	// Paired "in" movement with the admin and reason in the audit trail
	require.Len(t, f.movements.movements, 2)
	m := f.movements.movements[1]
	assert.Equal(t, model.MovementIn, m.Type)
	assert.Equal(t, 2, m.Quantity)
	assert.Equal(t, 3, m.StockBefore)
	assert.Equal(t, 5, m.StockAfter)
	assert.Contains(t, m.Reason, "Carlos Ruiz")
	assert.Contains(t, m.Reason, "item damaged")
	assert.Equal(t, f.admin.ID, m.UserID)

	// Aggregates never touched by a rejection
	assert.True(t, f.products.products[p.ID].TotalSales.IsZero())

	// Employee event carries the restored quantity and reason
	empEvents := f.pub.byRoom(realtime.EmployeeRoom(f.employee.ID))
	require.Len(t, empEvents, 1)
	status := empEvents[0].Data.(realtime.SaleStatusUpdated)
	require.NotNil(t, status.StockRestored)
	assert.Equal(t, 2, *status.StockRestored)
	require.NotNil(t, status.Reason)
	assert.Equal(t, "item damaged", *status.Reason)

	require.Len(t, f.pub.byEvent(realtime.EventSaleRejected), 1)
	count := f.pub.byEvent(realtime.EventPendingCountUpdated)[0].Data.(realtime.PendingCountUpdated)
	assert.Equal(t, int64(0), count.Count)
	assert.Equal(t, "sale_rejected", count.Action)
}

func TestRejectSale_MissingReason(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Speaker", "SP-001", 5, 100, 60)
	created := f.createSale(t, p.ID, 2)

	for _, reason := range []string{"", "   "} {
		_, err := f.svc.Reject(context.Background(), f.admin.ID, uuid.MustParse(created.ID), reason)
		assert.ErrorIs(t, err, domain.ErrMissingReason)
	}

	// Untouched: still pending, stock still reserved
	stored, _ := f.sales.FindByID(context.Background(), uuid.MustParse(created.ID))
	assert.Equal(t, model.SaleStatusPending, stored.Status)
	assert.Equal(t, 3, f.products.products[p.ID].QtyInStock)
}

func TestRejectSale_AfterApprove(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Charger", "CH-001", 5, 100, 60)
	created := f.createSale(t, p.ID, 2)

	_, err := f.svc.Approve(context.Background(), f.admin.ID, uuid.MustParse(created.ID), "")
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), f.admin.ID, uuid.MustParse(created.ID), "too late")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Losing the race must not restore stock
	assert.Equal(t, 3, f.products.products[p.ID].QtyInStock)
}

// ── Bulk approval ─────────────────────────────────────────────────────────────

func TestBulkApprove_Mixed(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("SSD Drive", "SD-001", 20, 100, 60)

	s1 := f.createSale(t, p.ID, 1)
	s2 := f.createSale(t, p.ID, 1)
	s3 := f.createSale(t, p.ID, 1)
	resolved := f.createSale(t, p.ID, 1)
	_, err := f.svc.Approve(context.Background(), f.admin.ID, uuid.MustParse(resolved.ID), "")
	require.NoError(t, err)
	f.pub.reset()

	resp, err := f.svc.BulkApprove(context.Background(), f.admin.ID, dto.BulkApproveRequest{
		SaleIDs: []string{s1.ID, s2.ID, s3.ID, resolved.ID, uuid.New().String()},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, resp.TotalProcessed)
	assert.Equal(t, 3, resp.SuccessCount)
	assert.Equal(t, 2, resp.FailureCount)
	require.Len(t, resp.Results, 5)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[3].Success)
	assert.Contains(t, resp.Results[3].Error, "already approved")
	assert.False(t, resp.Results[4].Success)

	// Per-item events go only to the employee; admins get one summary and
	// one pending-count push for the whole batch.
	empEvents := f.pub.byRoom(realtime.EmployeeRoom(f.employee.ID))
	assert.Len(t, empEvents, 3)

	summaries := f.pub.byEvent(realtime.EventBulkApprovalCompleted)
	require.Len(t, summaries, 1)
	summary := summaries[0].Data.(realtime.BulkApprovalCompleted)
	assert.Equal(t, 5, summary.TotalProcessed)
	assert.Equal(t, 3, summary.SuccessCount)
	assert.Equal(t, "Carlos Ruiz", summary.ApprovedByName)

	counts := f.pub.byEvent(realtime.EventPendingCountUpdated)
	require.Len(t, counts, 1)
	count := counts[0].Data.(realtime.PendingCountUpdated)
	assert.Equal(t, int64(0), count.Count)
	require.NotNil(t, count.Delta)
	assert.Equal(t, -3, *count.Delta)

	assert.Empty(t, f.pub.byEvent(realtime.EventSaleApproved))
}

func TestBulkApprove_EmptyBatch(t *testing.T) {
	f := buildSaleFixture()

	_, err := f.svc.BulkApprove(context.Background(), f.admin.ID, dto.BulkApproveRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)

	// No summary, no count push: an empty batch is rejected outright
	assert.Empty(t, f.pub.envelopes)
}

func TestBulkApprove_InvalidID(t *testing.T) {
	f := buildSaleFixture()

	resp, err := f.svc.BulkApprove(context.Background(), f.admin.ID, dto.BulkApproveRequest{
		SaleIDs: []string{"not-a-uuid"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.FailureCount)
	assert.Equal(t, "invalid sale id", resp.Results[0].Error)
}

// ── Pending count ─────────────────────────────────────────────────────────────

func TestPendingCount_ScopedToEmployee(t *testing.T) {
	f := buildSaleFixture()
	p := f.seedProduct("Lamp", "LP-001", 10, 100, 60)

	other := &model.User{ID: uuid.New(), Username: "jane", Name: "Jane Doe", Role: model.RoleEmployee, Active: true}
	f.users.users[other.ID] = other

	f.createSale(t, p.ID, 1)
	f.createSale(t, p.ID, 1)
	_, err := f.svc.Create(context.Background(), other.ID, dto.CreateSaleRequest{
		ProductID: p.ID.String(), QtySold: 1,
	})
	require.NoError(t, err)

	global, err := f.svc.PendingCount(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), global)

	scoped, err := f.svc.PendingCount(context.Background(), &other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scoped)
}
