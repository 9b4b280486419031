package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/registerd/internal/domain/entity"
	"github.com/sangkips/registerd/internal/domain/enum"
	"github.com/sangkips/registerd/pkg/apperror"
)

// in-memory collaborators for pipeline tests

type fakeItemRepo struct {
	items   map[uuid.UUID]*entity.Item
	history map[uuid.UUID][]entity.ItemCost
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{
		items:   make(map[uuid.UUID]*entity.Item),
		history: make(map[uuid.UUID][]entity.ItemCost),
	}
}

func (r *fakeItemRepo) add(item *entity.Item) *entity.Item {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return item
}

func (r *fakeItemRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Item, error) {
	return r.items[id], nil
}

func (r *fakeItemRepo) GetByIDs(_ context.Context, ids []uuid.UUID) ([]entity.Item, error) {
	out := make([]entity.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) GetByCode(_ context.Context, code string) (*entity.Item, error) {
	for _, item := range r.items {
		if item.Code == code {
			return item, nil
		}
	}
	return nil, nil
}

func (r *fakeItemRepo) GetByBarcode(_ context.Context, barcode string) (*entity.Item, error) {
	for _, item := range r.items {
		if item.Barcode != nil && *item.Barcode == barcode {
			return item, nil
		}
	}
	return nil, nil
}

func (r *fakeItemRepo) Search(_ context.Context, query string, limit int) ([]entity.Item, error) {
	out := make([]entity.Item, 0, limit)
	for _, item := range r.items {
		if strings.Contains(strings.ToLower(item.Name), strings.ToLower(query)) && len(out) < limit {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) CostHistoryFor(_ context.Context, itemIDs []uuid.UUID, onOrBefore time.Time) (map[uuid.UUID][]entity.ItemCost, error) {
	out := make(map[uuid.UUID][]entity.ItemCost, len(itemIDs))
	for _, id := range itemIDs {
		out[id] = filterHistory(r.history[id], onOrBefore)
	}
	return out, nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*entity.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[uuid.UUID]*entity.Customer)}
}

func (r *fakeCustomerRepo) add(c *entity.Customer) *entity.Customer {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	return c
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Customer, error) {
	return r.customers[id], nil
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*entity.Invoice
	failNext error
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*entity.Invoice)}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, inv *entity.Invoice) error {
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) GetWithLines(_ context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.invoices[id], nil
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.invoices, id)
	return nil
}

type staticSettings struct {
	settings *entity.FinancialSettings
}

func (s *staticSettings) FinancialSettings(context.Context) (*entity.FinancialSettings, error) {
	return s.settings, nil
}

type pipeline struct {
	svc       *SessionService
	items     *fakeItemRepo
	customers *fakeCustomerRepo
	invoices  *fakeInvoiceRepo
	settings  *entity.FinancialSettings
	sugar     *entity.Item
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	safe := uuid.New()
	bank := uuid.New()
	settings := &entity.FinancialSettings{
		SellerName:       "ACME Trading Co",
		VATNumber:        "310122393500003",
		VATEnabled:       true,
		VATRatePercent:   15,
		DefaultTaxPolicy: enum.TaxPolicyExclusive,
		CashSafeID:       &safe,
		BankAccountID:    &bank,
	}

	items := newFakeItemRepo()
	sugar := items.add(&entity.Item{
		Name:          "Sugar 1kg",
		Code:          "SUG-001",
		UnitLabel:     "pcs",
		Stocked:       true,
		Stock:         100,
		UnitPrice:     10,
		PurchasePrice: 7,
	})

	customers := newFakeCustomerRepo()
	invoices := newFakeInvoiceRepo()

	return &pipeline{
		svc:       NewSessionService(items, customers, invoices, &staticSettings{settings}),
		items:     items,
		customers: customers,
		invoices:  invoices,
		settings:  settings,
		sugar:     sugar,
	}
}

func (p *pipeline) openWithSugar(t *testing.T, qty float64) *InvoiceSession {
	t.Helper()
	ctx := context.Background()

	session, err := p.svc.Open(ctx)
	require.NoError(t, err)

	_, err = p.svc.UpsertLine(ctx, session.ID, uuid.New(), LineRequest{
		ItemID:   &p.sugar.ID,
		Quantity: qty,
	})
	require.NoError(t, err)
	return session
}

func TestSessionService_CashCheckoutCommits(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	session := p.openWithSugar(t, 3)

	result, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.NoError(t, err)
	require.True(t, result.Committed)
	require.NotNil(t, result.Invoice)

	assert.Equal(t, enum.SessionSavedReadonly, session.State())
	assert.True(t, strings.HasPrefix(result.Invoice.InvoiceNo, "INV-"))
	assert.InDelta(t, 34.5, result.Invoice.Totals.Net, 1e-9)
	assert.InDelta(t, 4.5, result.Invoice.Totals.Tax, 1e-9)
	assert.NotEmpty(t, result.Invoice.ZatcaBase64)

	// persisted unrounded, exactly what the session computed
	stored := p.invoices.invoices[*session.InvoiceID()]
	require.NotNil(t, stored)
	assert.Equal(t, session.Totals().Net, stored.Net)
	assert.Equal(t, p.settings.CashSafeID, stored.CashSafeID)
	assert.Nil(t, stored.BankAccount)
}

func TestSessionService_LineResolutionPrecedence(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	barcode := "6281000112233"
	p.sugar.Barcode = &barcode

	session, err := p.svc.Open(ctx)
	require.NoError(t, err)

	_, err = p.svc.UpsertLine(ctx, session.ID, uuid.New(), LineRequest{Barcode: barcode, Quantity: 1})
	require.NoError(t, err)
	_, err = p.svc.UpsertLine(ctx, session.ID, uuid.New(), LineRequest{ItemCode: "SUG-001", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, session.Lines(), 2)

	_, err = p.svc.UpsertLine(ctx, session.ID, uuid.New(), LineRequest{ItemCode: "NOPE", Quantity: 1})
	require.Error(t, err)
	assert.Equal(t, 404, apperror.GetAppError(err).Code)

	_, err = p.svc.UpsertLine(ctx, session.ID, uuid.New(), LineRequest{Quantity: 1})
	require.Error(t, err) // no reference at all
}

func TestSessionService_GuardRejectionReturnsToEditing(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.sugar.Stock = 2

	session := p.openWithSugar(t, 3)

	_, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.Error(t, err)
	assert.Equal(t, 409, apperror.GetAppError(err).Code)

	// tab back in editing, draft intact, nothing persisted
	assert.Equal(t, enum.SessionEditingNew, session.State())
	assert.Len(t, session.Lines(), 1)
	assert.Empty(t, p.invoices.invoices)
}

func TestSessionService_StockReadIsFresh(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	session := p.openWithSugar(t, 3)

	// stock drops after the line was added but before checkout
	p.sugar.Stock = 1

	_, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient stock")
}

func TestSessionService_CreditNeedsCustomer(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	session := p.openWithSugar(t, 1)

	_, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCredit})
	require.Error(t, err)
	assert.Equal(t, 422, apperror.GetAppError(err).Code)
	// validation failed before checkout was entered
	assert.Equal(t, enum.SessionEditingNew, session.State())
}

func TestSessionService_CreditApprovalFlow(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.settings.CreditLimitPolicy = enum.CreditPolicyRequireApproval

	customer := p.customers.add(&entity.Customer{
		Name:           "Acme Retail",
		CurrentBalance: 950,
		CreditLimit:    1000,
	})

	session := p.openWithSugar(t, 10) // net 115.00 on credit
	_, err := p.svc.SetCustomer(ctx, session.ID, &customer.ID)
	require.NoError(t, err)

	result, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCredit})
	require.NoError(t, err)
	require.False(t, result.Committed)
	require.NotNil(t, result.Approval)
	assert.InDelta(t, 1065.0, result.Approval.ProjectedBalance, 1e-9)
	assert.InDelta(t, 1000.0, result.Approval.CreditLimit, 1e-9)
	assert.InDelta(t, 65.0, result.Approval.OverBy, 1e-9)
	assert.Empty(t, p.invoices.invoices)

	approved, err := p.svc.Approve(ctx, session.ID)
	require.NoError(t, err)
	require.True(t, approved.Committed)
	assert.Equal(t, enum.SessionSavedReadonly, session.State())

	stored := p.invoices.invoices[*session.InvoiceID()]
	require.NotNil(t, stored)
	assert.Equal(t, enum.PaymentModeCredit, stored.PaymentMode)
	assert.Nil(t, stored.CashSafeID)
	assert.Nil(t, stored.BankAccount)

	// approval is consumed with the checkout
	_, err = p.svc.Approve(ctx, session.ID)
	require.Error(t, err)
}

func TestSessionService_CreditBlockPolicyRejects(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.settings.CreditLimitPolicy = enum.CreditPolicyBlock

	customer := p.customers.add(&entity.Customer{
		Name:           "Acme Retail",
		CurrentBalance: 950,
		CreditLimit:    1000,
	})

	session := p.openWithSugar(t, 10)
	_, err := p.svc.SetCustomer(ctx, session.ID, &customer.ID)
	require.NoError(t, err)

	_, err = p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCredit})
	require.Error(t, err)
	assert.Equal(t, enum.SessionEditingNew, session.State())
}

func TestSessionService_PersistenceFailureReopensDraft(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	session := p.openWithSugar(t, 3)

	p.invoices.failNext = errors.New("connection reset")

	_, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.Error(t, err)
	assert.Equal(t, 502, apperror.GetAppError(err).Code)
	assert.Equal(t, enum.SessionEditingNew, session.State())

	// explicit retry succeeds and commits exactly one invoice
	result, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.NoError(t, err)
	assert.True(t, result.Committed)
	assert.Len(t, p.invoices.invoices, 1)
}

func TestSessionService_EditKeepsInvoiceNumber(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	session := p.openWithSugar(t, 3)

	first, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.NoError(t, err)
	invoiceID := *session.InvoiceID()

	_, err = p.svc.Edit(session.ID)
	require.NoError(t, err)

	_, err = p.svc.UpsertLine(ctx, session.ID, uuid.New(), LineRequest{ItemID: &p.sugar.ID, Quantity: 2})
	require.NoError(t, err)

	second, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.NoError(t, err)

	assert.Equal(t, first.Invoice.InvoiceNo, second.Invoice.InvoiceNo)
	assert.Equal(t, invoiceID, *session.InvoiceID())
	assert.Len(t, p.invoices.invoices, 1)
	assert.InDelta(t, 57.5, p.invoices.invoices[invoiceID].Net, 1e-9) // 5 × 10 + 15%
}

func TestSessionService_OpenInvoiceLoadsReadonlyTab(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	session := p.openWithSugar(t, 3)

	_, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.NoError(t, err)
	invoiceID := *session.InvoiceID()

	loaded, err := p.svc.OpenInvoice(ctx, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, enum.SessionSavedReadonly, loaded.State())
	assert.NotEqual(t, session.ID, loaded.ID) // a separate tab
	assert.InDelta(t, session.Totals().Net, loaded.Totals().Net, 1e-9)

	_, err = p.svc.OpenInvoice(ctx, uuid.New())
	require.Error(t, err)
}

func TestSessionService_CloseLastTabOpensFreshOne(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	session, err := p.svc.Open(ctx)
	require.NoError(t, err)
	require.Len(t, p.svc.List(), 1)

	replacement, err := p.svc.Close(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, replacement)
	assert.NotEqual(t, session.ID, replacement.ID)
	assert.Equal(t, enum.SessionEditingNew, replacement.State())
	assert.Len(t, p.svc.List(), 1)
}

func TestSessionService_CloseSavedTabDeletesInvoice(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()

	keep, err := p.svc.Open(ctx)
	require.NoError(t, err)

	session := p.openWithSugar(t, 3)
	_, err = p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.NoError(t, err)
	invoiceID := *session.InvoiceID()

	replacement, err := p.svc.Close(ctx, session.ID)
	require.NoError(t, err)
	assert.Nil(t, replacement) // another tab is still open
	assert.NotContains(t, p.invoices.invoices, invoiceID)

	_, err = p.svc.Get(keep.ID)
	assert.NoError(t, err)
}

func TestSessionService_SplitCheckoutStoresBothLegs(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	session := p.openWithSugar(t, 10) // net 115.00

	result, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{
		Mode:       enum.PaymentModeCash,
		Split:      true,
		CashAmount: f(100),
	})
	require.NoError(t, err)
	require.True(t, result.Committed)

	stored := p.invoices.invoices[*session.InvoiceID()]
	require.NotNil(t, stored)
	assert.True(t, stored.Split)
	assert.Equal(t, 100.0, stored.CashAmount)
	assert.InDelta(t, 15.0, stored.CardAmount, 1e-9)
	assert.Equal(t, p.settings.CashSafeID, stored.CashSafeID)
	assert.Equal(t, p.settings.BankAccountID, stored.BankAccount)
}

func TestSessionService_ReconcileFailureLeavesCheckout(t *testing.T) {
	p := newPipeline(t)
	ctx := context.Background()
	p.settings.CashSafeID = nil

	session := p.openWithSugar(t, 1)

	_, err := p.svc.Checkout(ctx, session.ID, PaymentPlanInput{Mode: enum.PaymentModeCash})
	require.Error(t, err)
	assert.Equal(t, enum.SessionEditingNew, session.State())
}
