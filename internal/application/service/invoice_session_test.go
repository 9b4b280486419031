package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/registerd/internal/domain/entity"
	"github.com/sangkips/registerd/internal/domain/enum"
	"github.com/sangkips/registerd/pkg/apperror"
)

func vatSettings() *entity.FinancialSettings {
	return &entity.FinancialSettings{
		VATEnabled:       true,
		VATRatePercent:   15,
		DefaultTaxPolicy: enum.TaxPolicyExclusive,
	}
}

func sessionWithLine(t *testing.T) (*InvoiceSession, uuid.UUID) {
	t.Helper()
	s := NewInvoiceSession(vatSettings(), time.Now())
	lineID := uuid.New()
	require.NoError(t, s.UpsertLine(lineID, LineInput{
		ItemID:    uuid.New(),
		ItemName:  "Sugar 1kg",
		UnitLabel: "pcs",
		Quantity:  3,
		UnitPrice: 10,
	}))
	return s, lineID
}

func TestInvoiceSession_NewStartsEditing(t *testing.T) {
	s := NewInvoiceSession(vatSettings(), time.Now())
	assert.Equal(t, enum.SessionEditingNew, s.State())
	assert.True(t, s.VATEnabled)
	assert.Equal(t, 15.0, s.VATRate)
	assert.Nil(t, s.InvoiceID())
}

func TestInvoiceSession_UpsertLineRecomputesTotals(t *testing.T) {
	s, lineID := sessionWithLine(t)

	totals := s.Totals()
	assert.InDelta(t, 30.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 4.5, totals.Tax, 1e-9)
	assert.InDelta(t, 34.5, totals.Net, 1e-9)

	// editing the same row replaces it, it does not add a second one
	require.NoError(t, s.UpsertLine(lineID, LineInput{
		ItemID:    s.Lines()[0].ItemID,
		ItemName:  "Sugar 1kg",
		Quantity:  5,
		UnitPrice: 10,
	}))
	require.Len(t, s.Lines(), 1)
	assert.InDelta(t, 57.5, s.Totals().Net, 1e-9)
}

func TestInvoiceSession_ZeroQuantityRemovesLine(t *testing.T) {
	s, lineID := sessionWithLine(t)

	require.NoError(t, s.UpsertLine(lineID, LineInput{
		ItemID:   s.Lines()[0].ItemID,
		Quantity: 0,
	}))
	assert.Empty(t, s.Lines())
	assert.Equal(t, 0.0, s.Totals().Net)
}

func TestInvoiceSession_NegativeQuantityReturnLine(t *testing.T) {
	s, _ := sessionWithLine(t)

	require.NoError(t, s.UpsertLine(uuid.New(), LineInput{
		ItemID:    uuid.New(),
		ItemName:  "Sugar 1kg (return)",
		Quantity:  -5,
		UnitPrice: 10,
	}))
	assert.InDelta(t, -23.0, s.Totals().Net, 1e-9) // 34.50 - 57.50
}

func TestInvoiceSession_DiscountAppliedAfterTax(t *testing.T) {
	s, _ := sessionWithLine(t)

	require.NoError(t, s.SetDiscount(4.5))
	assert.InDelta(t, 30.0, s.Totals().Net, 1e-9)

	err := s.SetDiscount(-1)
	require.Error(t, err)
	assert.True(t, apperror.IsAppError(err))
}

func TestInvoiceSession_CheckoutLifecycle(t *testing.T) {
	s, _ := sessionWithLine(t)

	require.NoError(t, s.BeginCheckout())
	assert.Equal(t, enum.SessionCheckout, s.State())

	// checkout freezes the draft
	err := s.UpsertLine(uuid.New(), LineInput{ItemID: uuid.New(), Quantity: 1, UnitPrice: 1})
	require.Error(t, err)

	// re-entry is idempotent while reconciliation is retried
	require.NoError(t, s.BeginCheckout())

	require.NoError(t, s.CancelCheckout())
	assert.Equal(t, enum.SessionEditingNew, s.State())
	assert.Len(t, s.Lines(), 1) // draft untouched
}

func TestInvoiceSession_CheckoutNeedsPositiveLine(t *testing.T) {
	s := NewInvoiceSession(vatSettings(), time.Now())
	require.Error(t, s.BeginCheckout())

	require.NoError(t, s.UpsertLine(uuid.New(), LineInput{
		ItemID:    uuid.New(),
		Quantity:  -2,
		UnitPrice: 10,
	}))
	require.Error(t, s.BeginCheckout()) // a pure return is not checkout-able
}

func TestInvoiceSession_AtMostOneCommit(t *testing.T) {
	s, _ := sessionWithLine(t)
	require.NoError(t, s.BeginCheckout())

	plan := &ValidatedPlan{Mode: enum.PaymentModeCash, CashAmount: s.Totals().Net}
	require.NoError(t, s.BeginCommit(plan))

	err := s.BeginCommit(plan)
	assert.ErrorIs(t, err, apperror.ErrCommitInFlight)

	err = s.CancelCheckout()
	assert.ErrorIs(t, err, apperror.ErrCommitInFlight)
}

func TestInvoiceSession_FailedCommitReturnsToEditing(t *testing.T) {
	s, _ := sessionWithLine(t)
	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.BeginCommit(&ValidatedPlan{Mode: enum.PaymentModeCash}))

	s.FailCheckout()
	assert.Equal(t, enum.SessionEditingNew, s.State())

	// a fresh checkout attempt gets a fresh commit slot
	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.BeginCommit(&ValidatedPlan{Mode: enum.PaymentModeCash}))
}

func TestInvoiceSession_CommitThenEditLoop(t *testing.T) {
	s, _ := sessionWithLine(t)
	require.NoError(t, s.BeginCheckout())
	require.NoError(t, s.BeginCommit(&ValidatedPlan{Mode: enum.PaymentModeCash}))

	inv := &entity.Invoice{InvoiceNo: "INV-a1b2c3d4", Net: 34.5}
	inv.ID = uuid.New()
	s.Committed(inv)

	assert.Equal(t, enum.SessionSavedReadonly, s.State())
	require.NotNil(t, s.InvoiceID())
	assert.Equal(t, inv.ID, *s.InvoiceID())

	// read-only: no edits until explicitly reopened
	require.Error(t, s.SetDiscount(1))

	require.NoError(t, s.Edit())
	assert.Equal(t, enum.SessionEditingExisting, s.State())
	assert.Equal(t, 34.5, s.ExistingNet())

	// checkout from an edit cancels back to EDITING_EXISTING, not EDITING_NEW
	require.NoError(t, s.BeginCheckout())
	assert.Equal(t, 34.5, s.ExistingNet())
	require.NoError(t, s.CancelCheckout())
	assert.Equal(t, enum.SessionEditingExisting, s.State())
}

func TestInvoiceSession_ExistingNetZeroForNewDraft(t *testing.T) {
	s, _ := sessionWithLine(t)
	assert.Equal(t, 0.0, s.ExistingNet())
	require.NoError(t, s.BeginCheckout())
	assert.Equal(t, 0.0, s.ExistingNet())
}

func TestLoadInvoiceSession_FreezesStoredTaxTreatment(t *testing.T) {
	inv := &entity.Invoice{
		InvoiceNo:   "INV-a1b2c3d4",
		InvoiceDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		VATRate:     15,
		Tax:         4.5,
		Net:         34.5,
		Lines: []entity.InvoiceLine{
			{ItemName: "Sugar 1kg", Quantity: 3, UnitPrice: 10, LineTotal: 34.5, TaxAmount: 4.5},
		},
	}
	inv.ID = uuid.New()

	s := LoadInvoiceSession(inv)
	assert.Equal(t, enum.SessionSavedReadonly, s.State())
	assert.True(t, s.VATEnabled)
	assert.InDelta(t, 34.5, s.Totals().Net, 1e-9)
	assert.Equal(t, "INV-a1b2c3d4", s.Snapshot().InvoiceNo)
}

func TestLoadInvoiceSession_VATDisabledInvoiceStaysDisabled(t *testing.T) {
	// stored with zero tax: live settings turning VAT on must not re-tax it
	inv := &entity.Invoice{
		InvoiceNo: "INV-ffffffff",
		Net:       30,
		Lines: []entity.InvoiceLine{
			{ItemName: "Sugar 1kg", Quantity: 3, UnitPrice: 10, LineTotal: 30, TaxAmount: 0},
		},
	}
	inv.ID = uuid.New()

	s := LoadInvoiceSession(inv)
	assert.False(t, s.VATEnabled)

	require.NoError(t, s.Edit())
	require.NoError(t, s.UpsertLine(uuid.New(), LineInput{
		ItemID:    uuid.New(),
		ItemName:  "Flour 2kg",
		Quantity:  1,
		UnitPrice: 20,
	}))

	totals := s.Totals()
	assert.Equal(t, 0.0, totals.Tax)
	assert.InDelta(t, 50.0, totals.Net, 1e-9)
}

func TestInvoiceSession_InclusionFrozenPerLine(t *testing.T) {
	s := NewInvoiceSession(vatSettings(), time.Now())
	lineID := uuid.New()
	itemID := uuid.New()

	require.NoError(t, s.UpsertLine(lineID, LineInput{
		ItemID:       itemID,
		ItemName:     "Sugar 1kg",
		Quantity:     1,
		UnitPrice:    23,
		TaxInclusive: true,
	}))
	assert.InDelta(t, 23.0, s.Totals().Net, 1e-9)

	// quantity edit keeps the original inclusion flag even if the caller
	// passes a different one
	require.NoError(t, s.UpsertLine(lineID, LineInput{
		ItemID:       itemID,
		ItemName:     "Sugar 1kg",
		Quantity:     2,
		UnitPrice:    23,
		TaxInclusive: false,
	}))
	assert.True(t, s.Lines()[0].TaxInclusive)
	assert.InDelta(t, 46.0, s.Totals().Net, 1e-9)
}
