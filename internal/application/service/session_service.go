package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/registerd/internal/domain/entity"
	"github.com/sangkips/registerd/internal/domain/enum"
	"github.com/sangkips/registerd/internal/domain/repository"
	"github.com/sangkips/registerd/internal/pricing"
	"github.com/sangkips/registerd/pkg/apperror"
	"github.com/sangkips/registerd/pkg/zatca"
)

// SessionService owns the open invoice tabs and orchestrates the checkout
// pipeline: payment reconciliation, fresh collaborator reads, guard checks,
// the single commit call, and the ZATCA payload for the receipt.
type SessionService struct {
	itemRepo     repository.ItemRepository
	customerRepo repository.CustomerRepository
	invoiceRepo  repository.InvoiceRepository
	settings     SettingsProvider

	mu       sync.RWMutex
	sessions map[uuid.UUID]*InvoiceSession

	now func() time.Time
}

// SettingsProvider supplies the company financial settings, typically cached.
type SettingsProvider interface {
	FinancialSettings(ctx context.Context) (*entity.FinancialSettings, error)
}

// NewSessionService creates a new session service
func NewSessionService(
	itemRepo repository.ItemRepository,
	customerRepo repository.CustomerRepository,
	invoiceRepo repository.InvoiceRepository,
	settings SettingsProvider,
) *SessionService {
	return &SessionService{
		itemRepo:     itemRepo,
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		settings:     settings,
		sessions:     make(map[uuid.UUID]*InvoiceSession),
		now:          time.Now,
	}
}

// Open creates a fresh EDITING_NEW tab.
func (s *SessionService) Open(ctx context.Context) (*InvoiceSession, error) {
	settings, err := s.settings.FinancialSettings(ctx)
	if err != nil {
		return nil, err
	}

	session := NewInvoiceSession(settings, s.now())
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session, nil
}

// OpenInvoice loads a stored invoice into a new SAVED_READONLY tab.
func (s *SessionService) OpenInvoice(ctx context.Context, invoiceID uuid.UUID) (*InvoiceSession, error) {
	inv, err := s.invoiceRepo.GetWithLines(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}

	session := LoadInvoiceSession(inv)
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	return session, nil
}

// Get returns an open session by id.
func (s *SessionService) Get(id uuid.UUID) (*InvoiceSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperror.NewNotFoundError("Session")
	}
	return session, nil
}

// List returns snapshots of all open tabs.
func (s *SessionService) List() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Snapshot, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Snapshot())
	}
	return out
}

// LineRequest references an item by id, code or barcode and carries the
// edited quantity and price. A zero quantity removes the line.
type LineRequest struct {
	ItemID       *uuid.UUID `json:"item_id,omitempty"`
	ItemCode     string     `json:"item_code,omitempty"`
	Barcode      string     `json:"barcode,omitempty"`
	Quantity     float64    `json:"quantity"`
	UnitPrice    *float64   `json:"unit_price,omitempty"`    // nil: use the item's price
	TaxInclusive *bool      `json:"tax_inclusive,omitempty"` // nil: item/company policy; frozen once the line exists
}

// UpsertLine resolves the item and applies the line mutation to the session.
func (s *SessionService) UpsertLine(ctx context.Context, sessionID, lineID uuid.UUID, req LineRequest) (*InvoiceSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	item, err := s.resolveItem(ctx, req)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.FinancialSettings(ctx)
	if err != nil {
		return nil, err
	}

	unitPrice := item.UnitPrice
	if req.UnitPrice != nil {
		unitPrice = *req.UnitPrice
	}

	// the inclusion flag is frozen at line creation; an explicit request
	// override only applies to a new line, edits keep the original
	taxInclusive := item.EffectiveTaxPolicy(settings.DefaultTaxPolicy) == enum.TaxPolicyInclusive
	if req.TaxInclusive != nil {
		taxInclusive = *req.TaxInclusive
	}
	for _, l := range session.Lines() {
		if l.ID == lineID {
			taxInclusive = l.TaxInclusive
			break
		}
	}

	if err := session.UpsertLine(lineID, LineInput{
		ItemID:       item.ID,
		ItemName:     item.Name,
		UnitLabel:    item.UnitLabel,
		Quantity:     req.Quantity,
		UnitPrice:    unitPrice,
		TaxInclusive: taxInclusive,
	}); err != nil {
		return nil, err
	}
	return session, nil
}

// RemoveLine removes a line from the session.
func (s *SessionService) RemoveLine(sessionID, lineID uuid.UUID) (*InvoiceSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.RemoveLine(lineID); err != nil {
		return nil, err
	}
	return session, nil
}

// SetDiscount updates the invoice-level discount.
func (s *SessionService) SetDiscount(sessionID uuid.UUID, discount float64) (*InvoiceSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.SetDiscount(discount); err != nil {
		return nil, err
	}
	return session, nil
}

// SetCustomer attaches a customer to the draft after verifying it exists.
func (s *SessionService) SetCustomer(ctx context.Context, sessionID uuid.UUID, customerID *uuid.UUID) (*InvoiceSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if customerID != nil {
		customer, err := s.customerRepo.GetByID(ctx, *customerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, apperror.NewNotFoundError("Customer")
		}
	}

	if err := session.SetCustomer(customerID); err != nil {
		return nil, err
	}
	return session, nil
}

// ApprovalFigures carries the credit projection shown to the approver.
type ApprovalFigures struct {
	ProjectedBalance float64 `json:"projected_balance"`
	CreditLimit      float64 `json:"credit_limit"`
	OverBy           float64 `json:"over_by"`
}

// CheckoutResult is the outcome of a checkout or approve call: either a
// committed invoice with its receipt summary, or a request for interactive
// approval carrying the credit figures.
type CheckoutResult struct {
	Committed bool                     `json:"committed"`
	Approval  *ApprovalFigures         `json:"approval,omitempty"`
	Invoice   *entity.FinalizedInvoice `json:"invoice,omitempty"`
}

// Checkout runs the full pipeline: enter CHECKOUT, reconcile the payment
// plan, fetch fresh guard input, run the guards, and commit. On guard
// rejection or persistence failure the session returns to its originating
// editing state with the draft untouched.
func (s *SessionService) Checkout(ctx context.Context, sessionID uuid.UUID, plan PaymentPlanInput) (*CheckoutResult, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.FinancialSettings(ctx)
	if err != nil {
		return nil, err
	}

	if plan.Mode == enum.PaymentModeCredit && session.CustomerID == nil {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "customer_id", Message: "a credit invoice needs a customer"},
		})
	}

	if err := session.BeginCheckout(); err != nil {
		return nil, err
	}

	validated, err := ReconcilePlan(session.Totals().Net, plan, Instruments{
		CashSafeID:    settings.CashSafeID,
		BankAccountID: settings.BankAccountID,
	})
	if err != nil {
		session.FailCheckout()
		return nil, err
	}

	return s.guardAndCommit(ctx, session, settings, validated, false)
}

// Approve re-attempts the commit after the user confirmed a credit-limit
// overage. Guard checks re-run against fresh reads; only the credit check is
// waived.
func (s *SessionService) Approve(ctx context.Context, sessionID uuid.UUID) (*CheckoutResult, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	plan, pending := session.PendingApproval()
	if pending == nil || plan == nil {
		return nil, apperror.NewBadRequestError("No approval is pending for this invoice")
	}

	settings, err := s.settings.FinancialSettings(ctx)
	if err != nil {
		return nil, err
	}

	return s.guardAndCommit(ctx, session, settings, plan, true)
}

// Cancel abandons the CHECKOUT sub-state.
func (s *SessionService) Cancel(sessionID uuid.UUID) (*InvoiceSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.CancelCheckout(); err != nil {
		return nil, err
	}
	return session, nil
}

// Edit reopens a saved invoice for editing.
func (s *SessionService) Edit(sessionID uuid.UUID) (*InvoiceSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Edit(); err != nil {
		return nil, err
	}
	return session, nil
}

// Close deletes the session's invoice (when saved) and removes the tab.
// Closing the last tab always leaves exactly one fresh EDITING_NEW session.
func (s *SessionService) Close(ctx context.Context, sessionID uuid.UUID) (*InvoiceSession, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}

	if id := session.InvoiceID(); id != nil && session.State() == enum.SessionSavedReadonly {
		if err := s.invoiceRepo.Delete(ctx, *id); err != nil {
			return nil, apperror.NewPersistenceError("Deleting the invoice failed: " + err.Error())
		}
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	remaining := len(s.sessions)
	s.mu.Unlock()

	if remaining > 0 {
		return nil, nil
	}
	return s.Open(ctx)
}

func (s *SessionService) guardAndCommit(
	ctx context.Context,
	session *InvoiceSession,
	settings *entity.FinancialSettings,
	plan *ValidatedPlan,
	approvalGranted bool,
) (*CheckoutResult, error) {
	// guard input is fetched no earlier than the commit action itself
	input, err := s.fetchGuardInput(ctx, session, plan, approvalGranted)
	if err != nil {
		session.FailCheckout()
		return nil, err
	}

	result := RunGuards(*input, GuardPolicies{
		AllowNegativeStock:    settings.AllowNegativeStock,
		AllowSellingBelowCost: settings.AllowSellingBelowCost,
		CreditLimitPolicy:     settings.CreditLimitPolicy,
	})

	switch result.Outcome {
	case GuardReject:
		session.FailCheckout()
		return nil, apperror.NewGuardRejectionError(result.Message)
	case GuardNeedsApproval:
		session.AwaitApproval(plan, result)
		return &CheckoutResult{
			Approval: &ApprovalFigures{
				ProjectedBalance: result.ProjectedBalance,
				CreditLimit:      result.CreditLimit,
				OverBy:           result.OverBy,
			},
		}, nil
	}

	return s.commit(ctx, session, settings, plan, input.Customer)
}

func (s *SessionService) commit(
	ctx context.Context,
	session *InvoiceSession,
	settings *entity.FinancialSettings,
	plan *ValidatedPlan,
	customer *CustomerCredit,
) (*CheckoutResult, error) {
	if err := session.BeginCommit(plan); err != nil {
		return nil, err
	}

	totals := session.Totals()
	now := s.now().UTC()

	qr, err := (&zatca.Payload{
		SellerName:   settings.SellerName,
		VATNumber:    settings.VATNumber,
		Timestamp:    now.Format(time.RFC3339),
		InvoiceTotal: pricing.Round2(totals.Net),
		VATTotal:     pricing.Round2(totals.Tax),
	}).Encode()
	if err != nil {
		session.FailCheckout()
		return nil, apperror.NewFormatViolationError(err.Error())
	}

	existing := session.InvoiceID()
	inv := &entity.Invoice{
		InvoiceNo:   session.invoiceNo,
		CustomerID:  session.CustomerID,
		InvoiceDate: session.InvoiceDate,
		VATEnabled:  session.VATEnabled,
		VATRate:     session.VATRate,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Discount:    totals.Discount,
		Net:         totals.Net,
		PaymentMode: plan.Mode,
		Split:       plan.Split,
		CashSafeID:  plan.CashSafeID,
		BankAccount: plan.BankAccountID,
		CashAmount:  plan.CashAmount,
		CardAmount:  plan.CardAmount,
		QRPayload:   qr,
		Lines:       session.Lines(),
	}

	if existing != nil {
		inv.ID = *existing
		err = s.invoiceRepo.Update(ctx, inv)
	} else {
		inv.InvoiceNo = fmt.Sprintf("INV-%s", uuid.New().String()[:8])
		err = s.invoiceRepo.Create(ctx, inv)
	}
	if err != nil {
		session.FailCheckout()
		return nil, apperror.NewPersistenceError("Saving the invoice failed: " + err.Error())
	}

	session.Committed(inv)

	customerName := ""
	if customer != nil {
		customerName = customer.Name
	}
	return &CheckoutResult{
		Committed: true,
		Invoice:   entity.NewFinalizedInvoice(inv, customerName, qr),
	}, nil
}

// fetchGuardInput assembles fresh reads for the guard: current stock and
// cost history for every line item in one batch, plus the customer's credit
// state for credit invoices.
func (s *SessionService) fetchGuardInput(
	ctx context.Context,
	session *InvoiceSession,
	plan *ValidatedPlan,
	approvalGranted bool,
) (*GuardInput, error) {
	lines := session.Lines()

	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ItemID] {
			seen[l.ItemID] = true
			ids = append(ids, l.ItemID)
		}
	}

	items, err := s.itemRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	itemMap := make(map[uuid.UUID]*entity.Item, len(items))
	for i := range items {
		itemMap[items[i].ID] = &items[i]
	}

	history, err := s.itemRepo.CostHistoryFor(ctx, ids, session.InvoiceDate)
	if err != nil {
		return nil, err
	}

	guardLines := make([]GuardLine, 0, len(lines))
	for _, l := range lines {
		item, exists := itemMap[l.ItemID]
		if !exists {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Item %s", l.ItemID))
		}
		guardLines = append(guardLines, GuardLine{
			ItemID:       item.ID,
			ItemName:     item.Name,
			Stocked:      item.Stocked,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Stock:        item.Stock,
			CostHistory:  filterHistory(history[item.ID], session.InvoiceDate),
			FallbackCost: item.PurchasePrice,
		})
	}

	input := &GuardInput{
		Lines:           guardLines,
		PaymentMode:     plan.Mode,
		Net:             session.Totals().Net,
		ExistingNet:     session.ExistingNet(),
		ApprovalGranted: approvalGranted,
	}

	if session.CustomerID != nil {
		customer, err := s.customerRepo.GetByID(ctx, *session.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, apperror.NewNotFoundError("Customer")
		}
		input.Customer = &CustomerCredit{
			ID:             customer.ID,
			Name:           customer.Name,
			CurrentBalance: customer.CurrentBalance,
			CreditLimit:    customer.CreditLimit,
		}
	}

	return input, nil
}

func (s *SessionService) resolveItem(ctx context.Context, req LineRequest) (*entity.Item, error) {
	var item *entity.Item
	var err error

	switch {
	case req.ItemID != nil:
		item, err = s.itemRepo.GetByID(ctx, *req.ItemID)
	case req.Barcode != "":
		item, err = s.itemRepo.GetByBarcode(ctx, req.Barcode)
	case req.ItemCode != "":
		item, err = s.itemRepo.GetByCode(ctx, req.ItemCode)
	default:
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "item_id", Message: "an item reference is required"},
		})
	}
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Item")
	}
	return item, nil
}
