package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/registerd/internal/domain/entity"
	"github.com/sangkips/registerd/internal/domain/enum"
	"github.com/sangkips/registerd/internal/pricing"
	"github.com/sangkips/registerd/pkg/apperror"
)

// InvoiceSession is one open invoice tab. Each tab is independent: no two
// sessions share mutable line or total state, and switching tabs never
// recomputes another tab's totals.
//
// The state machine is EDITING_NEW → CHECKOUT → SAVED_READONLY →
// EDITING_EXISTING → CHECKOUT → SAVED_READONLY, with CHECKOUT exiting back to
// the state it was entered from on cancel or guard rejection. The VAT-enabled
// flag and per-line tax-inclusion flags are frozen: a session loaded from a
// stored invoice keeps the stored tax treatment no matter what the live
// company settings say.
type InvoiceSession struct {
	ID          uuid.UUID
	CustomerID  *uuid.UUID
	InvoiceDate time.Time

	// tax treatment frozen for the lifetime of the session
	VATEnabled       bool
	VATRate          float64
	DefaultTaxPolicy enum.TaxPolicy

	state       enum.SessionState
	invoiceID   *uuid.UUID
	invoiceNo   string
	existingNet float64 // stored net when editing an existing invoice

	lines    []entity.InvoiceLine
	discount float64
	totals   pricing.Totals

	// checkout sub-state, discarded when CHECKOUT is left
	originState     enum.SessionState
	plan            *ValidatedPlan
	pendingApproval *GuardResult
	commitInFlight  bool

	mu sync.Mutex
}

// NewInvoiceSession opens a blank tab in EDITING_NEW using the live company
// tax settings.
func NewInvoiceSession(settings *entity.FinancialSettings, now time.Time) *InvoiceSession {
	return &InvoiceSession{
		ID:               uuid.New(),
		InvoiceDate:      now,
		VATEnabled:       settings.VATEnabled,
		VATRate:          settings.VATRatePercent,
		DefaultTaxPolicy: settings.DefaultTaxPolicy,
		state:            enum.SessionEditingNew,
	}
}

// LoadInvoiceSession opens a tab on a stored invoice in SAVED_READONLY. The
// VAT-enabled flag is inferred from the stored figures, never taken from the
// live settings, so historical tax treatment cannot change silently.
func LoadInvoiceSession(inv *entity.Invoice) *InvoiceSession {
	amounts := make([]pricing.LineAmounts, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		amounts = append(amounts, pricing.LineAmounts{Total: l.LineTotal, TaxAmount: l.TaxAmount})
	}

	id := inv.ID
	s := &InvoiceSession{
		ID:          uuid.New(),
		CustomerID:  inv.CustomerID,
		InvoiceDate: inv.InvoiceDate,
		VATEnabled:  pricing.InferVATEnabled(inv.Tax, amounts),
		VATRate:     inv.VATRate,
		state:       enum.SessionSavedReadonly,
		invoiceID:   &id,
		invoiceNo:   inv.InvoiceNo,
		existingNet: inv.Net,
		lines:       append([]entity.InvoiceLine(nil), inv.Lines...),
		discount:    inv.Discount,
	}
	s.recompute()
	return s
}

// State returns the current lifecycle state.
func (s *InvoiceSession) State() enum.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LineInput is a line mutation: the resolved item snapshot plus the edited
// quantity and price. TaxInclusive is frozen at line creation; edits to an
// existing line keep the original flag.
type LineInput struct {
	ItemID       uuid.UUID
	ItemName     string
	UnitLabel    string
	Quantity     float64
	UnitPrice    float64
	TaxInclusive bool
}

// UpsertLine creates or updates a line and synchronously recomputes it and
// the invoice totals. A zero quantity removes the row: it has no economic
// effect left.
func (s *InvoiceSession) UpsertLine(lineID uuid.UUID, in LineInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Editing() {
		return apperror.NewBadRequestError("Invoice is not editable in state " + s.state.String())
	}
	if in.ItemID == uuid.Nil {
		return apperror.NewValidationError([]apperror.FieldError{
			{Field: "item_id", Message: "a line needs a resolved item"},
		})
	}

	if in.Quantity == 0 {
		s.removeLineLocked(lineID)
		s.recompute()
		return nil
	}

	idx := s.lineIndex(lineID)
	if idx < 0 {
		s.lines = append(s.lines, entity.InvoiceLine{
			ID:           lineID,
			ItemID:       in.ItemID,
			ItemName:     in.ItemName,
			UnitLabel:    in.UnitLabel,
			TaxInclusive: in.TaxInclusive,
		})
		idx = len(s.lines) - 1
	}

	line := &s.lines[idx]
	line.Quantity = in.Quantity
	line.UnitPrice = in.UnitPrice

	amounts := pricing.ComputeLine(line.Quantity, line.UnitPrice, line.TaxInclusive, s.VATEnabled, s.VATRate)
	line.LineTotal = amounts.Total
	line.TaxAmount = amounts.TaxAmount

	s.recompute()
	return nil
}

// RemoveLine deletes a line and recomputes totals.
func (s *InvoiceSession) RemoveLine(lineID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Editing() {
		return apperror.NewBadRequestError("Invoice is not editable in state " + s.state.String())
	}
	s.removeLineLocked(lineID)
	s.recompute()
	return nil
}

// SetDiscount updates the invoice-level discount and recomputes totals.
func (s *InvoiceSession) SetDiscount(discount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Editing() {
		return apperror.NewBadRequestError("Invoice is not editable in state " + s.state.String())
	}
	if discount < 0 {
		return apperror.NewValidationError([]apperror.FieldError{
			{Field: "discount", Message: "discount cannot be negative"},
		})
	}
	s.discount = discount
	s.recompute()
	return nil
}

// SetCustomer attaches or detaches the customer for the draft.
func (s *InvoiceSession) SetCustomer(customerID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Editing() {
		return apperror.NewBadRequestError("Invoice is not editable in state " + s.state.String())
	}
	s.CustomerID = customerID
	return nil
}

// BeginCheckout moves an editing session into the CHECKOUT sub-state.
// It requires at least one line with a positive quantity.
func (s *InvoiceSession) BeginCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == enum.SessionCheckout {
		return nil // already there; reconciliation may be retried
	}
	if !s.state.Editing() {
		return apperror.NewBadRequestError("Checkout is not available in state " + s.state.String())
	}

	hasPositive := false
	for _, l := range s.lines {
		if l.Quantity > 0 {
			hasPositive = true
			break
		}
	}
	if !hasPositive {
		return apperror.NewValidationError([]apperror.FieldError{
			{Field: "lines", Message: "at least one line with a positive quantity is required"},
		})
	}

	s.originState = s.state
	s.state = enum.SessionCheckout
	return nil
}

// CancelCheckout abandons the CHECKOUT sub-state and returns to the
// originating editing state with the draft untouched. Once a commit request
// is in flight the operation is no longer cancellable.
func (s *InvoiceSession) CancelCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enum.SessionCheckout {
		return apperror.NewBadRequestError("No checkout in progress")
	}
	if s.commitInFlight {
		return apperror.ErrCommitInFlight
	}
	s.leaveCheckoutLocked()
	return nil
}

// AwaitApproval parks the checkout pending interactive confirmation,
// keeping the validated plan for the re-attempt.
func (s *InvoiceSession) AwaitApproval(plan *ValidatedPlan, guard GuardResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
	s.pendingApproval = &guard
}

// PendingApproval returns the parked guard result, if any.
func (s *InvoiceSession) PendingApproval() (*ValidatedPlan, *GuardResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan, s.pendingApproval
}

// BeginCommit marks the commit as in flight. At most one commit per checkout
// attempt: further calls fail until the in-flight one resolves.
func (s *InvoiceSession) BeginCommit(plan *ValidatedPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enum.SessionCheckout {
		return apperror.NewBadRequestError("No checkout in progress")
	}
	if s.commitInFlight {
		return apperror.ErrCommitInFlight
	}
	s.commitInFlight = true
	s.plan = plan
	return nil
}

// FailCheckout leaves CHECKOUT after a guard rejection or failed commit:
// back to the originating editing state, draft untouched, nothing persisted.
func (s *InvoiceSession) FailCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveCheckoutLocked()
}

// Committed records a successful commit: the session becomes SAVED_READONLY
// and the checkout sub-state is discarded.
func (s *InvoiceSession) Committed(inv *entity.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := inv.ID
	s.invoiceID = &id
	s.invoiceNo = inv.InvoiceNo
	s.existingNet = inv.Net
	s.commitInFlight = false
	s.plan = nil
	s.pendingApproval = nil
	s.state = enum.SessionSavedReadonly
}

// Edit reopens a saved invoice for editing. The frozen VAT flag and per-line
// inclusion flags carry over unchanged.
func (s *InvoiceSession) Edit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != enum.SessionSavedReadonly {
		return apperror.NewBadRequestError("Only a saved invoice can be reopened for editing")
	}
	s.state = enum.SessionEditingExisting
	return nil
}

// InvoiceID returns the persisted invoice id, or nil for an unsaved draft.
func (s *InvoiceSession) InvoiceID() *uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invoiceID == nil {
		return nil
	}
	id := *s.invoiceID
	return &id
}

// Totals returns the current invoice totals.
func (s *InvoiceSession) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

// Lines returns a copy of the current lines.
func (s *InvoiceSession) Lines() []entity.InvoiceLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.InvoiceLine(nil), s.lines...)
}

// Discount returns the current invoice-level discount.
func (s *InvoiceSession) Discount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discount
}

// ExistingNet returns the stored net when editing an existing invoice, used
// by the credit-limit projection.
func (s *InvoiceSession) ExistingNet() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == enum.SessionEditingExisting || (s.state == enum.SessionCheckout && s.originState == enum.SessionEditingExisting) {
		return s.existingNet
	}
	return 0
}

// Snapshot is the API view of a session.
type Snapshot struct {
	ID          uuid.UUID            `json:"id"`
	State       enum.SessionState    `json:"state"`
	InvoiceID   *uuid.UUID           `json:"invoice_id,omitempty"`
	InvoiceNo   string               `json:"invoice_no,omitempty"`
	CustomerID  *uuid.UUID           `json:"customer_id,omitempty"`
	InvoiceDate time.Time            `json:"invoice_date"`
	VATEnabled  bool                 `json:"vat_enabled"`
	VATRate     float64              `json:"vat_rate"`
	Lines       []entity.InvoiceLine `json:"lines"`
	Totals      pricing.Totals       `json:"totals"`
}

// Snapshot returns the API view of the session.
func (s *InvoiceSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:          s.ID,
		State:       s.state,
		InvoiceID:   s.invoiceID,
		InvoiceNo:   s.invoiceNo,
		CustomerID:  s.CustomerID,
		InvoiceDate: s.InvoiceDate,
		VATEnabled:  s.VATEnabled,
		VATRate:     s.VATRate,
		Lines:       append([]entity.InvoiceLine(nil), s.lines...),
		Totals:      s.totals,
	}
}

func (s *InvoiceSession) leaveCheckoutLocked() {
	s.state = s.originState
	s.plan = nil
	s.pendingApproval = nil
	s.commitInFlight = false
}

func (s *InvoiceSession) lineIndex(lineID uuid.UUID) int {
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func (s *InvoiceSession) removeLineLocked(lineID uuid.UUID) {
	idx := s.lineIndex(lineID)
	if idx < 0 {
		return
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
}

// recompute folds the lines and discount into totals under the session's
// frozen VAT flag. Aggregation is idempotent, so an unchanged result is
// skipped rather than reassigned.
func (s *InvoiceSession) recompute() {
	amounts := make([]pricing.LineAmounts, 0, len(s.lines))
	for _, l := range s.lines {
		amounts = append(amounts, pricing.LineAmounts{Total: l.LineTotal, TaxAmount: l.TaxAmount})
	}
	next := pricing.Aggregate(amounts, s.discount, s.VATEnabled)
	if next != s.totals {
		s.totals = next
	}
}
