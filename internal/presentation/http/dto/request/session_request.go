package request

import (
	"github.com/google/uuid"

	"github.com/sangkips/registerd/internal/domain/enum"
)

// OpenSessionRequest opens a new tab: blank, or loading a stored invoice.
type OpenSessionRequest struct {
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
}

// UpsertLineRequest creates or edits an invoice line. The item may be
// referenced by id, barcode or code; a zero quantity removes the line.
type UpsertLineRequest struct {
	ItemID       *uuid.UUID `json:"item_id,omitempty"`
	ItemCode     string     `json:"item_code,omitempty"`
	Barcode      string     `json:"barcode,omitempty"`
	Quantity     float64    `json:"quantity"`
	UnitPrice    *float64   `json:"unit_price,omitempty"`
	TaxInclusive *bool      `json:"tax_inclusive,omitempty"`
}

// SetDiscountRequest updates the invoice-level discount.
type SetDiscountRequest struct {
	Discount float64 `json:"discount"`
}

// SetCustomerRequest attaches a customer to the draft; null detaches.
type SetCustomerRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
}

// CheckoutRequest carries the payment plan chosen at checkout.
type CheckoutRequest struct {
	Mode       enum.PaymentMode `json:"mode"`
	Split      bool             `json:"split"`
	CashAmount *float64         `json:"cash_amount,omitempty"`
	CardAmount *float64         `json:"card_amount,omitempty"`
}
