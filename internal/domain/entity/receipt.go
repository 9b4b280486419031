package entity

// ReceiptLine is a single line on a finalized receipt.
type ReceiptLine struct {
	ItemName  string  `json:"item_name"`
	UnitLabel string  `json:"unit_label,omitempty"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	TaxAmount float64 `json:"tax_amount"`
	LineTotal float64 `json:"line_total"`
}

// ReceiptTotals carries the invoice-level figures rounded for display.
type ReceiptTotals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Net      float64 `json:"net"`
}

// ReceiptPayment describes how the net amount was settled.
type ReceiptPayment struct {
	Mode       string  `json:"mode"`
	Split      bool    `json:"split"`
	CashAmount float64 `json:"cash_amount,omitempty"`
	CardAmount float64 `json:"card_amount,omitempty"`
}

// FinalizedInvoice is a value object handed to the receipt renderer after a
// successful commit. It is NOT a database entity — it is composed once from
// the saved invoice and the ZATCA payload, and never mutated afterward.
type FinalizedInvoice struct {
	InvoiceID   string         `json:"invoice_id"`
	InvoiceNo   string         `json:"invoice_no"`
	Date        string         `json:"date"`
	Customer    string         `json:"customer,omitempty"`
	Lines       []ReceiptLine  `json:"lines"`
	Totals      ReceiptTotals  `json:"totals"`
	Payment     ReceiptPayment `json:"payment"`
	ZatcaBase64 string         `json:"zatca_base64"`
}

// NewFinalizedInvoice builds the receipt summary from a saved invoice.
// Monetary figures are rounded to two decimals here, at the presentation
// edge.
func NewFinalizedInvoice(inv *Invoice, customerName, zatcaPayload string) *FinalizedInvoice {
	lines := make([]ReceiptLine, 0, len(inv.Lines))
	for _, l := range inv.Lines {
		lines = append(lines, ReceiptLine{
			ItemName:  l.ItemName,
			UnitLabel: l.UnitLabel,
			Quantity:  l.Quantity,
			UnitPrice: round2(l.UnitPrice),
			TaxAmount: round2(l.TaxAmount),
			LineTotal: round2(l.LineTotal),
		})
	}

	return &FinalizedInvoice{
		InvoiceID: inv.ID.String(),
		InvoiceNo: inv.InvoiceNo,
		Date:      inv.InvoiceDate.Format("2006-01-02"),
		Customer:  customerName,
		Lines:     lines,
		Totals: ReceiptTotals{
			Subtotal: round2(inv.Subtotal),
			Tax:      round2(inv.Tax),
			Discount: round2(inv.Discount),
			Net:      round2(inv.Net),
		},
		Payment: ReceiptPayment{
			Mode:       inv.PaymentMode.String(),
			Split:      inv.Split,
			CashAmount: round2(inv.CashAmount),
			CardAmount: round2(inv.CardAmount),
		},
		ZatcaBase64: zatcaPayload,
	}
}
