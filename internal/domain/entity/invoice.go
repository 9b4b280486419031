package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/registerd/internal/domain/enum"
)

// Invoice represents a committed sales invoice
type Invoice struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNo   string           `gorm:"size:100;unique;not null" json:"invoice_no"`
	CustomerID  *uuid.UUID       `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	InvoiceDate time.Time        `gorm:"type:date;not null" json:"invoice_date"`
	VATEnabled  bool             `gorm:"default:true" json:"vat_enabled"` // frozen at commit; reloads never re-derive it from live settings
	VATRate     float64          `gorm:"default:0" json:"vat_rate"`
	Subtotal    float64          `gorm:"default:0" json:"-"`
	Tax         float64          `gorm:"default:0" json:"-"`
	Discount    float64          `gorm:"default:0" json:"-"`
	Net         float64          `gorm:"default:0" json:"-"`
	PaymentMode enum.PaymentMode `gorm:"default:0" json:"payment_mode"`
	Split       bool             `gorm:"default:false" json:"split"`
	CashSafeID  *uuid.UUID       `gorm:"type:uuid" json:"cash_safe_id,omitempty"`
	BankAccount *uuid.UUID       `gorm:"type:uuid;column:bank_account_id" json:"bank_account_id,omitempty"`
	CashAmount  float64          `gorm:"default:0" json:"-"`
	CardAmount  float64          `gorm:"default:0" json:"-"`
	QRPayload   string           `gorm:"type:text" json:"qr_payload"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Customer *Customer     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Lines    []InvoiceLine `gorm:"foreignKey:InvoiceID" json:"lines,omitempty"`
}

// MarshalJSON rounds monetary fields to two decimals for API responses.
// Stored values stay unrounded.
func (i Invoice) MarshalJSON() ([]byte, error) {
	type Alias Invoice
	return json.Marshal(&struct {
		Alias
		Subtotal   float64 `json:"subtotal"`
		Tax        float64 `json:"tax"`
		Discount   float64 `json:"discount"`
		Net        float64 `json:"net"`
		CashAmount float64 `json:"cash_amount"`
		CardAmount float64 `json:"card_amount"`
	}{
		Alias:      Alias(i),
		Subtotal:   round2(i.Subtotal),
		Tax:        round2(i.Tax),
		Discount:   round2(i.Discount),
		Net:        round2(i.Net),
		CashAmount: round2(i.CashAmount),
		CardAmount: round2(i.CardAmount),
	})
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceLine represents a line item on a committed invoice. TaxAmount and
// LineTotal are derived values; TaxInclusive is the policy snapshot frozen
// when the line was created.
type InvoiceLine struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"invoice_id"`
	ItemID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"item_id"`
	ItemName     string         `gorm:"size:255;not null" json:"item_name"`
	UnitLabel    string         `gorm:"size:50" json:"unit_label"`
	Quantity     float64        `gorm:"not null" json:"quantity"` // negative only on return lines
	UnitPrice    float64        `gorm:"not null" json:"unit_price"`
	TaxInclusive bool           `gorm:"default:false" json:"tax_inclusive"`
	TaxAmount    float64        `gorm:"not null" json:"-"`
	LineTotal    float64        `gorm:"not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Invoice Invoice `gorm:"foreignKey:InvoiceID" json:"-"`
	Item    Item    `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// MarshalJSON rounds derived monetary fields to two decimals for API responses
func (l InvoiceLine) MarshalJSON() ([]byte, error) {
	type Alias InvoiceLine
	return json.Marshal(&struct {
		Alias
		TaxAmount float64 `json:"tax_amount"`
		LineTotal float64 `json:"line_total"`
	}{
		Alias:     Alias(l),
		TaxAmount: round2(l.TaxAmount),
		LineTotal: round2(l.LineTotal),
	})
}

// BeforeCreate generates a UUID before creating a new invoice line
func (l *InvoiceLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceLine model
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}
