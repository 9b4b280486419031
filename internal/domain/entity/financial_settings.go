package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/registerd/internal/domain/enum"
)

// FinancialSettings holds the company-level tax and guard configuration
// consulted by the invoice engine. A single row is read through the settings
// collaborator; the engine never mutates it.
type FinancialSettings struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	SellerName            string            `gorm:"size:255;not null" json:"seller_name"`
	VATNumber             string            `gorm:"size:50;not null" json:"vat_number"`
	VATEnabled            bool              `gorm:"default:true" json:"vat_enabled"`
	VATRatePercent        float64           `gorm:"default:15" json:"vat_rate_percent"`
	DefaultTaxPolicy      enum.TaxPolicy    `gorm:"default:0" json:"default_tax_policy"`
	CreditLimitPolicy     enum.CreditPolicy `gorm:"default:0" json:"credit_limit_policy"`
	AllowNegativeStock    bool              `gorm:"default:false" json:"allow_negative_stock"`
	AllowSellingBelowCost bool              `gorm:"default:false" json:"allow_selling_below_cost"`
	CashSafeID            *uuid.UUID        `gorm:"type:uuid" json:"cash_safe_id,omitempty"`    // nil: no safe configured for the branch
	BankAccountID         *uuid.UUID        `gorm:"type:uuid" json:"bank_account_id,omitempty"` // nil: no bank target configured
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a settings row
func (s *FinancialSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the FinancialSettings model
func (FinancialSettings) TableName() string {
	return "financial_settings"
}
