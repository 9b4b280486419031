package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/registerd/internal/domain/enum"
)

// Item represents a sellable item in the catalog
type Item struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Code          string          `gorm:"size:100;unique;not null" json:"code"`
	Barcode       *string         `gorm:"size:100;index" json:"barcode,omitempty"`
	UnitLabel     string          `gorm:"size:50" json:"unit_label"`
	Stocked       bool            `gorm:"default:true" json:"stocked"` // false for services: no stock check applies
	Stock         float64         `gorm:"default:0" json:"stock"`
	UnitPrice     float64         `gorm:"default:0" json:"unit_price"`
	PurchasePrice float64         `gorm:"default:0" json:"purchase_price"` // cost fallback when no purchase history exists
	TaxPolicy     *enum.TaxPolicy `gorm:"type:smallint" json:"tax_policy,omitempty"` // nil means the company default applies
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	CostHistory []ItemCost `gorm:"foreignKey:ItemID" json:"cost_history,omitempty"`
}

// BeforeCreate generates a UUID before creating a new item
func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Item model
func (Item) TableName() string {
	return "items"
}

// EffectiveTaxPolicy resolves the item's tax policy against the company
// default. A line snapshots the result at creation and never re-derives it.
func (i *Item) EffectiveTaxPolicy(companyDefault enum.TaxPolicy) enum.TaxPolicy {
	if i.TaxPolicy != nil {
		return *i.TaxPolicy
	}
	return companyDefault
}

// ItemCost records the purchase price of an item at a point in time. The
// sell-below-cost guard resolves an item's cost as the most recent entry at
// or before the invoice date, falling back to Item.PurchasePrice when no
// history precedes it.
type ItemCost struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ItemID      uuid.UUID `gorm:"type:uuid;not null;index" json:"item_id"`
	Price       float64   `gorm:"not null" json:"price"`
	PurchasedAt time.Time `gorm:"not null;index" json:"purchased_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new cost record
func (c *ItemCost) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ItemCost model
func (ItemCost) TableName() string {
	return "item_costs"
}
