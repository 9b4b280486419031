package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents a customer with a running credit account
type Customer struct {
	ID             uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Phone          *string        `gorm:"size:50" json:"phone,omitempty"`
	VATNumber      *string        `gorm:"size:50" json:"vat_number,omitempty"`
	CurrentBalance float64        `gorm:"default:0" json:"current_balance"`
	CreditLimit    float64        `gorm:"default:0" json:"credit_limit"` // 0 disables the credit-limit check
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new customer
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}
