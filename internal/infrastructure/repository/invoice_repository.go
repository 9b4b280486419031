package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/registerd/internal/domain/entity"
	domainRepo "github.com/sangkips/registerd/internal/domain/repository"
	"gorm.io/gorm"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

// Create persists the invoice and its lines in one transaction.
func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// Update replaces the invoice header and its full line set in one
// transaction. Lines are rewritten rather than diffed: an edit session owns
// the complete set.
func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := invoice.Lines
		invoice.Lines = nil

		if err := tx.Save(invoice).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().
			Delete(&entity.InvoiceLine{}, "invoice_id = ?", invoice.ID).Error; err != nil {
			return err
		}

		for i := range lines {
			lines[i].InvoiceID = invoice.ID
		}
		if len(lines) > 0 {
			if err := tx.Create(&lines).Error; err != nil {
				return err
			}
		}

		invoice.Lines = lines
		return nil
	})
}

func (r *invoiceRepository) GetWithLines(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.db.WithContext(ctx).
		Preload("Lines").Preload("Customer").
		First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &invoice, err
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.InvoiceLine{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Invoice{}, "id = ?", id).Error
	})
}
