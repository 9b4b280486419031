package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sangkips/registerd/internal/domain/entity"
)

// InvoiceRepository is the invoice persistence collaborator. Create and
// Update are idempotent from the caller's perspective: the engine never
// retries silently, a failed call surfaces to the user for manual retry.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	Update(ctx context.Context, invoice *entity.Invoice) error
	GetWithLines(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
