package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sangkips/registerd/internal/domain/entity"
)

// CustomerRepository defines the read-only customer collaborator. The guard
// consults the current balance and credit limit immediately before a commit.
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
}
