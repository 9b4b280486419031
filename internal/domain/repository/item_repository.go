package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/registerd/internal/domain/entity"
)

// ItemRepository defines the read-only item lookup collaborator consumed by
// the invoice engine. Lookups resolve by id, code, barcode or name search.
type ItemRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Item, error)
	// GetByIDs retrieves multiple items in a single query (prevents N+1);
	// used to assemble guard input for all lines at once.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Item, error)
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	GetByBarcode(ctx context.Context, barcode string) (*entity.Item, error)
	Search(ctx context.Context, query string, limit int) ([]entity.Item, error)
	// CostHistoryFor returns purchase-price history rows at or before the
	// given date for each item, most recent first.
	CostHistoryFor(ctx context.Context, itemIDs []uuid.UUID, onOrBefore time.Time) (map[uuid.UUID][]entity.ItemCost, error)
}
