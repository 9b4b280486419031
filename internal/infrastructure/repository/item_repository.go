package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/registerd/internal/domain/entity"
	domainRepo "github.com/sangkips/registerd/internal/domain/repository"
	"gorm.io/gorm"
)

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) domainRepo.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

// GetByIDs retrieves multiple items by their IDs in a single query (prevents N+1)
func (r *itemRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Item, error) {
	if len(ids) == 0 {
		return []entity.Item{}, nil
	}
	var items []entity.Item
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	return items, err
}

func (r *itemRepository) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).First(&item, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *itemRepository) GetByBarcode(ctx context.Context, barcode string) (*entity.Item, error) {
	var item entity.Item
	err := r.db.WithContext(ctx).First(&item, "barcode = ?", barcode).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *itemRepository) Search(ctx context.Context, query string, limit int) ([]entity.Item, error) {
	var items []entity.Item
	err := r.db.WithContext(ctx).
		Where("name ILIKE ? OR code ILIKE ?", "%"+query+"%", "%"+query+"%").
		Order("name ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// CostHistoryFor retrieves purchase-price history for multiple items in a
// single query, grouped by item, most recent first.
func (r *itemRepository) CostHistoryFor(ctx context.Context, itemIDs []uuid.UUID, onOrBefore time.Time) (map[uuid.UUID][]entity.ItemCost, error) {
	out := make(map[uuid.UUID][]entity.ItemCost, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	var costs []entity.ItemCost
	err := r.db.WithContext(ctx).
		Where("item_id IN ? AND purchased_at <= ?", itemIDs, onOrBefore).
		Order("purchased_at DESC").
		Find(&costs).Error
	if err != nil {
		return nil, err
	}

	for _, c := range costs {
		out[c.ItemID] = append(out[c.ItemID], c)
	}
	return out, nil
}
