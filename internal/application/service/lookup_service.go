package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/registerd/internal/cache"
	"github.com/sangkips/registerd/internal/domain/entity"
	"github.com/sangkips/registerd/internal/domain/repository"
	"github.com/sangkips/registerd/pkg/apperror"
)

const settingsCacheKey = "settings:financial"

// LookupService serves the read-only reference data consumed by the POS
// screens: item lookup by code, barcode or name search, customer credit
// state, and the company financial settings (cached).
type LookupService struct {
	itemRepo     repository.ItemRepository
	customerRepo repository.CustomerRepository
	settingsRepo repository.SettingsRepository
	settings     cache.SettingsCache
	settingsTTL  time.Duration
}

// NewLookupService creates a new lookup service
func NewLookupService(
	itemRepo repository.ItemRepository,
	customerRepo repository.CustomerRepository,
	settingsRepo repository.SettingsRepository,
	settingsCache cache.SettingsCache,
	settingsTTL time.Duration,
) *LookupService {
	if settingsTTL <= 0 {
		settingsTTL = time.Minute
	}
	return &LookupService{
		itemRepo:     itemRepo,
		customerRepo: customerRepo,
		settingsRepo: settingsRepo,
		settings:     settingsCache,
		settingsTTL:  settingsTTL,
	}
}

// LookupItem resolves an item by code, barcode, or name search (in that
// precedence). Search returns at most limit matches.
func (s *LookupService) LookupItem(ctx context.Context, code, barcode, query string, limit int) ([]entity.Item, error) {
	switch {
	case code != "":
		item, err := s.itemRepo.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, apperror.NewNotFoundError("Item")
		}
		return []entity.Item{*item}, nil
	case barcode != "":
		item, err := s.itemRepo.GetByBarcode(ctx, barcode)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, apperror.NewNotFoundError("Item")
		}
		return []entity.Item{*item}, nil
	case query != "":
		if limit <= 0 {
			limit = 10
		}
		return s.itemRepo.Search(ctx, query, limit)
	default:
		return nil, apperror.NewBadRequestError("Provide a code, barcode or search query")
	}
}

// CustomerCredit returns a customer's balance and limit.
func (s *LookupService) CustomerCredit(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

// FinancialSettings returns the company settings, read through the cache.
// A cache failure falls back to the repository; staleness is bounded by the
// TTL.
func (s *LookupService) FinancialSettings(ctx context.Context) (*entity.FinancialSettings, error) {
	cached, ok, err := s.settings.Get(ctx, settingsCacheKey)
	if err != nil {
		log.Printf("settings cache read failed, falling back to store: %v", err)
	}
	if ok {
		return cached, nil
	}

	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.settings.Set(ctx, settingsCacheKey, settings, s.settingsTTL); err != nil {
		log.Printf("settings cache write failed: %v", err)
	}
	return settings, nil
}
