package cache

import (
	"context"
	"time"

	"github.com/sangkips/registerd/internal/domain/entity"
)

// SettingsCache is a read-through cache for the company financial settings.
// Settings are read-only reference data shared by every register, refreshed
// independently of any invoice session.
type SettingsCache interface {
	Get(ctx context.Context, key string) (*entity.FinancialSettings, bool, error)
	Set(ctx context.Context, key string, value *entity.FinancialSettings, ttl time.Duration) error
}

type NoopSettingsCache struct{}

func (NoopSettingsCache) Get(_ context.Context, _ string) (*entity.FinancialSettings, bool, error) {
	return nil, false, nil
}

func (NoopSettingsCache) Set(_ context.Context, _ string, _ *entity.FinancialSettings, _ time.Duration) error {
	return nil
}
