package repository

import (
	"context"

	"github.com/sangkips/registerd/internal/domain/entity"
)

// SettingsRepository reads the company financial settings row, creating the
// default row on first access.
type SettingsRepository interface {
	Get(ctx context.Context) (*entity.FinancialSettings, error)
}
