package repository

import (
	"context"
	"errors"

	"github.com/sangkips/registerd/internal/domain/entity"
	domainRepo "github.com/sangkips/registerd/internal/domain/repository"
	"gorm.io/gorm"
)

type settingsRepository struct {
	db *gorm.DB

	// defaults seed the row on first access
	defaults entity.FinancialSettings
}

// NewSettingsRepository creates a new settings repository. The defaults are
// written as the single settings row the first time it is read.
func NewSettingsRepository(db *gorm.DB, defaults entity.FinancialSettings) domainRepo.SettingsRepository {
	return &settingsRepository{db: db, defaults: defaults}
}

// Get reads the company settings row, creating it from the defaults when the
// table is empty.
func (r *settingsRepository) Get(ctx context.Context) (*entity.FinancialSettings, error) {
	var settings entity.FinancialSettings
	err := r.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = r.defaults
		if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
