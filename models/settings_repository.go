package models

import (
	"errors"

	"gorm.io/gorm"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{
		db: db,
	}
}

// Get returns the singleton settings row, or nil when none has been
// saved yet.
func (r *SettingsRepository) Get() (*Settings, error) {
	var settings Settings
	if err := r.db.Order("id ASC").First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// Save upserts the singleton row: update when one exists, insert
// otherwise.
func (r *SettingsRepository) Save(settings *Settings) error {
	existing, err := r.Get()
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(settings).Error
	}
	return r.db.Model(&Settings{}).Where("id = ?", existing.ID).Updates(map[string]any{
		"net32_username":   settings.Net32Username,
		"net32_password":   settings.Net32Password,
		"max_price_breaks": settings.MaxPriceBreaks,
	}).Error
}
