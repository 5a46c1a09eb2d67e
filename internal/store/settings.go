package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// SettingsRepo provides CRUD access to the Setting table.
type SettingsRepo struct {
	db *gorm.DB
}

// NewSettingsRepo creates a SettingsRepo bound to db.
func NewSettingsRepo(db *gorm.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get returns the value for key, and whether it was found.
func (r *SettingsRepo) Get(key string) (string, bool, error) {
	var s Setting
	err := r.db.First(&s, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

// Set upserts a setting's value.
func (r *SettingsRepo) Set(key, value string) error {
	var s Setting
	err := r.db.First(&s, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = Setting{Key: key, Value: value, UpdatedAt: time.Now()}
		return r.db.Create(&s).Error
	}
	if err != nil {
		return err
	}
	s.Value = value
	s.UpdatedAt = time.Now()
	return r.db.Save(&s).Error
}

// Delete removes a setting.
func (r *SettingsRepo) Delete(key string) error {
	return r.db.Delete(&Setting{}, "key = ?", key).Error
}

// GetAll returns every setting.
func (r *SettingsRepo) GetAll() ([]Setting, error) {
	var rows []Setting
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
