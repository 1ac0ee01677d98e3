package sql

import (
	"context"
	"errors"
	"fmt"
	"modelstudio/internal/entity/db"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetSettingValue reads a global setting; an absent key falls back to its
// compile-time default. Unknown keys without a default read as empty.
func (r *GormRepository) GetSettingValue(ctx context.Context, key string) (string, error) {
	if r == nil || r.db == nil {
		return "", fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", fmt.Errorf("setting key is empty")
	}

	var setting db.Setting
	err := r.db.WithContext(ctx).First(&setting, "key = ?", trimmed).Error
	if err == nil {
		return setting.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fallback, _ := db.SettingDefault(trimmed)
		return fallback, nil
	}
	return "", err
}

// SetSetting writes a single key/value row, last write wins.
func (r *GormRepository) SetSetting(ctx context.Context, key, value string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return fmt.Errorf("setting key is empty")
	}

	setting := db.Setting{Key: trimmed, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
}

// ListSettings returns all persisted settings rows.
func (r *GormRepository) ListSettings(ctx context.Context) ([]db.Setting, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	var settings []db.Setting
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
