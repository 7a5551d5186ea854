package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mindfulpath/practicesite/internal/models"
)

// ListConfigEntries returns every stored config entry ordered by key.
func ListConfigEntries(ctx context.Context, db *gorm.DB) ([]models.ConfigEntry, error) {
	if db == nil {
		return nil, fmt.Errorf("config entries: db is nil")
	}

	var entries []models.ConfigEntry
	if err := db.WithContext(ctx).Order("config_key ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("config entries: list: %w", err)
	}
	return entries, nil
}

// GetConfigEntry retrieves a config entry by key. Returns nil when not found.
func GetConfigEntry(ctx context.Context, db *gorm.DB, key string) (*models.ConfigEntry, error) {
	if db == nil {
		return nil, fmt.Errorf("config entries: db is nil")
	}

	var entry models.ConfigEntry
	err := db.WithContext(ctx).Take(&entry, "config_key = ?", key).Error
	if err == nil {
		return &entry, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return nil, nil
	}
	return nil, fmt.Errorf("config entries: get %q: %w", key, err)
}

// UpsertConfigEntry stores or replaces the value under key and returns the stored row.
func UpsertConfigEntry(ctx context.Context, db *gorm.DB, key string, value []byte) (*models.ConfigEntry, error) {
	if db == nil {
		return nil, fmt.Errorf("config entries: db is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("config entries: key is required")
	}

	entry := models.ConfigEntry{Key: key, Value: datatypes.JSON(value)}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "config_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("config entries: upsert %q: %w", key, err)
	}

	stored, err := GetConfigEntry(ctx, db, key)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return &entry, nil
	}
	return stored, nil
}

// DeleteConfigEntry removes key. It reports whether a row was deleted.
func DeleteConfigEntry(ctx context.Context, db *gorm.DB, key string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("config entries: db is nil")
	}

	result := db.WithContext(ctx).Where("config_key = ?", key).Delete(&models.ConfigEntry{})
	if result.Error != nil {
		return false, fmt.Errorf("config entries: delete %q: %w", key, result.Error)
	}
	return result.RowsAffected > 0, nil
}
