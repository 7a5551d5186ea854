package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConfigEntry is one named section of site content stored as JSON.
type ConfigEntry struct {
	Key       string         `gorm:"column:config_key;primaryKey;size:120" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
