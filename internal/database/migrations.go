package database

import (
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mindfulpath/practicesite/internal/models"
	"github.com/mindfulpath/practicesite/internal/siteconfig"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ConfigEntry{},
		&models.Testimonial{},
		&models.Article{},
		&models.FAQItem{},
		&models.Photo{},
	)
}

// SeedData stores the default value of every required config section. Existing entries
// are left untouched.
func SeedData(db *gorm.DB) error {
	var errs error
	for _, section := range siteconfig.Seeds() {
		payload, err := siteconfig.Encode(section)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		key := string(section.Key())
		entry := models.ConfigEntry{Key: key, Value: datatypes.JSON(payload)}
		if err := db.Where(models.ConfigEntry{Key: key}).Attrs(entry).FirstOrCreate(&models.ConfigEntry{}).Error; err != nil {
			errs = multierr.Append(errs, fmt.Errorf("seed %s: %w", key, err))
		}
	}
	return errs
}
