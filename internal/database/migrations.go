package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/codyseavey/card-grader/internal/models"
)

// legacyKeys maps key names written by older clients to the current ones.
var legacyKeys = map[string]string{
	"collection": "@card_collection",
	"settings":   "@app_settings",
}

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	return migrateLegacyKeys(db)
}

// migrateLegacyKeys renames rows stored under old key names. A row already
// present under the new name wins and the legacy row is dropped.
// Safe to run multiple times.
func migrateLegacyKeys(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for oldKey, newKey := range legacyKeys {
			var legacy models.KVRecord
			result := tx.Where("key = ?", oldKey).Limit(1).Find(&legacy)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				continue
			}

			var count int64
			if err := tx.Model(&models.KVRecord{}).Where("key = ?", newKey).Count(&count).Error; err != nil {
				return err
			}

			if count == 0 {
				if err := tx.Create(&models.KVRecord{Key: newKey, Value: legacy.Value}).Error; err != nil {
					return err
				}
				log.Printf("Migrated legacy key %q -> %q", oldKey, newKey)
			} else {
				log.Printf("Dropping legacy key %q: %q already present", oldKey, newKey)
			}

			if err := tx.Where("key = ?", oldKey).Delete(&models.KVRecord{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
