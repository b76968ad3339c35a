package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

// Migrate creates or updates the tables of every persisted model
func Migrate(db *gorm.DB) error {
	log.Info("Running database migrations")
	if err := db.AutoMigrate(
		&models.User{},
		&models.Offer{},
		&models.OAuthClient{},
		&models.OAuthToken{},
	); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	return nil
}
