package database

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"stockroom/internal/config"
)

func Connect(c *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(c.DatabaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Debug("GORM connected to database")

	return db, nil
}

// Migrate creates or extends the users and products tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Product{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
