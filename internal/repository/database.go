package repository

import (
	"fmt"

	"github.com/mkraemer/weekmaster/internal/config"
	"github.com/mkraemer/weekmaster/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase creates a new database connection and migrates the schema.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.Database.Host,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.Port,
		cfg.Database.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	return db, nil
}

// Migrate registers the explicit join table and runs auto migration.
// Split out of NewDatabase so the test harness can run it against sqlite.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Task{}, "Tags", &models.TaskTag{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&models.User{},
		&models.Priority{},
		&models.Status{},
		&models.Tag{},
		&models.Task{},
		&models.Deadline{},
	)
}

// Reset drops every table in dependency order and recreates the schema.
// Backs the initdb command; all data is lost.
func Reset(db *gorm.DB) error {
	tables := []interface{}{
		&models.TaskTag{},
		&models.Deadline{},
		&models.Task{},
		&models.Tag{},
		&models.Status{},
		&models.Priority{},
		&models.User{},
	}
	if err := db.Migrator().DropTable(tables...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return Migrate(db)
}
