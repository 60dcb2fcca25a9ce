package config

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"law-reports-backend/internal/models"
)

// InitDB opens the Postgres database backing the sheet store and migrates the sheet_rows table.
func InitDB(cfg StoreConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&models.SheetRow{}); err != nil {
		return nil, fmt.Errorf("migrate sheet_rows: %w", err)
	}
	return db, nil
}
