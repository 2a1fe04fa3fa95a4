package database

import (
	"fmt"

	"loanrisk-backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the Postgres connection and binds the package-level stores to
// their GORM implementations.
func Connect(dsn string) error {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	DB = db
	Users = &gormUserStore{db: db}
	Analyses = &gormAnalysisStore{db: db}
	Idempotency = &gormIdempotencyStore{db: db}
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(&models.User{}, &models.Analysis{}, &models.IdempotencyKey{})
}
