package database

import (
	"fmt"

	"erpconsole/internal/config"
	"erpconsole/internal/logger"
	"erpconsole/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Models lists every table managed by AutoMigrate.
var Models = []interface{}{
	&model.User{},
	&model.RefreshToken{},
	&model.Customer{},
	&model.Product{},
	&model.Order{},
	&model.OrderLine{},
	&model.Invoice{},
	&model.InvoiceLine{},
	&model.Payment{},
	&model.PaymentApplication{},
	&model.AuditLog{},
}

// NewConnection opens the configured database and migrates the schema.
func NewConnection(cfg *config.Server) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.PostgresDSN())
	}
	return Open(dialector)
}

// Open connects with an explicit dialector. Tests pass an in-memory SQLite one.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(logger.WithComponent("gorm")),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	log := logger.WithComponent("database")
	log.Debug().Int("tables", len(Models)).Msg("schema migrated")

	return db, nil
}
