package infra

import (
	"fmt"

	"github.com/castaxyz/vetcare-stable/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs AutoMigrate
// to create or update all tables.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return db, nil
}

// RunMigrations applies the schema. Also used by integration tests against a
// throwaway database.
func RunMigrations(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Client{},
		&model.Pet{},
		&model.Appointment{},
		&model.Category{},
		&model.Product{},
		&model.StockLot{},
		&model.StockMovement{},
		&model.Invoice{},
		&model.InvoiceItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}

	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial index for the availability query: only active appointments
		// block a veterinarian's calendar.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_appointments_blocking') THEN
		    CREATE INDEX idx_appointments_blocking
		        ON appointments (veterinarian_id, starts_at)
		        WHERE status IN ('scheduled', 'confirmed', 'in_progress');
		  END IF;
		END $$`,
		// Lots with remaining stock, ordered the way the allocator walks them.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_stock_lots_allocatable') THEN
		    CREATE INDEX idx_stock_lots_allocatable
		        ON stock_lots (product_id, expiration_date ASC NULLS LAST)
		        WHERE current_quantity > 0;
		  END IF;
		END $$`,
		// Pending invoices past due, for the overdue report.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_invoices_pending_due') THEN
		    CREATE INDEX idx_invoices_pending_due
		        ON invoices (due_date)
		        WHERE status = 'pending';
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch: %w", err)
		}
	}
	return nil
}
