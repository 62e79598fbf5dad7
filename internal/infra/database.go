package infra

import (
	"fmt"

	"stocksync/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for all entities, then applies the idempotent SQL patches GORM cannot
// express (the sale number sequence and the non-negative stock guard).
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
		return nil, err
	}

	return db, nil
}

// RunMigrations creates/updates the schema. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Sale{},
		&model.StockMovement{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot handle.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Sale numbers come from a dedicated sequence. The SALE-NNNNNN
		// format is a presentation derivation of this value; uniqueness
		// lives here, not in a row count.
		{"sales_number_seq",
			`CREATE SEQUENCE IF NOT EXISTS sales_number_seq START 1`},

		// Belt-and-braces guard behind the service-level stock check: the
		// store rejects any write that would drive stock negative.
		{"non-negative stock constraint", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_products_qty_in_stock') THEN
    ALTER TABLE products ADD CONSTRAINT chk_products_qty_in_stock CHECK (qty_in_stock >= 0);
  END IF;
END $$`},

		// The pending count is recomputed after every transition; a partial
		// index keeps that query cheap.
		{"pending sales partial index", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sales_pending') THEN
    CREATE INDEX idx_sales_pending ON sales (sold_by_id) WHERE status = 'pending';
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
