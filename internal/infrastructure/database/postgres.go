package database

import (
	"fmt"
	"log"
	"time"

	"github.com/sangkips/registerd/internal/config"
	"github.com/sangkips/registerd/internal/domain/entity"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Info

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // disables implicit prepared statement usage
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL DB to set connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	log.Println("Successfully connected to PostgreSQL database")
	return db, nil
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		// Catalog entities
		&entity.Item{},
		&entity.ItemCost{},

		// Credit accounts
		&entity.Customer{},

		// Invoice entities
		&entity.Invoice{},
		&entity.InvoiceLine{},

		// System entities
		&entity.FinancialSettings{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDemoData seeds a small demo catalog and one credit customer when
// SEED_DEMO_DATA is set. Existing rows are left untouched.
func SeedDemoData(db *gorm.DB) error {
	if !viper.GetBool("SEED_DEMO_DATA") {
		return nil
	}

	log.Println("Seeding demo data...")

	barcode := "6281000112233"
	items := []entity.Item{
		{Name: "Sugar 1kg", Code: "SUG-001", Barcode: &barcode, UnitLabel: "pcs", Stocked: true, Stock: 100, UnitPrice: 10, PurchasePrice: 7},
		{Name: "Flour 2kg", Code: "FLR-002", UnitLabel: "pcs", Stocked: true, Stock: 50, UnitPrice: 18, PurchasePrice: 13},
		{Name: "Delivery", Code: "SVC-001", UnitLabel: "svc", Stocked: false, UnitPrice: 15},
	}

	for i := range items {
		var existing entity.Item
		if err := db.Where("code = ?", items[i].Code).First(&existing).Error; err != nil {
			if err := db.Create(&items[i]).Error; err != nil {
				log.Printf("Warning: failed to create item %s: %v", items[i].Code, err)
				continue
			}
			cost := entity.ItemCost{
				ItemID:      items[i].ID,
				Price:       items[i].PurchasePrice,
				PurchasedAt: time.Now().AddDate(0, -1, 0),
			}
			if err := db.Create(&cost).Error; err != nil {
				log.Printf("Warning: failed to create cost history for %s: %v", items[i].Code, err)
			}
		}
	}

	var existing entity.Customer
	if err := db.Where("name = ?", "Walk-in Trading Est").First(&existing).Error; err != nil {
		customer := entity.Customer{
			Name:        "Walk-in Trading Est",
			CreditLimit: 1000,
		}
		if err := db.Create(&customer).Error; err != nil {
			log.Printf("Warning: failed to create demo customer: %v", err)
		}
	}

	log.Println("Demo data seeding completed")
	return nil
}
