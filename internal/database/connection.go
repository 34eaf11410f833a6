// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/erp-backend/internal/config"
	"github.com/javajoker/erp-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Product{},
		&models.Supplier{},
		&models.Customer{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.StockLevel{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Purchase indexes
		"CREATE INDEX IF NOT EXISTS idx_purchases_supplier ON purchases(supplier_id)",
		"CREATE INDEX IF NOT EXISTS idx_purchases_arrived ON purchases(arrived, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_items_purchase ON purchase_items(purchase_id)",
		"CREATE INDEX IF NOT EXISTS idx_purchase_items_product ON purchase_items(product_id)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_delivered ON orders(delivered, ordered_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",

		// One line item per product within a transaction
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_purchase_items_unique_product ON purchase_items(purchase_id, product_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_order_items_unique_product ON order_items(order_id, product_id)",

		// Stock quantity floor
		"ALTER TABLE stock_levels ADD CONSTRAINT chk_stock_levels_quantity CHECK (quantity >= 0)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	var productCount int64
	db.Model(&models.Product{}).Count(&productCount)
	if productCount > 0 {
		log.Println("Initial data already present, skipping seed")
		return nil
	}

	products := []models.Product{
		{
			Name:          "Arabica Beans",
			UnitLabel:     "kg",
			PurchasePrice: decimal.NewFromFloat(8.50),
			SalePrice:     decimal.NewFromFloat(14.90),
			Tags:          []string{"coffee", "raw"},
		},
		{
			Name:          "Paper Cups 250ml",
			UnitLabel:     "pcs",
			PurchasePrice: decimal.NewFromFloat(0.04),
			SalePrice:     decimal.NewFromFloat(0.10),
			Tags:          []string{"packaging"},
		},
		{
			Name:          "Whole Milk",
			UnitLabel:     "l",
			PurchasePrice: decimal.NewFromFloat(0.90),
			SalePrice:     decimal.NewFromFloat(1.60),
			Tags:          []string{"dairy"},
		},
	}
	if err := db.Create(&products).Error; err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	supplier := models.Supplier{
		Name:          "Highland Roasters Ltd",
		ContactPerson: "M. Keller",
		Email:         "orders@highland-roasters.example",
	}
	if err := db.Create(&supplier).Error; err != nil {
		return fmt.Errorf("failed to seed supplier: %w", err)
	}

	customer := models.Customer{
		Name:  "Corner Cafe GmbH",
		Email: "purchasing@corner-cafe.example",
	}
	if err := db.Create(&customer).Error; err != nil {
		return fmt.Errorf("failed to seed customer: %w", err)
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
