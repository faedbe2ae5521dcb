package database

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"              // SQLite driver

	"fastfood/internal/models"
)

var DB *gorm.DB

// InitDB opens the database connection and stores it as the process-wide handle
func InitDB(driver, dsn string) (*gorm.DB, error) {
	db, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	DB = db
	return db, nil
}

// Open opens a database connection and configures the pool
func Open(driver, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite3" {
		// one connection: in-memory databases are per-connection and SQLite
		// allows a single writer anyway
		db.DB().SetMaxOpenConns(1)
	} else {
		db.DB().SetMaxIdleConns(10)
		db.DB().SetMaxOpenConns(100)
	}
	db.DB().SetConnMaxLifetime(time.Hour)

	return db, nil
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// Migrate creates or updates every table the service needs
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Branch{},
		&models.BrandConfig{},
		&models.Category{},
		&models.MenuItem{},
		&models.MenuItemSize{},
		&models.AddOn{},
		&models.Combo{},
		&models.ComboItem{},
		&models.Voucher{},
		&models.Order{},
		&models.OrderItem{},
		&models.StockItem{},
		&models.MenuItemIngredient{},
		&models.StockTransaction{},
		&models.StockWarning{},
		&models.License{},
		&models.SystemActivation{},
	).Error
}

// Seed ensures essential data exists in an empty database
func Seed(db *gorm.DB) error {
	var branchCount int
	if err := db.Model(&models.Branch{}).Count(&branchCount).Error; err != nil {
		return fmt.Errorf("failed to count branches: %w", err)
	}
	if branchCount == 0 {
		branch := models.Branch{
			NameEn:   "Main Branch",
			NameUr:   "مین برانچ",
			IsActive: true,
		}
		if err := db.Create(&branch).Error; err != nil {
			return fmt.Errorf("failed to create default branch: %w", err)
		}
	}
	return nil
}

// ForUpdate adds a row lock to the next query where the dialect supports it.
// SQLite serializes writers at the database level so it needs none.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialect().GetName() == "postgres" {
		return tx.Set("gorm:query_option", "FOR UPDATE")
	}
	return tx
}
