// Package dbtest provides an in-memory database and catalog fixtures for tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"fastfood/internal/database"
	"fastfood/internal/models"
)

// Epoch is the fixed "now" used across tests
var Epoch = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// New opens a migrated in-memory SQLite database closed at test cleanup
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// Dec parses a decimal literal
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Branch inserts an active branch
func Branch(t testing.TB, db *gorm.DB) models.Branch {
	t.Helper()
	b := models.Branch{NameEn: "Main Branch", IsActive: true}
	require.NoError(t, db.Create(&b).Error)
	return b
}

// MenuItem inserts an available menu item at the given base price
func MenuItem(t testing.TB, db *gorm.DB, name, price string) models.MenuItem {
	t.Helper()
	mi := models.MenuItem{NameEn: name, NameUr: name + " (ur)", BasePrice: Dec(price), IsAvailable: true}
	require.NoError(t, db.Create(&mi).Error)
	return mi
}

// Size adds a size variant to a menu item
func Size(t testing.TB, db *gorm.DB, menuItemID uint, code, modifier string) models.MenuItemSize {
	t.Helper()
	s := models.MenuItemSize{MenuItemID: menuItemID, SizeCode: code, NameEn: code, PriceModifier: Dec(modifier)}
	require.NoError(t, db.Create(&s).Error)
	return s
}

// Combo inserts an active combo at the given fixed price
func Combo(t testing.TB, db *gorm.DB, name, price string) models.Combo {
	t.Helper()
	c := models.Combo{NameEn: name, NameUr: name + " (ur)", ComboPrice: Dec(price), IsActive: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// StockItem inserts an active stock item
func StockItem(t testing.TB, db *gorm.DB, name, qty, threshold string) models.StockItem {
	t.Helper()
	s := models.StockItem{NameEn: name, Unit: "piece", CurrentQuantity: Dec(qty), MinThreshold: Dec(threshold), IsActive: true}
	require.NoError(t, db.Create(&s).Error)
	return s
}

// Ingredient links a stock item to a menu item
func Ingredient(t testing.TB, db *gorm.DB, menuItemID, stockItemID uint, required string) models.MenuItemIngredient {
	t.Helper()
	ing := models.MenuItemIngredient{MenuItemID: menuItemID, StockItemID: stockItemID, QuantityRequired: Dec(required)}
	require.NoError(t, db.Create(&ing).Error)
	return ing
}

// Voucher inserts an active voucher valid for a day around Epoch
func Voucher(t testing.TB, db *gorm.DB, code string, kind models.DiscountType, value string) models.Voucher {
	t.Helper()
	v := models.Voucher{
		Code:          code,
		DiscountType:  kind,
		DiscountValue: Dec(value),
		ValidFrom:     Epoch.Add(-24 * time.Hour),
		ValidUntil:    Epoch.Add(24 * time.Hour),
		IsActive:      true,
	}
	require.NoError(t, db.Create(&v).Error)
	return v
}

// Reload reads the stock item back from the database
func Reload(t testing.TB, db *gorm.DB, item *models.StockItem) {
	t.Helper()
	require.NoError(t, db.First(item, item.ID).Error)
}
