package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// StockItem represents a deductible inventory resource
type StockItem struct {
	gorm.Model
	NameEn          string          `gorm:"not null" json:"nameEn"`
	NameUr          string          `json:"nameUr"`
	DescriptionEn   string          `json:"descriptionEn"`
	DescriptionUr   string          `json:"descriptionUr"`
	Unit            string          `json:"unit"`
	CurrentQuantity decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"currentQuantity"`
	MinThreshold    decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"minThreshold"`
	IsActive        bool            `json:"isActive"`
}

// IsLowStock reports whether the item is at or below its threshold
func (s *StockItem) IsLowStock() bool {
	return s.CurrentQuantity.LessThanOrEqual(s.MinThreshold)
}

// MenuItemIngredient records how much of a stock item one unit of a menu item consumes
type MenuItemIngredient struct {
	ID               uint            `gorm:"primary_key" json:"id"`
	MenuItemID       uint            `gorm:"unique_index:idx_menu_item_stock_item;not null" json:"menuItemId"`
	StockItemID      uint            `gorm:"unique_index:idx_menu_item_stock_item;not null" json:"stockItemId"`
	StockItem        StockItem       `gorm:"association_autoupdate:false;association_autocreate:false" json:"stockItem"`
	QuantityRequired decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantityRequired"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// StockTransaction is an append-only ledger row for a stock quantity change
type StockTransaction struct {
	ID               uint                 `gorm:"primary_key" json:"id"`
	StockItemID      uint                 `gorm:"index;not null" json:"stockItemId"`
	TransactionType  StockTransactionType `gorm:"not null" json:"transactionType"`
	Quantity         decimal.Decimal      `gorm:"type:decimal(12,3);not null" json:"quantity"`
	PreviousQuantity decimal.Decimal      `gorm:"type:decimal(12,3);not null" json:"previousQuantity"`
	NewQuantity      decimal.Decimal      `gorm:"type:decimal(12,3);not null" json:"newQuantity"`
	ReferenceType    string               `json:"referenceType"`
	ReferenceID      *uint                `json:"referenceId,omitempty"`
	Notes            string               `json:"notes"`
	CreatedAt        time.Time            `json:"createdAt"`
}

// StockWarning is a low-stock alert awaiting acknowledgement
type StockWarning struct {
	ID                uint            `gorm:"primary_key"`
	StockItemID       uint            `gorm:"index;not null"`
	StockItem         StockItem       `gorm:"association_autoupdate:false;association_autocreate:false"`
	WarningMessageEn  string          `gorm:"type:text"`
	WarningMessageUr  string          `gorm:"type:text"`
	CurrentQuantity   decimal.Decimal `gorm:"type:decimal(12,3)"`
	ThresholdQuantity decimal.Decimal `gorm:"type:decimal(12,3)"`
	IsAcknowledged    bool            `gorm:"index"`
	AcknowledgedAt    *time.Time
	AcknowledgedBy    string
	CreatedAt         time.Time
}

// StockTransactionType represents the kind of stock movement
type StockTransactionType string

const (
	StockPurchase   StockTransactionType = "PURCHASE"
	StockSale       StockTransactionType = "SALE"
	StockAdjustment StockTransactionType = "ADJUSTMENT"
	StockWastage    StockTransactionType = "WASTAGE"
)

// Stock transaction reference types
const (
	ReferenceOrder  = "ORDER"
	ReferenceManual = "MANUAL"
)
