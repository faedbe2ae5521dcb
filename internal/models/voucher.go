package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Voucher is a discount code with usage and time constraints
type Voucher struct {
	gorm.Model
	Code              string              `gorm:"unique_index;not null"`
	DescriptionEn     string
	DescriptionUr     string
	DiscountType      DiscountType        `gorm:"not null"`
	DiscountValue     decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	MinOrderAmount    decimal.NullDecimal `gorm:"type:decimal(12,2)"` // informational, not enforced at checkout
	MaxDiscountAmount decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	UsageLimit        *int
	UsedCount         int `gorm:"not null"`
	ValidFrom         time.Time
	ValidUntil        time.Time
	IsActive          bool
}

// DiscountType represents how a voucher discount is computed
type DiscountType string

const (
	DiscountPercentage  DiscountType = "PERCENTAGE"
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

// InWindow reports whether now falls inside [ValidFrom, ValidUntil)
func (v *Voucher) InWindow(now time.Time) bool {
	return !now.Before(v.ValidFrom) && now.Before(v.ValidUntil)
}

// Exhausted reports whether the usage limit has been reached
func (v *Voucher) Exhausted() bool {
	return v.UsageLimit != nil && v.UsedCount >= *v.UsageLimit
}
