package models

import (
	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Category groups menu items on the menu board
type Category struct {
	gorm.Model
	NameEn       string `gorm:"not null" json:"nameEn"`
	NameUr       string `json:"nameUr"`
	DisplayOrder int    `json:"displayOrder"`
	IsActive     bool   `json:"isActive"`
}

// MenuItem represents a dish on the menu
type MenuItem struct {
	gorm.Model
	CategoryID  uint            `json:"categoryId"`
	NameEn      string          `gorm:"not null" json:"nameEn"`
	NameUr      string          `json:"nameUr"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"basePrice"`
	IsAvailable bool            `json:"isAvailable"`
	Sizes       []MenuItemSize  `gorm:"foreignkey:MenuItemID" json:"sizes,omitempty"`
	AddOns      []AddOn         `gorm:"many2many:menu_item_add_ons" json:"addOns,omitempty"`
}

// MenuItemSize is a size variant of a menu item with a price modifier
type MenuItemSize struct {
	gorm.Model
	MenuItemID    uint            `gorm:"index" json:"menuItemId"`
	SizeCode      string          `gorm:"not null" json:"sizeCode"`
	NameEn        string          `json:"nameEn"`
	NameUr        string          `json:"nameUr"`
	PriceModifier decimal.Decimal `gorm:"type:decimal(12,2)" json:"priceModifier"`
}

// AddOn is an extra that can be attached to menu items at a flat price
type AddOn struct {
	gorm.Model
	NameEn   string          `gorm:"not null" json:"nameEn"`
	NameUr   string          `json:"nameUr"`
	Price    decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	IsActive bool            `json:"isActive"`
}

// Combo is a fixed-price bundle of menu items sold as one SKU
type Combo struct {
	gorm.Model
	NameEn     string          `gorm:"not null" json:"nameEn"`
	NameUr     string          `json:"nameUr"`
	ComboPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"comboPrice"`
	IsActive   bool            `json:"isActive"`
	Items      []ComboItem     `gorm:"foreignkey:ComboID" json:"items,omitempty"`
}

// ComboItem is one (menu item, quantity) entry of a combo
type ComboItem struct {
	gorm.Model
	ComboID    uint `gorm:"index" json:"comboId"`
	MenuItemID uint `json:"menuItemId"`
	Quantity   int  `json:"quantity"`
	Position   int  `json:"position"`
}

// SizeByCode returns the size variant with the given code, if loaded
func (mi *MenuItem) SizeByCode(code string) (*MenuItemSize, bool) {
	for i := range mi.Sizes {
		if mi.Sizes[i].SizeCode == code {
			return &mi.Sizes[i], true
		}
	}
	return nil, false
}
