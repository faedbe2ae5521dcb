package pricing

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"

	"fastfood/internal/core"
	"fastfood/internal/models"
)

// Line is one cart entry as submitted at checkout
type Line struct {
	MenuItemID *uint  `json:"menuItemId,omitempty"`
	ComboID    *uint  `json:"comboId,omitempty"`
	SizeCode   string `json:"sizeCode,omitempty"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// PricedLine is a cart line resolved to display names and prices
type PricedLine struct {
	MenuItemID *uint
	ComboID    *uint
	NameEn     string
	NameUr     string
	SizeCode   string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Notes      string
}

// Engine resolves cart lines against the catalog
type Engine struct{}

// NewEngine creates a new pricing engine
func NewEngine() *Engine {
	return &Engine{}
}

// Resolve prices a single cart line. Menu items are priced at base price plus
// the size modifier; combos at their fixed combo price.
func (e *Engine) Resolve(db *gorm.DB, line Line) (PricedLine, error) {
	if (line.MenuItemID == nil) == (line.ComboID == nil) {
		return PricedLine{}, fmt.Errorf("either menuItemId or comboId must be provided: %w", core.ErrValidation)
	}
	if line.Quantity < 1 {
		return PricedLine{}, fmt.Errorf("quantity must be at least 1: %w", core.ErrValidation)
	}

	priced := PricedLine{
		MenuItemID: line.MenuItemID,
		ComboID:    line.ComboID,
		Quantity:   line.Quantity,
		Notes:      line.Notes,
	}

	if line.MenuItemID != nil {
		var item models.MenuItem
		if err := db.Preload("Sizes").First(&item, *line.MenuItemID).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return PricedLine{}, fmt.Errorf("menu item %d not found: %w", *line.MenuItemID, core.ErrNotFound)
			}
			return PricedLine{}, fmt.Errorf("failed to load menu item %d: %w", *line.MenuItemID, err)
		}
		priced.NameEn = item.NameEn
		priced.NameUr = item.NameUr
		priced.UnitPrice = item.BasePrice
		if line.SizeCode != "" {
			size, ok := item.SizeByCode(line.SizeCode)
			if !ok {
				return PricedLine{}, fmt.Errorf("size %q not found for menu item %d: %w", line.SizeCode, item.ID, core.ErrNotFound)
			}
			priced.SizeCode = size.SizeCode
			priced.UnitPrice = item.BasePrice.Add(size.PriceModifier)
		}
	} else {
		var combo models.Combo
		if err := db.First(&combo, *line.ComboID).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return PricedLine{}, fmt.Errorf("combo %d not found: %w", *line.ComboID, core.ErrNotFound)
			}
			return PricedLine{}, fmt.Errorf("failed to load combo %d: %w", *line.ComboID, err)
		}
		priced.NameEn = combo.NameEn
		priced.NameUr = combo.NameUr
		priced.UnitPrice = combo.ComboPrice
	}

	priced.TotalPrice = priced.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	return priced, nil
}

// PriceCart resolves every line, failing fast on the first bad one, and
// returns the priced lines with their subtotal
func (e *Engine) PriceCart(db *gorm.DB, lines []Line) ([]PricedLine, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, fmt.Errorf("order must have at least one item: %w", core.ErrValidation)
	}
	priced := make([]PricedLine, 0, len(lines))
	for i, line := range lines {
		p, err := e.Resolve(db, line)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("line %d: %w", i+1, err)
		}
		priced = append(priced, p)
	}
	return priced, Subtotal(priced), nil
}

// Subtotal sums the line totals
func Subtotal(lines []PricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalPrice)
	}
	return total
}
