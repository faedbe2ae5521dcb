package stock

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fastfood/internal/core"
	"fastfood/internal/database"
	"fastfood/internal/models"
	"fastfood/internal/monitoring"
)

// Ledger owns stock quantities and appends a StockTransaction for every change
type Ledger struct {
	db      *gorm.DB
	clock   core.Clock
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// AdjustRequest is a manual stock movement
type AdjustRequest struct {
	StockItemID uint
	Delta       decimal.Decimal
	Type        models.StockTransactionType
	Notes       string
}

// IngredientInput is one entry of a menu item's ingredient set
type IngredientInput struct {
	StockItemID      uint            `json:"stockItemId"`
	QuantityRequired decimal.Decimal `json:"quantityRequired"`
}

// ItemInput carries the fields of a new stock item
type ItemInput struct {
	NameEn          string          `json:"nameEn"`
	NameUr          string          `json:"nameUr"`
	DescriptionEn   string          `json:"descriptionEn"`
	DescriptionUr   string          `json:"descriptionUr"`
	Unit            string          `json:"unit"`
	CurrentQuantity decimal.Decimal `json:"currentQuantity"`
	MinThreshold    decimal.Decimal `json:"minThreshold"`
	IsActive        *bool           `json:"isActive"`
}

// NewLedger creates a new stock ledger
func NewLedger(db *gorm.DB, clock core.Clock, logger *zap.Logger, metrics *monitoring.Metrics) *Ledger {
	return &Ledger{db: db, clock: clock, logger: logger, metrics: metrics}
}

// DeductForOrder deducts ingredients for every menu-item line of a committed
// order in one transaction. Combo lines carry no ingredient mapping and are
// skipped.
func (l *Ledger) DeductForOrder(order *models.Order) error {
	err := l.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if item.MenuItemID == nil {
				continue
			}
			if err := l.Deduct(tx, *item.MenuItemID, item.Quantity, order.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.logger.Info("stock deducted for order", zap.String("order_number", order.OrderNumber))
	return nil
}

// Deduct consumes quantityRequired × quantitySold of every ingredient of a
// menu item. A deduction that would go negative is clamped at zero.
func (l *Ledger) Deduct(tx *gorm.DB, menuItemID uint, quantitySold int, orderID uint) error {
	var ingredients []models.MenuItemIngredient
	if err := tx.Where("menu_item_id = ?", menuItemID).Find(&ingredients).Error; err != nil {
		return fmt.Errorf("failed to load ingredients for menu item %d: %w", menuItemID, err)
	}
	if len(ingredients) == 0 {
		return nil
	}

	var menuItem models.MenuItem
	if err := tx.Select("id, name_en").First(&menuItem, menuItemID).Error; err != nil {
		return fmt.Errorf("failed to load menu item %d: %w", menuItemID, err)
	}

	sold := decimal.NewFromInt(int64(quantitySold))
	for _, ing := range ingredients {
		var item models.StockItem
		if err := database.ForUpdate(tx).First(&item, ing.StockItemID).Error; err != nil {
			return fmt.Errorf("failed to lock stock item %d: %w", ing.StockItemID, err)
		}

		deduct := ing.QuantityRequired.Mul(sold)
		previous := item.CurrentQuantity
		next := previous.Sub(deduct)
		if next.IsNegative() {
			l.logger.Warn("stock would go negative, clamping to zero",
				zap.String("stock_item", item.NameEn),
				zap.String("previous", previous.String()),
				zap.String("requested", deduct.String()))
			l.metrics.StockClamped()
			next = decimal.Zero
		}

		// quantity is what actually left the shelf, so a clamped row still balances
		if _, err := l.record(tx, &item, models.StockSale, next.Sub(previous), previous, next, models.ReferenceOrder, &orderID,
			"Deducted for menu item: "+menuItem.NameEn); err != nil {
			return err
		}
	}
	return nil
}

// Adjust applies a manual movement. Unlike sale deductions it is strict:
// a result below zero is rejected.
func (l *Ledger) Adjust(req AdjustRequest) (*models.StockTransaction, error) {
	if req.Type == "" {
		req.Type = models.StockAdjustment
	}
	if req.Delta.IsZero() {
		return nil, fmt.Errorf("quantity must not be zero: %w", core.ErrValidation)
	}
	switch req.Type {
	case models.StockAdjustment:
	case models.StockPurchase:
		if !req.Delta.IsPositive() {
			return nil, fmt.Errorf("purchase quantity must be positive: %w", core.ErrValidation)
		}
	case models.StockWastage:
		if !req.Delta.IsNegative() {
			return nil, fmt.Errorf("wastage quantity must be negative: %w", core.ErrValidation)
		}
	default:
		return nil, fmt.Errorf("transaction type %q cannot be recorded manually: %w", req.Type, core.ErrInvalidOperation)
	}

	var txn *models.StockTransaction
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var item models.StockItem
		if err := database.ForUpdate(tx).First(&item, req.StockItemID).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return fmt.Errorf("stock item %d not found: %w", req.StockItemID, core.ErrNotFound)
			}
			return fmt.Errorf("failed to lock stock item %d: %w", req.StockItemID, err)
		}

		previous := item.CurrentQuantity
		next := previous.Add(req.Delta)
		if next.IsNegative() {
			return fmt.Errorf("stock adjustment would result in negative quantity (current %s, delta %s): %w",
				previous.String(), req.Delta.String(), core.ErrInvalidOperation)
		}

		recorded, err := l.record(tx, &item, req.Type, req.Delta, previous, next, models.ReferenceManual, nil, req.Notes)
		if err != nil {
			return err
		}
		txn = recorded
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("stock adjusted",
		zap.Uint("stock_item_id", req.StockItemID),
		zap.String("type", string(req.Type)),
		zap.String("previous", txn.PreviousQuantity.String()),
		zap.String("new", txn.NewQuantity.String()))
	return txn, nil
}

// record writes the new quantity and appends the matching ledger entry
func (l *Ledger) record(tx *gorm.DB, item *models.StockItem, kind models.StockTransactionType, delta, previous, next decimal.Decimal,
	refType string, refID *uint, notes string) (*models.StockTransaction, error) {
	now := l.clock.Now()
	if err := tx.Model(item).Updates(map[string]interface{}{
		"current_quantity": next,
		"updated_at":       now,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update stock item %d: %w", item.ID, err)
	}

	txn := &models.StockTransaction{
		StockItemID:      item.ID,
		TransactionType:  kind,
		Quantity:         delta,
		PreviousQuantity: previous,
		NewQuantity:      next,
		ReferenceType:    refType,
		ReferenceID:      refID,
		Notes:            notes,
		CreatedAt:        now,
	}
	if err := tx.Create(txn).Error; err != nil {
		return nil, fmt.Errorf("failed to record stock transaction: %w", err)
	}
	return txn, nil
}

// SaveIngredients replaces the ingredient set of a menu item
func (l *Ledger) SaveIngredients(menuItemID uint, inputs []IngredientInput) ([]models.MenuItemIngredient, error) {
	seen := make(map[uint]bool, len(inputs))
	var filtered []IngredientInput
	for _, in := range inputs {
		if in.StockItemID == 0 {
			continue
		}
		if seen[in.StockItemID] {
			return nil, fmt.Errorf("stock item %d listed twice for menu item %d: %w", in.StockItemID, menuItemID, core.ErrConflict)
		}
		if !in.QuantityRequired.IsPositive() {
			return nil, fmt.Errorf("quantity required for stock item %d must be positive: %w", in.StockItemID, core.ErrValidation)
		}
		seen[in.StockItemID] = true
		filtered = append(filtered, in)
	}

	err := l.db.Transaction(func(tx *gorm.DB) error {
		var menuItem models.MenuItem
		if err := tx.First(&menuItem, menuItemID).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return fmt.Errorf("menu item %d not found: %w", menuItemID, core.ErrNotFound)
			}
			return err
		}

		if err := tx.Where("menu_item_id = ?", menuItemID).Delete(models.MenuItemIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to clear ingredients: %w", err)
		}

		now := l.clock.Now()
		for _, in := range filtered {
			var item models.StockItem
			if err := tx.First(&item, in.StockItemID).Error; err != nil {
				if gorm.IsRecordNotFoundError(err) {
					return fmt.Errorf("stock item %d not found: %w", in.StockItemID, core.ErrNotFound)
				}
				return err
			}
			ing := models.MenuItemIngredient{
				MenuItemID:       menuItemID,
				StockItemID:      in.StockItemID,
				QuantityRequired: in.QuantityRequired,
				CreatedAt:        now,
			}
			if err := tx.Create(&ing).Error; err != nil {
				return fmt.Errorf("failed to save ingredient: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l.Ingredients(menuItemID)
}

// Ingredients lists a menu item's ingredients with their stock items
func (l *Ledger) Ingredients(menuItemID uint) ([]models.MenuItemIngredient, error) {
	var ingredients []models.MenuItemIngredient
	err := l.db.Preload("StockItem").Where("menu_item_id = ?", menuItemID).Order("id").Find(&ingredients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// CreateItem adds a stock item
func (l *Ledger) CreateItem(in ItemInput) (*models.StockItem, error) {
	if in.NameEn == "" {
		return nil, fmt.Errorf("nameEn is required: %w", core.ErrValidation)
	}
	if in.Unit == "" {
		return nil, fmt.Errorf("unit is required: %w", core.ErrValidation)
	}
	if in.CurrentQuantity.IsNegative() || in.MinThreshold.IsNegative() {
		return nil, fmt.Errorf("quantities must not be negative: %w", core.ErrValidation)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	item := &models.StockItem{
		NameEn:          in.NameEn,
		NameUr:          in.NameUr,
		DescriptionEn:   in.DescriptionEn,
		DescriptionUr:   in.DescriptionUr,
		Unit:            in.Unit,
		CurrentQuantity: in.CurrentQuantity,
		MinThreshold:    in.MinThreshold,
		IsActive:        active,
	}
	if err := l.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create stock item: %w", err)
	}
	return item, nil
}

// Items lists stock items ordered by English name
func (l *Ledger) Items(activeOnly bool) ([]models.StockItem, error) {
	q := l.db.Order("name_en")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var items []models.StockItem
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock items: %w", err)
	}
	return items, nil
}

// Item fetches one stock item
func (l *Ledger) Item(id uint) (*models.StockItem, error) {
	var item models.StockItem
	if err := l.db.First(&item, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("stock item %d not found: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// Transactions returns the ledger of a stock item, newest first
func (l *Ledger) Transactions(stockItemID uint, limit int) ([]models.StockTransaction, error) {
	if _, err := l.Item(stockItemID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var txns []models.StockTransaction
	err := l.db.Where("stock_item_id = ?", stockItemID).Order("created_at desc, id desc").Limit(limit).Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stock transactions: %w", err)
	}
	return txns, nil
}
