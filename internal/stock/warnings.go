package stock

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fastfood/internal/core"
	"fastfood/internal/models"
)

// Settings keys stored in brand_configs
const (
	KeyWarningIntervalHours = "STOCK_WARNING_INTERVAL_HOURS"
	KeyAlertsEnabled        = "STOCK_ALERTS_ENABLED"

	DefaultWarningIntervalHours = 2
)

// WarningView is a low-stock warning as shown to staff
type WarningView struct {
	ID                uint            `json:"id,omitempty"`
	StockItemID       uint            `json:"stockItemId"`
	StockItemNameEn   string          `json:"stockItemNameEn"`
	StockItemNameUr   string          `json:"stockItemNameUr"`
	WarningMessageEn  string          `json:"warningMessageEn"`
	WarningMessageUr  string          `json:"warningMessageUr"`
	CurrentQuantity   decimal.Decimal `json:"currentQuantity"`
	ThresholdQuantity decimal.Decimal `json:"thresholdQuantity"`
	Unit              string          `json:"unit"`
	IsAcknowledged    bool            `json:"isAcknowledged"`
	CreatedAt         *time.Time      `json:"createdAt,omitempty"`
}

// WarningConfig is the runtime configuration of the warning service
type WarningConfig struct {
	IntervalHours int  `json:"intervalHours"`
	AlertsEnabled bool `json:"alertsEnabled"`
}

// Warnings raises and acknowledges low-stock warnings
type Warnings struct {
	db     *gorm.DB
	clock  core.Clock
	logger *zap.Logger
}

// NewWarnings creates a new warning service
func NewWarnings(db *gorm.DB, clock core.Clock, logger *zap.Logger) *Warnings {
	return &Warnings{db: db, clock: clock, logger: logger}
}

// Config reads the warning settings, falling back to defaults
func (w *Warnings) Config() WarningConfig {
	cfg := WarningConfig{IntervalHours: DefaultWarningIntervalHours, AlertsEnabled: true}
	if v, ok := w.setting(KeyWarningIntervalHours); ok {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			cfg.IntervalHours = hours
		}
	}
	if v, ok := w.setting(KeyAlertsEnabled); ok {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.AlertsEnabled = enabled
		}
	}
	return cfg
}

// SetConfig stores the warning settings
func (w *Warnings) SetConfig(cfg WarningConfig) error {
	if cfg.IntervalHours < 1 {
		return fmt.Errorf("interval hours must be at least 1: %w", core.ErrValidation)
	}
	return w.db.Transaction(func(tx *gorm.DB) error {
		now := w.clock.Now()
		if err := tx.Save(&models.BrandConfig{
			ConfigKey:   KeyWarningIntervalHours,
			ConfigValue: strconv.Itoa(cfg.IntervalHours),
			Description: "Hours before an unacknowledged stock warning is regenerated",
			UpdatedAt:   now,
		}).Error; err != nil {
			return err
		}
		return tx.Save(&models.BrandConfig{
			ConfigKey:   KeyAlertsEnabled,
			ConfigValue: strconv.FormatBool(cfg.AlertsEnabled),
			Description: "Whether low-stock alerts are raised",
			UpdatedAt:   now,
		}).Error
	})
}

func (w *Warnings) setting(key string) (string, bool) {
	var row models.BrandConfig
	if err := w.db.Where("config_key = ?", key).First(&row).Error; err != nil {
		return "", false
	}
	return row.ConfigValue, true
}

// CheckOnOrder scans active stock items after an order and returns a view of
// every low one, raising warnings where none is current.
func (w *Warnings) CheckOnOrder() ([]WarningView, error) {
	cfg := w.Config()
	if !cfg.AlertsEnabled {
		return nil, nil
	}
	low, err := w.lowItems()
	if err != nil {
		return nil, err
	}
	views := make([]WarningView, 0, len(low))
	for i := range low {
		if _, err := w.ensure(&low[i], cfg.IntervalHours); err != nil {
			return nil, err
		}
		views = append(views, viewFromItem(&low[i]))
	}
	return views, nil
}

// Sweep is the scheduled counterpart of CheckOnOrder and reports how many
// warnings it created.
func (w *Warnings) Sweep() (int, error) {
	cfg := w.Config()
	if !cfg.AlertsEnabled {
		return 0, nil
	}
	low, err := w.lowItems()
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range low {
		ok, err := w.ensure(&low[i], cfg.IntervalHours)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		w.logger.Info("stock warning sweep raised warnings", zap.Int("created", created))
	}
	return created, nil
}

func (w *Warnings) lowItems() ([]models.StockItem, error) {
	var items []models.StockItem
	if err := w.db.Where("is_active = ?", true).Order("name_en").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load stock items: %w", err)
	}
	low := items[:0]
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}

// ensure keeps at most one unacknowledged warning per item and replaces it
// once it is older than the interval.
func (w *Warnings) ensure(item *models.StockItem, intervalHours int) (bool, error) {
	created := false
	err := w.db.Transaction(func(tx *gorm.DB) error {
		now := w.clock.Now()
		var existing models.StockWarning
		err := tx.Where("stock_item_id = ? AND is_acknowledged = ?", item.ID, false).
			Order("created_at desc").First(&existing).Error
		switch {
		case err == nil:
			if now.Sub(existing.CreatedAt) < time.Duration(intervalHours)*time.Hour {
				return nil
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("failed to supersede stock warning %d: %w", existing.ID, err)
			}
		case !gorm.IsRecordNotFoundError(err):
			return err
		}

		warning := models.StockWarning{
			StockItemID:       item.ID,
			WarningMessageEn:  messageEn(item),
			WarningMessageUr:  messageUr(item),
			CurrentQuantity:   item.CurrentQuantity,
			ThresholdQuantity: item.MinThreshold,
			CreatedAt:         now,
		}
		if err := tx.Create(&warning).Error; err != nil {
			return fmt.Errorf("failed to create stock warning: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if created {
		w.logger.Warn("low stock",
			zap.String("stock_item", item.NameEn),
			zap.String("current", item.CurrentQuantity.String()),
			zap.String("threshold", item.MinThreshold.String()))
	}
	return created, nil
}

// Active lists unacknowledged warnings, newest first
func (w *Warnings) Active() ([]WarningView, error) {
	var warnings []models.StockWarning
	err := w.db.Preload("StockItem").Where("is_acknowledged = ?", false).
		Order("created_at desc, id desc").Find(&warnings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stock warnings: %w", err)
	}
	views := make([]WarningView, 0, len(warnings))
	for i := range warnings {
		views = append(views, viewFromWarning(&warnings[i]))
	}
	return views, nil
}

// Acknowledge marks one warning as seen. A warning is acknowledged once.
func (w *Warnings) Acknowledge(id uint, by string) error {
	return w.db.Transaction(func(tx *gorm.DB) error {
		var warning models.StockWarning
		if err := tx.First(&warning, id).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return fmt.Errorf("stock warning %d not found: %w", id, core.ErrNotFound)
			}
			return err
		}
		if warning.IsAcknowledged {
			return fmt.Errorf("stock warning %d already acknowledged: %w", id, core.ErrConflict)
		}
		now := w.clock.Now()
		return tx.Model(&warning).Updates(map[string]interface{}{
			"is_acknowledged": true,
			"acknowledged_at": now,
			"acknowledged_by": by,
		}).Error
	})
}

// AcknowledgeAll marks every open warning as seen and returns the count
func (w *Warnings) AcknowledgeAll(by string) (int, error) {
	now := w.clock.Now()
	res := w.db.Model(&models.StockWarning{}).Where("is_acknowledged = ?", false).Updates(map[string]interface{}{
		"is_acknowledged": true,
		"acknowledged_at": now,
		"acknowledged_by": by,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to acknowledge stock warnings: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func messageEn(item *models.StockItem) string {
	return fmt.Sprintf("Low stock alert: %s has only %s %s remaining (threshold: %s %s)",
		item.NameEn, item.CurrentQuantity.StringFixed(2), item.Unit, item.MinThreshold.StringFixed(2), item.Unit)
}

func messageUr(item *models.StockItem) string {
	name := item.NameUr
	if name == "" {
		name = item.NameEn
	}
	return fmt.Sprintf("کم اسٹاک انتباہ: %s میں صرف %s %s باقی ہے (حد: %s %s)",
		name, item.CurrentQuantity.StringFixed(2), item.Unit, item.MinThreshold.StringFixed(2), item.Unit)
}

func viewFromItem(item *models.StockItem) WarningView {
	return WarningView{
		StockItemID:       item.ID,
		StockItemNameEn:   item.NameEn,
		StockItemNameUr:   item.NameUr,
		WarningMessageEn:  messageEn(item),
		WarningMessageUr:  messageUr(item),
		CurrentQuantity:   item.CurrentQuantity,
		ThresholdQuantity: item.MinThreshold,
		Unit:              item.Unit,
	}
}

func viewFromWarning(w *models.StockWarning) WarningView {
	created := w.CreatedAt
	return WarningView{
		ID:                w.ID,
		StockItemID:       w.StockItemID,
		StockItemNameEn:   w.StockItem.NameEn,
		StockItemNameUr:   w.StockItem.NameUr,
		WarningMessageEn:  w.WarningMessageEn,
		WarningMessageUr:  w.WarningMessageUr,
		CurrentQuantity:   w.CurrentQuantity,
		ThresholdQuantity: w.ThresholdQuantity,
		Unit:              w.StockItem.Unit,
		IsAcknowledged:    w.IsAcknowledged,
		CreatedAt:         &created,
	}
}
