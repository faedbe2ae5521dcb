package voucher

import (
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fastfood/internal/core"
	"fastfood/internal/models"
	"fastfood/internal/monitoring"
)

// Reasons a voucher code is absorbed into a zero discount
const (
	ReasonInvalid   = "invalid"
	ReasonExhausted = "exhausted"
)

var hundred = decimal.NewFromInt(100)

// Result is the outcome of applying a voucher code to a subtotal
type Result struct {
	Voucher  *models.Voucher
	Discount decimal.Decimal
	// Reason is set when a supplied code was rejected
	Reason string
}

// Engine validates voucher codes and computes discounts
type Engine struct {
	clock   core.Clock
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewEngine creates a new voucher engine
func NewEngine(clock core.Clock, logger *zap.Logger, metrics *monitoring.Metrics) *Engine {
	return &Engine{clock: clock, logger: logger, metrics: metrics}
}

// NormalizeCode trims and upper-cases a voucher code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply validates code against subtotal and, when a discount is granted,
// records one use of the voucher inside tx. Unknown, expired, inactive or
// exhausted codes yield a zero discount rather than an error; only storage
// failures are returned.
func (e *Engine) Apply(tx *gorm.DB, code string, subtotal decimal.Decimal) (Result, error) {
	code = NormalizeCode(code)
	if code == "" {
		return Result{Discount: decimal.Zero}, nil
	}

	var v models.Voucher
	err := tx.Where("code = ? AND is_active = ?", code, true).First(&v).Error
	if err != nil && !gorm.IsRecordNotFoundError(err) {
		return Result{}, fmt.Errorf("failed to look up voucher %s: %w", code, err)
	}
	if err != nil || !v.InWindow(e.clock.Now()) {
		return e.reject(code, ReasonInvalid), nil
	}
	if v.Exhausted() {
		return e.reject(code, ReasonExhausted), nil
	}

	discount := Calculate(&v, subtotal)

	// conditional increment so two concurrent orders cannot both take the last use
	res := tx.Model(&models.Voucher{}).
		Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", v.ID).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		return Result{}, fmt.Errorf("failed to record voucher usage for %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return e.reject(code, ReasonExhausted), nil
	}
	v.UsedCount++

	e.logger.Info("voucher applied",
		zap.String("code", code),
		zap.String("discount", discount.StringFixed(2)),
		zap.Int("used_count", v.UsedCount))

	return Result{Voucher: &v, Discount: discount}, nil
}

func (e *Engine) reject(code, reason string) Result {
	e.logger.Warn("voucher not applied", zap.String("code", code), zap.String("reason", reason))
	e.metrics.VoucherRejected(reason)
	return Result{Discount: decimal.Zero, Reason: reason}
}

// Calculate computes the discount a voucher grants on subtotal. Percentage
// discounts are rounded half-up to 2 places and capped at MaxDiscountAmount;
// fixed discounts are returned verbatim even when they exceed the subtotal.
func Calculate(v *models.Voucher, subtotal decimal.Decimal) decimal.Decimal {
	switch v.DiscountType {
	case models.DiscountPercentage:
		discount := subtotal.Mul(v.DiscountValue).Div(hundred).Round(2)
		if v.MaxDiscountAmount.Valid && discount.GreaterThan(v.MaxDiscountAmount.Decimal) {
			return v.MaxDiscountAmount.Decimal
		}
		return discount
	case models.DiscountFixedAmount:
		return v.DiscountValue
	}
	return decimal.Zero
}
