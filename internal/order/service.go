package order

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fastfood/internal/core"
	"fastfood/internal/database"
	"fastfood/internal/models"
	"fastfood/internal/monitoring"
	"fastfood/internal/pricing"
	"fastfood/internal/stock"
	"fastfood/internal/voucher"
)

// Hook names used in logs and metrics
const (
	HookStockDeduction = "stock_deduction"
	HookStockWarnings  = "stock_warnings"
	HookReceipt        = "receipt"
	HookKitchenFeed    = "kitchen_feed"
)

// Kitchen feed event types
const (
	EventPlaced        = "order.placed"
	EventStatusChanged = "order.status_changed"
)

// PlaceRequest is the checkout payload
type PlaceRequest struct {
	BranchID        uint                 `json:"branchId" binding:"required"`
	OrderType       models.OrderType     `json:"orderType" binding:"required"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod" binding:"required"`
	TableNumber     string               `json:"tableNumber"`
	CustomerName    string               `json:"customerName"`
	CustomerPhone   string               `json:"customerPhone"`
	DeliveryAddress string               `json:"deliveryAddress"`
	Items           []pricing.Line       `json:"items" binding:"required"`
	VoucherCode     string               `json:"voucherCode"`
	Notes           string               `json:"notes"`
}

// Event is pushed to the kitchen display
type Event struct {
	Type  string    `json:"type"`
	Order *Response `json:"order"`
}

// StockDeductor consumes ingredients for a committed order
type StockDeductor interface {
	DeductForOrder(order *models.Order) error
}

// WarningChecker recomputes low-stock warnings
type WarningChecker interface {
	CheckOnOrder() ([]stock.WarningView, error)
}

// ReceiptPrinter emits a receipt for a placed order
type ReceiptPrinter interface {
	Print(ctx context.Context, order *Response) error
}

// Notifier receives order events
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// Hooks are the side effects run after an order commits. Any of them may be nil.
type Hooks struct {
	Stock    StockDeductor
	Warnings WarningChecker
	Receipts ReceiptPrinter
	Notifier Notifier
}

// Service places orders and moves them through their lifecycle
type Service struct {
	db       *gorm.DB
	pricing  *pricing.Engine
	vouchers *voucher.Engine
	hooks    Hooks
	clock    core.Clock
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewService creates a new order service
func NewService(db *gorm.DB, hooks Hooks, clock core.Clock, logger *zap.Logger, metrics *monitoring.Metrics) *Service {
	return &Service{
		db:       db,
		pricing:  pricing.NewEngine(),
		vouchers: voucher.NewEngine(clock, logger, metrics),
		hooks:    hooks,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// NewOrderNumber formats an order number from a timestamp and a random suffix
func NewOrderNumber(clock core.Clock) string {
	return fmt.Sprintf("ORD-%s-%04d", clock.Now().Format("20060102150405"), rand.Intn(10000))
}

// PlaceOrder prices the cart, applies the voucher and persists the order in
// one transaction, then runs the post-commit hooks. Hook failures are logged
// and never fail the order.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceRequest) (*Response, error) {
	if !req.OrderType.Valid() {
		return nil, fmt.Errorf("unknown order type %q: %w", req.OrderType, core.ErrInvalidOperation)
	}
	if !req.PaymentMethod.Valid() {
		return nil, fmt.Errorf("unknown payment method %q: %w", req.PaymentMethod, core.ErrInvalidOperation)
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var branch models.Branch
		if err := tx.First(&branch, req.BranchID).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return fmt.Errorf("branch %d not found: %w", req.BranchID, core.ErrNotFound)
			}
			return err
		}

		lines, subtotal, err := s.pricing.PriceCart(tx, req.Items)
		if err != nil {
			return err
		}

		applied, err := s.vouchers.Apply(tx, req.VoucherCode, subtotal)
		if err != nil {
			return err
		}
		total := subtotal.Sub(applied.Discount)
		if total.IsNegative() {
			total = decimal.Zero
		}

		now := s.clock.Now()
		order = models.Order{
			OrderNumber:     NewOrderNumber(s.clock),
			BranchID:        branch.ID,
			OrderType:       req.OrderType,
			TableNumber:     req.TableNumber,
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			DeliveryAddress: req.DeliveryAddress,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   models.PaymentStatusPending,
			OrderStatus:     models.OrderStatusPending,
			Subtotal:        subtotal,
			DiscountAmount:  applied.Discount,
			TotalAmount:     total,
			OrderDate:       now,
			Notes:           req.Notes,
		}
		if applied.Voucher != nil {
			order.VoucherID = &applied.Voucher.ID
			order.VoucherCode = applied.Voucher.Code
		}
		for _, l := range lines {
			order.Items = append(order.Items, models.OrderItem{
				MenuItemID: l.MenuItemID,
				ComboID:    l.ComboID,
				ItemNameEn: l.NameEn,
				ItemNameUr: l.NameUr,
				SizeCode:   l.SizeCode,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice,
				TotalPrice: l.TotalPrice,
				Notes:      l.Notes,
			})
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrderPlaced(string(order.OrderType), order.TotalAmount, order.DiscountAmount)
	s.logger.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(order.Items)),
		zap.String("subtotal", order.Subtotal.StringFixed(2)),
		zap.String("discount", order.DiscountAmount.StringFixed(2)),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	resp := toResponse(&order)

	if s.hooks.Stock != nil {
		s.guard(HookStockDeduction, order.OrderNumber, func() error {
			return s.hooks.Stock.DeductForOrder(&order)
		})
	}
	if s.hooks.Warnings != nil {
		s.guard(HookStockWarnings, order.OrderNumber, func() error {
			views, err := s.hooks.Warnings.CheckOnOrder()
			resp.StockWarnings = views
			return err
		})
	}
	if s.hooks.Receipts != nil {
		s.guard(HookReceipt, order.OrderNumber, func() error {
			return s.hooks.Receipts.Print(ctx, resp)
		})
	}
	s.notify(ctx, order.OrderNumber, Event{Type: EventPlaced, Order: resp})

	return resp, nil
}

// guard runs a post-commit hook, containing both errors and panics
func (s *Service) guard(hook, orderNumber string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("order hook panicked",
				zap.String("hook", hook), zap.String("order_number", orderNumber), zap.Any("panic", r))
			s.metrics.HookFailed(hook)
		}
	}()
	if err := fn(); err != nil {
		s.logger.Error("order hook failed",
			zap.String("hook", hook), zap.String("order_number", orderNumber), zap.Error(err))
		s.metrics.HookFailed(hook)
	}
}

func (s *Service) notify(ctx context.Context, orderNumber string, event Event) {
	if s.hooks.Notifier == nil {
		return
	}
	s.guard(HookKitchenFeed, orderNumber, func() error {
		s.hooks.Notifier.Notify(ctx, event)
		return nil
	})
}

// UpdateStatus moves an order along its lifecycle. Illegal transitions are
// rejected with ErrInvalidOperation.
func (s *Service) UpdateStatus(ctx context.Context, id uint, next models.OrderStatus) (*Response, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("unknown order status %q: %w", next, core.ErrInvalidOperation)
	}

	var order models.Order
	var previous models.OrderStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).First(&order, id).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return fmt.Errorf("order %d not found: %w", id, core.ErrNotFound)
			}
			return err
		}
		previous = order.OrderStatus
		if !previous.CanTransitionTo(next) {
			return fmt.Errorf("cannot move order %s from %s to %s: %w",
				order.OrderNumber, previous, next, core.ErrInvalidOperation)
		}

		now := s.clock.Now()
		updates := map[string]interface{}{"order_status": next, "updated_at": now}
		if next == models.OrderStatusCompleted && order.CompletedAt == nil {
			updates["completed_at"] = now
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return tx.Preload("Items", itemsByID).First(&order, id).Error
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StatusChanged(string(next))
	s.logger.Info("order status updated",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))

	resp := toResponse(&order)
	s.notify(ctx, order.OrderNumber, Event{Type: EventStatusChanged, Order: resp})
	return resp, nil
}
