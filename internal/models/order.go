package models

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/shopspring/decimal"
)

// Order represents a placed customer order
type Order struct {
	gorm.Model
	OrderNumber     string          `gorm:"unique_index;not null"`
	BranchID        uint            `gorm:"index"`
	OrderType       OrderType       `gorm:"not null"`
	TableNumber     string
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	PaymentMethod   PaymentMethod   `gorm:"not null"`
	PaymentStatus   PaymentStatus   `gorm:"not null"`
	OrderStatus     OrderStatus     `gorm:"index;not null"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	VoucherID       *uint
	VoucherCode     string
	OrderDate       time.Time `gorm:"index"`
	CompletedAt     *time.Time
	Notes           string
	Items           []OrderItem `gorm:"foreignkey:OrderID"`
}

// OrderItem is a snapshot of one sold line. Exactly one of MenuItemID and
// ComboID is set.
type OrderItem struct {
	gorm.Model
	OrderID    uint `gorm:"index"`
	MenuItemID *uint
	ComboID    *uint
	ItemNameEn string
	ItemNameUr string
	SizeCode   string
	Quantity   int
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2)"`
	Notes      string
}

// OrderType represents how the order is served
type OrderType string

const (
	OrderTypeTablePickup  OrderType = "TABLE_PICKUP"
	OrderTypeTakeaway     OrderType = "TAKEAWAY"
	OrderTypeHomeDelivery OrderType = "HOME_DELIVERY"
)

// PaymentMethod represents how the customer pays
type PaymentMethod string

const (
	PaymentCashOnSpot     PaymentMethod = "CASH_ON_SPOT"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusCompleted, OrderStatusCancelled},
}

// Valid reports whether t is a known order type
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeTablePickup, OrderTypeTakeaway, OrderTypeHomeDelivery:
		return true
	}
	return false
}

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnSpot || m == PaymentCashOnDelivery
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo reports whether the kitchen may move an order from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
