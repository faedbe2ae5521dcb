package order

import (
	"time"

	"github.com/shopspring/decimal"

	"fastfood/internal/models"
	"fastfood/internal/stock"
)

// ItemResponse is one order line as returned to clients
type ItemResponse struct {
	ID         uint            `json:"id"`
	MenuItemID *uint           `json:"menuItemId,omitempty"`
	ComboID    *uint           `json:"comboId,omitempty"`
	ItemNameEn string          `json:"itemNameEn"`
	ItemNameUr string          `json:"itemNameUr"`
	SizeCode   string          `json:"sizeCode,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Notes      string          `json:"notes,omitempty"`
}

// Response is the client projection of an order
type Response struct {
	ID              uint                 `json:"id"`
	OrderNumber     string               `json:"orderNumber"`
	BranchID        uint                 `json:"branchId"`
	OrderType       models.OrderType     `json:"orderType"`
	TableNumber     string               `json:"tableNumber,omitempty"`
	CustomerName    string               `json:"customerName,omitempty"`
	CustomerPhone   string               `json:"customerPhone,omitempty"`
	DeliveryAddress string               `json:"deliveryAddress,omitempty"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
	PaymentStatus   models.PaymentStatus `json:"paymentStatus"`
	OrderStatus     models.OrderStatus   `json:"orderStatus"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	DiscountAmount  decimal.Decimal      `json:"discountAmount"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	VoucherCode     string               `json:"voucherCode,omitempty"`
	OrderDate       time.Time            `json:"orderDate"`
	CompletedAt     *time.Time           `json:"completedAt,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	Items           []ItemResponse       `json:"items"`
	StockWarnings   []stock.WarningView  `json:"stockWarnings,omitempty"`
}

// Page is one page of search results
type Page struct {
	Orders []Response `json:"orders"`
	Total  int        `json:"total"`
	Page   int        `json:"page"`
	Size   int        `json:"size"`
}

func toResponse(o *models.Order) *Response {
	resp := &Response{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		BranchID:        o.BranchID,
		OrderType:       o.OrderType,
		TableNumber:     o.TableNumber,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		OrderStatus:     o.OrderStatus,
		Subtotal:        o.Subtotal,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		VoucherCode:     o.VoucherCode,
		OrderDate:       o.OrderDate,
		CompletedAt:     o.CompletedAt,
		Notes:           o.Notes,
		Items:           make([]ItemResponse, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, ItemResponse{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			ComboID:    it.ComboID,
			ItemNameEn: it.ItemNameEn,
			ItemNameUr: it.ItemNameUr,
			SizeCode:   it.SizeCode,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
			Notes:      it.Notes,
		})
	}
	return resp
}
