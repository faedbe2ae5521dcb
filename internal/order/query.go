package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"

	"fastfood/internal/core"
	"fastfood/internal/models"
)

// SearchFilter narrows an order search. Zero values are ignored.
type SearchFilter struct {
	OrderNumber   string
	CustomerName  string
	CustomerPhone string
	From          *time.Time
	To            *time.Time
	BranchID      uint
	Page          int
	Size          int
}

func itemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// Get returns an order with its line snapshots
func (s *Service) Get(id uint) (*Response, error) {
	var order models.Order
	if err := s.db.Preload("Items", itemsByID).First(&order, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("order %d not found: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return toResponse(&order), nil
}

// ListPending returns orders awaiting the kitchen, newest first
func (s *Service) ListPending() ([]Response, error) {
	var orders []models.Order
	err := s.db.Preload("Items", itemsByID).
		Where("order_status = ?", models.OrderStatusPending).
		Order("order_date desc, id desc").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}
	return toResponses(orders), nil
}

// Search pages through orders matching f, newest first. Text filters match
// case-insensitive substrings.
func (s *Service) Search(f SearchFilter) (*Page, error) {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 || f.Size > 100 {
		f.Size = 20
	}

	q := s.db.Model(&models.Order{})
	if v := strings.TrimSpace(f.OrderNumber); v != "" {
		q = q.Where("LOWER(order_number) LIKE ?", "%"+strings.ToLower(v)+"%")
	}
	if v := strings.TrimSpace(f.CustomerName); v != "" {
		q = q.Where("LOWER(customer_name) LIKE ?", "%"+strings.ToLower(v)+"%")
	}
	if v := strings.TrimSpace(f.CustomerPhone); v != "" {
		q = q.Where("customer_phone LIKE ?", "%"+v+"%")
	}
	if f.From != nil {
		q = q.Where("order_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("order_date <= ?", *f.To)
	}
	if f.BranchID != 0 {
		q = q.Where("branch_id = ?", f.BranchID)
	}

	var total int
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := q.Preload("Items", itemsByID).
		Order("order_date desc, id desc").
		Offset(f.Page * f.Size).Limit(f.Size).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search orders: %w", err)
	}

	return &Page{Orders: toResponses(orders), Total: total, Page: f.Page, Size: f.Size}, nil
}

func toResponses(orders []models.Order) []Response {
	out := make([]Response, 0, len(orders))
	for i := range orders {
		out = append(out, *toResponse(&orders[i]))
	}
	return out
}
