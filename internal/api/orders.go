package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fastfood/internal/models"
	"fastfood/internal/order"
)

const dateLayout = "2006-01-02"

func (s *Server) placeOrder(c *gin.Context) {
	var req order.PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.orders.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) pendingOrders(c *gin.Context) {
	orders, err := s.orders.ListPending()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) searchOrders(c *gin.Context) {
	f := order.SearchFilter{
		OrderNumber:   c.Query("orderNumber"),
		CustomerName:  c.Query("customerName"),
		CustomerPhone: c.Query("customerPhone"),
		BranchID:      uint(queryInt(c, "branchId", 0)),
		Page:          queryInt(c, "page", 0),
		Size:          queryInt(c, "size", 20),
	}
	if v := c.Query("startDate"); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be YYYY-MM-DD"})
			return
		}
		f.From = &from
	}
	if v := c.Query("endDate"); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be YYYY-MM-DD"})
			return
		}
		// inclusive of the whole end day
		to = to.Add(24*time.Hour - time.Second)
		f.To = &to
	}

	page, err := s.orders.Search(f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) getOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := s.orders.Get(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) updateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.orders.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
