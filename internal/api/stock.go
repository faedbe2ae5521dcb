package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fastfood/internal/auth"
	"fastfood/internal/models"
	"fastfood/internal/stock"
)

func (s *Server) listStockItems(c *gin.Context) {
	items, err := s.ledger.Items(c.Query("active") == "true")
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) createStockItem(c *gin.Context) {
	var req stock.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := s.ledger.CreateItem(req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) getStockItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	item, err := s.ledger.Item(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "isLowStock": item.IsLowStock()})
}

func (s *Server) adjustStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity decimal.Decimal             `json:"quantity"`
		Type     models.StockTransactionType `json:"type"`
		Notes    string                      `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := s.ledger.Adjust(stock.AdjustRequest{StockItemID: id, Delta: req.Quantity, Type: req.Type, Notes: req.Notes})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (s *Server) stockTransactions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	txns, err := s.ledger.Transactions(id, queryInt(c, "limit", 100))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (s *Server) ingredients(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ings, err := s.ledger.Ingredients(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ings)
}

func (s *Server) saveIngredients(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req []stock.IngredientInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ings, err := s.ledger.SaveIngredients(id, req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ings)
}

func (s *Server) activeWarnings(c *gin.Context) {
	views, err := s.warnings.Active()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) acknowledgeWarning(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := s.warnings.Acknowledge(id, auth.Username(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Warning acknowledged"})
}

func (s *Server) acknowledgeAllWarnings(c *gin.Context) {
	n, err := s.warnings.AcknowledgeAll(auth.Username(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": n})
}

func (s *Server) checkWarnings(c *gin.Context) {
	views, err := s.warnings.CheckOnOrder()
	if err != nil {
		s.respondError(c, err)
		return
	}
	if views == nil {
		views = []stock.WarningView{}
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) warningConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.warnings.Config())
}

func (s *Server) updateWarningConfig(c *gin.Context) {
	var req stock.WarningConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.warnings.SetConfig(req); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.warnings.Config())
}
