package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fastfood/internal/auth"
	"fastfood/internal/core"
	"fastfood/internal/license"
	"fastfood/internal/order"
	"fastfood/internal/stock"
)

// Deps are the services the HTTP surface is built on
type Deps struct {
	Orders   *order.Service
	Ledger   *stock.Ledger
	Warnings *stock.Warnings
	Licenses *license.Service
	Auth     *auth.Issuer
	Feed     *KitchenFeed
	Logger   *zap.Logger
}

// Server is the point-of-sale HTTP API
type Server struct {
	router   *gin.Engine
	orders   *order.Service
	ledger   *stock.Ledger
	warnings *stock.Warnings
	licenses *license.Service
	auth     *auth.Issuer
	feed     *KitchenFeed
	logger   *zap.Logger
}

// NewServer creates a new API server instance
func NewServer(d Deps) *Server {
	s := &Server{
		router:   gin.Default(),
		orders:   d.Orders,
		ledger:   d.Ledger,
		warnings: d.Warnings,
		licenses: d.Licenses,
		auth:     d.Auth,
		feed:     d.Feed,
		logger:   d.Logger,
	}
	s.setupRoutes()
	return s
}

// Router returns the Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	s.router.Use(s.licenseHeader())

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/ws/kitchen", s.feed.handleWebSocket)

	lic := s.router.Group("/api/license")
	{
		lic.GET("/status", s.licenseStatus)
		lic.POST("/activate", s.activateLicense)
		lic.GET("/machine-id", s.machineID)
	}

	secured := s.router.Group("/api", s.auth.Middleware())

	orders := secured.Group("/orders")
	{
		orders.POST("", s.placeOrder)
		orders.GET("", s.pendingOrders)
		orders.GET("/search", s.searchOrders)
		orders.GET("/:id", s.getOrder)
		orders.PATCH("/:id/status", s.updateOrderStatus)
	}

	st := secured.Group("/stock")
	{
		st.GET("/items", s.listStockItems)
		st.POST("/items", s.createStockItem)
		st.GET("/items/:id", s.getStockItem)
		st.POST("/items/:id/adjust", s.adjustStock)
		st.GET("/items/:id/transactions", s.stockTransactions)

		st.GET("/menu-items/:id/ingredients", s.ingredients)
		st.POST("/menu-items/:id/ingredients", s.saveIngredients)

		st.GET("/warnings", s.activeWarnings)
		st.POST("/warnings/:id/acknowledge", s.acknowledgeWarning)
		st.POST("/warnings/acknowledge-all", s.acknowledgeAllWarnings)
		st.POST("/warnings/check-now", s.checkWarnings)
		st.GET("/warnings/config", s.warningConfig)
		st.PUT("/warnings/config", s.updateWarningConfig)
	}

	admin := secured.Group("/admin")
	{
		admin.POST("/licenses", s.createLicense)
	}
}

// respondError maps the error taxonomy onto HTTP status codes
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, core.ErrInvalidOperation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// paramID parses a positive numeric path parameter, answering 400 otherwise
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
