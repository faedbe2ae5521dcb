package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fastfood/internal/auth"
	"fastfood/internal/core"
	"fastfood/internal/dbtest"
	"fastfood/internal/license"
	"fastfood/internal/models"
	"fastfood/internal/monitoring"
	"fastfood/internal/order"
	"fastfood/internal/stock"
)

type testEnv struct {
	db     *gorm.DB
	clock  *core.FixedClock
	server *Server
	feed   *KitchenFeed
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	clock := &core.FixedClock{T: dbtest.Epoch}
	logger := zap.NewNop()
	metrics := monitoring.NewMetrics()

	ledger := stock.NewLedger(db, clock, logger, metrics)
	warnings := stock.NewWarnings(db, clock, logger)
	feed := NewKitchenFeed(logger)
	orders := order.NewService(db, order.Hooks{Stock: ledger, Warnings: warnings, Notifier: feed}, clock, logger, metrics)
	licenses := license.NewService(db, license.NewIdentity(db, "till-01", nil, logger), clock, logger, metrics)

	issuer, err := auth.NewIssuer("test-secret", time.Hour, clock)
	require.NoError(t, err)
	token, err := issuer.Issue("cashier")
	require.NoError(t, err)

	server := NewServer(Deps{
		Orders:   orders,
		Ledger:   ledger,
		Warnings: warnings,
		Licenses: licenses,
		Auth:     issuer,
		Feed:     feed,
		Logger:   logger,
	})
	t.Cleanup(feed.Close)
	return &testEnv{db: db, clock: clock, server: server, feed: feed, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	env.server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(LicenseStatusHeader))
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/orders", "/api/stock/items", "/api/stock/warnings"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		env.server.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	branch := dbtest.Branch(t, env.db)
	burger := dbtest.MenuItem(t, env.db, "Burger", "250.00")

	w := env.do(t, "POST", "/api/orders", gin.H{
		"branchId":      branch.ID,
		"orderType":     "TAKEAWAY",
		"paymentMethod": "CASH_ON_SPOT",
		"items":         []gin.H{{"menuItemId": burger.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "INVALID", w.Header().Get(LicenseStatusHeader))

	var placed order.Response
	decode(t, w, &placed)
	assert.True(t, dbtest.Dec("500").Equal(placed.TotalAmount))
	require.Len(t, placed.Items, 1)

	w = env.do(t, "GET", fmt.Sprintf("/api/orders/%d", placed.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched order.Response
	decode(t, w, &fetched)
	assert.Equal(t, placed.OrderNumber, fetched.OrderNumber)

	w = env.do(t, "GET", "/api/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []order.Response
	decode(t, w, &pending)
	assert.Len(t, pending, 1)

	w = env.do(t, "PATCH", fmt.Sprintf("/api/orders/%d/status", placed.ID), gin.H{"status": "PREPARING"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, "PATCH", fmt.Sprintf("/api/orders/%d/status", placed.ID), gin.H{"status": "COMPLETED"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, "GET", "/api/orders/search?customerName=&startDate=2025-03-10&endDate=2025-03-10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page order.Page
	decode(t, w, &page)
	assert.Equal(t, 1, page.Total)

	w = env.do(t, "GET", "/api/orders/search?startDate=10-03-2025", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "GET", "/api/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "GET", "/api/orders/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlaceOrderErrors(t *testing.T) {
	env := newTestEnv(t)
	branch := dbtest.Branch(t, env.db)

	w := env.do(t, "POST", "/api/orders", gin.H{
		"branchId":      branch.ID,
		"orderType":     "TAKEAWAY",
		"paymentMethod": "CASH_ON_SPOT",
		"items":         []gin.H{{"menuItemId": 404, "quantity": 1}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "POST", "/api/orders", gin.H{
		"branchId":      branch.ID,
		"orderType":     "DRIVE_THRU",
		"paymentMethod": "CASH_ON_SPOT",
		"items":         []gin.H{{"menuItemId": 1, "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, "POST", "/api/orders", gin.H{"orderType": "TAKEAWAY"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLicenseFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/license/machine-id", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "till-01")

	w = env.do(t, "GET", "/api/license/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st license.Status
	decode(t, w, &st)
	assert.False(t, st.IsActivated)

	w = env.do(t, "POST", "/api/admin/licenses", gin.H{"licenseType": "ANNUAL", "clientName": "Cafe"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		LicenseKey string `json:"licenseKey"`
	}
	decode(t, w, &created)
	require.NotEmpty(t, created.LicenseKey)

	w = env.do(t, "POST", "/api/license/activate", gin.H{"licenseKey": "BAD0-BAD0-BAD0-BAD0"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "POST", "/api/license/activate", gin.H{"licenseKey": strings.ToLower(created.LicenseKey)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &st)
	assert.True(t, st.IsValid)
	assert.Equal(t, int64(365), st.DaysRemaining)

	w = env.do(t, "POST", "/api/license/activate", gin.H{"licenseKey": created.LicenseKey})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, "GET", "/api/stock/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "VALID", w.Header().Get(LicenseStatusHeader))
}

func TestStockEndpoints(t *testing.T) {
	env := newTestEnv(t)
	burger := dbtest.MenuItem(t, env.db, "Burger", "250.00")

	w := env.do(t, "POST", "/api/stock/items", gin.H{
		"nameEn": "Buns", "unit": "piece", "currentQuantity": 5, "minThreshold": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item models.StockItem
	decode(t, w, &item)

	itemPath := fmt.Sprintf("/api/stock/items/%d", item.ID)

	w = env.do(t, "POST", itemPath+"/adjust", gin.H{"quantity": -6, "notes": "recount"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, "POST", itemPath+"/adjust", gin.H{"quantity": "20", "type": "PURCHASE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, "POST", itemPath+"/adjust", gin.H{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "GET", itemPath+"/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txns []models.StockTransaction
	decode(t, w, &txns)
	require.Len(t, txns, 1)
	assert.True(t, dbtest.Dec("25").Equal(txns[0].NewQuantity))

	ingPath := fmt.Sprintf("/api/stock/menu-items/%d/ingredients", burger.ID)
	w = env.do(t, "POST", ingPath, []gin.H{
		{"stockItemId": item.ID, "quantityRequired": 1},
		{"stockItemId": item.ID, "quantityRequired": 2},
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, "POST", ingPath, []gin.H{{"stockItemId": item.ID, "quantityRequired": 1}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, "GET", ingPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ings []models.MenuItemIngredient
	decode(t, w, &ings)
	require.Len(t, ings, 1)
	assert.Equal(t, "Buns", ings[0].StockItem.NameEn)

	w = env.do(t, "GET", "/api/stock/items/777", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWarningEndpoints(t *testing.T) {
	env := newTestEnv(t)
	dbtest.StockItem(t, env.db, "Buns", "2", "10")

	w := env.do(t, "POST", "/api/stock/warnings/check-now", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var views []stock.WarningView
	decode(t, w, &views)
	require.Len(t, views, 1)

	w = env.do(t, "GET", "/api/stock/warnings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &views)
	require.Len(t, views, 1)

	ackPath := fmt.Sprintf("/api/stock/warnings/%d/acknowledge", views[0].ID)
	w = env.do(t, "POST", ackPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, "POST", ackPath, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var acked models.StockWarning
	require.NoError(t, env.db.First(&acked, views[0].ID).Error)
	assert.Equal(t, "cashier", acked.AcknowledgedBy)

	w = env.do(t, "POST", "/api/stock/warnings/acknowledge-all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"acknowledged":0}`, w.Body.String())

	w = env.do(t, "PUT", "/api/stock/warnings/config", gin.H{"intervalHours": 0, "alertsEnabled": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "PUT", "/api/stock/warnings/config", gin.H{"intervalHours": 6, "alertsEnabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"intervalHours":6,"alertsEnabled":false}`, w.Body.String())

	w = env.do(t, "POST", "/api/stock/warnings/check-now", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestKitchenFeedBroadcastsPlacedOrders(t *testing.T) {
	env := newTestEnv(t)
	branch := dbtest.Branch(t, env.db)
	fries := dbtest.MenuItem(t, env.db, "Fries", "120.00")

	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/kitchen", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.feed.Clients() == 1 }, time.Second, 10*time.Millisecond)

	w := env.do(t, "POST", "/api/orders", gin.H{
		"branchId":      branch.ID,
		"orderType":     "TABLE_PICKUP",
		"tableNumber":   "4",
		"paymentMethod": "CASH_ON_SPOT",
		"items":         []gin.H{{"menuItemId": fries.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event order.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, order.EventPlaced, event.Type)
	require.NotNil(t, event.Order)
	assert.Equal(t, "4", event.Order.TableNumber)
}
