package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fastfood/internal/core"
	"fastfood/internal/dbtest"
	"fastfood/internal/models"
)

func newWarnings(t *testing.T) (*Warnings, *core.FixedClock) {
	t.Helper()
	clock := &core.FixedClock{T: dbtest.Epoch}
	return NewWarnings(dbtest.New(t), clock, zap.NewNop()), clock
}

func countWarnings(t *testing.T, w *Warnings) int {
	t.Helper()
	var n int
	require.NoError(t, w.db.Model(&models.StockWarning{}).Count(&n).Error)
	return n
}

func TestCheckOnOrderAfterClampedSale(t *testing.T) {
	db := dbtest.New(t)
	clock := &core.FixedClock{T: dbtest.Epoch}
	ledger := NewLedger(db, clock, zap.NewNop(), nil)
	warnings := NewWarnings(db, clock, zap.NewNop())

	burger := dbtest.MenuItem(t, db, "Burger", "250.00")
	buns := dbtest.StockItem(t, db, "Buns", "5", "10")
	dbtest.Ingredient(t, db, burger.ID, buns.ID, "1")

	require.NoError(t, ledger.DeductForOrder(menuOrder(1, menuLine(burger.ID, 6))))

	views, err := warnings.CheckOnOrder()
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Low stock alert: Buns has only 0.00 piece remaining (threshold: 10.00 piece)", views[0].WarningMessageEn)
	assert.Contains(t, views[0].WarningMessageUr, "Buns")
	assert.Equal(t, 1, countWarnings(t, warnings))

	active, err := warnings.Active()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, buns.ID, active[0].StockItemID)
	assert.True(t, active[0].CurrentQuantity.IsZero())
}

func TestWarningRegeneratedOnlyAfterInterval(t *testing.T) {
	w, clock := newWarnings(t)
	dbtest.StockItem(t, w.db, "Buns", "3", "10")

	created, err := w.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	clock.Advance(time.Hour)
	created, err = w.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	clock.Advance(90 * time.Minute)
	created, err = w.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, countWarnings(t, w))

	active, err := w.Active()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, clock.T.Equal(*active[0].CreatedAt))
}

func TestSweepIgnoresHealthyAndInactiveItems(t *testing.T) {
	w, _ := newWarnings(t)
	dbtest.StockItem(t, w.db, "Flour", "50", "10")
	inactive := dbtest.StockItem(t, w.db, "Old Sauce", "0", "5")
	require.NoError(t, w.db.Model(&inactive).Update("is_active", false).Error)

	created, err := w.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestAlertsDisabled(t *testing.T) {
	w, _ := newWarnings(t)
	dbtest.StockItem(t, w.db, "Buns", "0", "10")
	require.NoError(t, w.SetConfig(WarningConfig{IntervalHours: 4, AlertsEnabled: false}))

	cfg := w.Config()
	assert.Equal(t, 4, cfg.IntervalHours)
	assert.False(t, cfg.AlertsEnabled)

	views, err := w.CheckOnOrder()
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Equal(t, 0, countWarnings(t, w))
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	w, _ := newWarnings(t)

	cfg := w.Config()
	assert.Equal(t, DefaultWarningIntervalHours, cfg.IntervalHours)
	assert.True(t, cfg.AlertsEnabled)

	assert.ErrorIs(t, w.SetConfig(WarningConfig{IntervalHours: 0}), core.ErrValidation)

	require.NoError(t, w.SetConfig(WarningConfig{IntervalHours: 6, AlertsEnabled: true}))
	require.NoError(t, w.SetConfig(WarningConfig{IntervalHours: 8, AlertsEnabled: true}))
	assert.Equal(t, 8, w.Config().IntervalHours)
}

func TestAcknowledge(t *testing.T) {
	w, _ := newWarnings(t)
	dbtest.StockItem(t, w.db, "Buns", "0", "10")
	dbtest.StockItem(t, w.db, "Cheese", "1", "2")
	_, err := w.Sweep()
	require.NoError(t, err)

	active, err := w.Active()
	require.NoError(t, err)
	require.Len(t, active, 2)

	require.NoError(t, w.Acknowledge(active[0].ID, "manager"))
	assert.ErrorIs(t, w.Acknowledge(active[0].ID, "manager"), core.ErrConflict)
	assert.ErrorIs(t, w.Acknowledge(9999, "manager"), core.ErrNotFound)

	var acked models.StockWarning
	require.NoError(t, w.db.First(&acked, active[0].ID).Error)
	assert.True(t, acked.IsAcknowledged)
	assert.Equal(t, "manager", acked.AcknowledgedBy)
	require.NotNil(t, acked.AcknowledgedAt)

	n, err := w.AcknowledgeAll("manager")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, err = w.Active()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUrduMessageFallsBackToEnglishName(t *testing.T) {
	item := &models.StockItem{NameEn: "Buns", Unit: "piece", CurrentQuantity: dbtest.Dec("2"), MinThreshold: dbtest.Dec("10")}

	assert.Contains(t, messageUr(item), "Buns")
	assert.Contains(t, messageUr(item), "2.00")
}
