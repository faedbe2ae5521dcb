package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Metrics collects point-of-sale metrics on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	ordersPlaced      *prometheus.CounterVec
	orderRevenue      prometheus.Counter
	voucherDiscount   prometheus.Counter
	vouchersRejected  *prometheus.CounterVec
	stockClamped      prometheus.Counter
	hookFailures      *prometheus.CounterVec
	licenseChecks     *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	startTime         time.Time
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_orders_placed_total",
				Help: "Orders committed, by order type",
			},
			[]string{"order_type"},
		),
		orderRevenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_order_revenue_total",
			Help: "Sum of order totals after discount",
		}),
		voucherDiscount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_voucher_discount_total",
			Help: "Sum of voucher discounts granted",
		}),
		vouchersRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_vouchers_rejected_total",
				Help: "Voucher codes absorbed into a zero discount, by reason",
			},
			[]string{"reason"},
		),
		stockClamped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_stock_clamped_total",
			Help: "Sale deductions clamped at zero quantity",
		}),
		hookFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_hook_failures_total",
				Help: "Post-commit order hooks that failed, by hook",
			},
			[]string{"hook"},
		),
		licenseChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_license_checks_total",
				Help: "License validity checks, by result",
			},
			[]string{"result"},
		),
		statusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_order_status_transitions_total",
				Help: "Order status changes, by target status",
			},
			[]string{"to"},
		),
		startTime: time.Now(),
	}

	uptime := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pos_uptime_seconds",
		Help: "Seconds since the process started",
	}, func() float64 {
		return time.Since(m.startTime).Seconds()
	})

	m.registry.MustRegister(
		m.ordersPlaced,
		m.orderRevenue,
		m.voucherDiscount,
		m.vouchersRejected,
		m.stockClamped,
		m.hookFailures,
		m.licenseChecks,
		m.statusTransitions,
		uptime,
	)
	return m
}

// Registry returns the registry backing the metrics endpoint
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// OrderPlaced records a committed order
func (m *Metrics) OrderPlaced(orderType string, total, discount decimal.Decimal) {
	if m == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(orderType).Inc()
	m.orderRevenue.Add(total.InexactFloat64())
	if discount.IsPositive() {
		m.voucherDiscount.Add(discount.InexactFloat64())
	}
}

// VoucherRejected records a voucher absorbed into a zero discount
func (m *Metrics) VoucherRejected(reason string) {
	if m == nil {
		return
	}
	m.vouchersRejected.WithLabelValues(reason).Inc()
}

// StockClamped records a sale deduction floored at zero
func (m *Metrics) StockClamped() {
	if m == nil {
		return
	}
	m.stockClamped.Inc()
}

// HookFailed records a failed post-commit hook
func (m *Metrics) HookFailed(hook string) {
	if m == nil {
		return
	}
	m.hookFailures.WithLabelValues(hook).Inc()
}

// LicenseChecked records the outcome of a validity check
func (m *Metrics) LicenseChecked(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.licenseChecks.WithLabelValues(result).Inc()
}

// StatusChanged records an order status transition
func (m *Metrics) StatusChanged(to string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(to).Inc()
}
