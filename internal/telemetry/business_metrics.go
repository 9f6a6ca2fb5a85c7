package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Catalog engagement
	ProductViews    *prometheus.CounterVec
	ProductSearches *prometheus.CounterVec

	// Cart
	CartUpdated    *prometheus.CounterVec
	CartItemsAdded prometheus.Counter
	CartCleared    *prometheus.CounterVec

	// Shipping
	ShippingQuotes *prometheus.CounterVec

	// Checkout funnel
	CheckoutStarted  prometheus.Counter
	StockAdjustments prometheus.Counter
	OrdersCreated    prometheus.Counter
	OrderValue       prometheus.Histogram
	OrderItemCount   prometheus.Histogram

	// Payments
	PaymentSessionsStarted prometheus.Counter
	PaymentSessionsFailed  prometheus.Counter
	OrderTransitions       *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "lojinha"
	}

	subsystem := "business"

	return &BusinessMetrics{
		ProductViews: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_views_total",
				Help:      "Total product detail page views",
			},
			[]string{"product_slug"},
		),
		ProductSearches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_searches_total",
				Help:      "Total product list page views",
			},
			[]string{"filtered"}, // filtered: yes, no
		),

		CartUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updated_total",
				Help:      "Total cart update operations",
			},
			[]string{"action"}, // action: add, remove
		),
		CartItemsAdded: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total items added to carts (quantity-aware)",
			},
		),
		CartCleared: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts cleared",
			},
			[]string{"reason"}, // reason: purchase, manual
		),

		ShippingQuotes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "shipping_quotes_total",
				Help:      "Total shipping quote lookups",
			},
			[]string{"known_city"}, // known_city: yes, no
		),

		CheckoutStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total purchase summary page loads",
			},
		),
		StockAdjustments: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_adjustments_total",
				Help:      "Total checkouts where cart quantities were clamped to stock",
			},
		),
		OrdersCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders created",
			},
		),
		OrderValue: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_cents",
				Help:      "Order value distribution in centavos",
				Buckets:   []float64{1000, 2500, 5000, 7500, 10000, 15000, 25000, 50000, 100000},
			},
		),
		OrderItemCount: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Number of items per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 20},
			},
		),

		PaymentSessionsStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_sessions_started_total",
				Help:      "Total hosted checkout sessions created",
			},
		),
		PaymentSessionsFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_sessions_failed_total",
				Help:      "Total hosted checkout session creation failures",
			},
		),
		OrderTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_transitions_total",
				Help:      "Total order status transitions",
			},
			[]string{"to"}, // to: approved, rejected, cancelled
		),
	}
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
