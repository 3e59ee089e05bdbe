package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records counters for the webhook/materialization pipeline.
type PaymentMetrics struct {
	webhooks   *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	orders     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment pipeline metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Webhook deliveries received, by provider and outcome.",
	}, []string{"provider", "outcome"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_duplicates_total",
		Help: "Webhook deliveries dropped as replays.",
	}, []string{"provider"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_materialized_total",
		Help: "Orders created from payment events, by provider.",
	}, []string{"provider"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_event_processing_seconds",
		Help:    "Time spent materializing a payment event.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	reg.MustRegister(webhooks, duplicates, orders, duration)
	return &PaymentMetrics{
		webhooks:   webhooks,
		duplicates: duplicates,
		orders:     orders,
		duration:   duration,
	}
}

// IncWebhook counts a webhook delivery with the given outcome.
func (m *PaymentMetrics) IncWebhook(provider, outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// IncDuplicate counts a webhook delivery dropped as a replay.
func (m *PaymentMetrics) IncDuplicate(provider string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncOrderMaterialized counts a successfully materialized order.
func (m *PaymentMetrics) IncOrderMaterialized(provider string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(provider)).Inc()
}

// ObserveProcessing records the materialization duration for a payment event.
func (m *PaymentMetrics) ObserveProcessing(provider string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
