package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics tracks checkout and key disclosure activity.
type StorefrontMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	ordersTotal      *prometheus.CounterVec
	revealsTotal     prometheus.Counter
	revealFailures   *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout executions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	ordersTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_total",
		Help: "Orders created, labelled by final status.",
	}, []string{"status"})
	revealsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "key_reveals_total",
		Help: "License keys irreversibly revealed to buyers.",
	})
	revealFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "key_reveal_failures_total",
		Help: "Reveal attempts rejected, labelled by reason.",
	}, []string{"reason"})
	reg.MustRegister(checkoutDuration, ordersTotal, revealsTotal, revealFailures)
	return &StorefrontMetrics{
		checkoutDuration: checkoutDuration,
		ordersTotal:      ordersTotal,
		revealsTotal:     revealsTotal,
		revealFailures:   revealFailures,
	}
}

// ObserveCheckout records how long a checkout took for the given payment method.
func (s *StorefrontMetrics) ObserveCheckout(method string, duration time.Duration) {
	if s == nil || s.checkoutDuration == nil {
		return
	}
	s.checkoutDuration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncOrder counts an order reaching the supplied status.
func (s *StorefrontMetrics) IncOrder(status string) {
	if s == nil || s.ordersTotal == nil {
		return
	}
	s.ordersTotal.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncReveal counts a confirmed key reveal.
func (s *StorefrontMetrics) IncReveal() {
	if s == nil || s.revealsTotal == nil {
		return
	}
	s.revealsTotal.Inc()
}

// IncRevealFailure counts a rejected reveal attempt.
func (s *StorefrontMetrics) IncRevealFailure(reason string) {
	if s == nil || s.revealFailures == nil {
		return
	}
	s.revealFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}
