package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records payment attempt and order finalization outcomes.
type CheckoutMetrics struct {
	paymentAttempts *prometheus.CounterVec
	finalizations   *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	paymentAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Payment attempts by provider and terminal outcome.",
	}, []string{"provider", "outcome"})
	finalizations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_finalizations_total",
		Help: "Order finalization calls by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(paymentAttempts, finalizations)
	return &CheckoutMetrics{
		paymentAttempts: paymentAttempts,
		finalizations:   finalizations,
	}
}

// IncPaymentAttempt counts one terminal payment outcome for a provider.
func (c *CheckoutMetrics) IncPaymentAttempt(provider, outcome string) {
	if c == nil || c.paymentAttempts == nil {
		return
	}
	c.paymentAttempts.WithLabelValues(provider, outcome).Inc()
}

// IncFinalization counts one finalize call outcome.
func (c *CheckoutMetrics) IncFinalization(outcome string) {
	if c == nil || c.finalizations == nil {
		return
	}
	c.finalizations.WithLabelValues(outcome).Inc()
}
