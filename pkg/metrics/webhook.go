package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics counts processor notification outcomes per branch so forgery
// attempts and stale notifications are visible without log scraping.
type WebhookMetrics struct {
	outcomes *prometheus.CounterVec
}

// Webhook outcome labels.
const (
	WebhookOutcomeProcessed        = "processed"
	WebhookOutcomeMissingSignature = "missing_signature"
	WebhookOutcomeInvalidSignature = "invalid_signature"
	WebhookOutcomeMalformedPayload = "malformed_payload"
	WebhookOutcomeUnknownPayment   = "unknown_payment"
	WebhookOutcomeError            = "error"
)

// NewWebhookMetrics registers webhook outcome counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_notifications_total",
		Help: "Processor webhook notifications by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(outcomes)
	return &WebhookMetrics{outcomes: outcomes}
}

// IncOutcome increments the counter for the given outcome label.
func (w *WebhookMetrics) IncOutcome(outcome string) {
	if w == nil || w.outcomes == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	w.outcomes.WithLabelValues(outcome).Inc()
}
