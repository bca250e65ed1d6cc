package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics makes best-effort bookkeeping failures observable. Writes
// that are swallowed after the customer reached the payment page (order insert,
// usage increment, settlement updates) drift the local store away from
// Stripe's view; operators alert on these counters.
type SettlementMetrics struct {
	bookkeepingFailures *prometheus.CounterVec
	eventsSettled       *prometheus.CounterVec
	ordersRecovered     prometheus.Counter
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	bookkeepingFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookkeeping_write_failures_total",
		Help: "Best-effort writes that failed and were swallowed, by operation.",
	}, []string{"operation"})
	eventsSettled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_settled_total",
		Help: "Stripe webhook events processed, by event type.",
	}, []string{"event_type"})
	ordersRecovered := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_recovered_from_metadata_total",
		Help: "Paid orders reconstructed from session metadata because no pending row existed.",
	})
	reg.MustRegister(bookkeepingFailures, eventsSettled, ordersRecovered)
	return &SettlementMetrics{
		bookkeepingFailures: bookkeepingFailures,
		eventsSettled:       eventsSettled,
		ordersRecovered:     ordersRecovered,
	}
}

// IncBookkeepingFailure records a swallowed best-effort write failure.
func (m *SettlementMetrics) IncBookkeepingFailure(operation string) {
	if m == nil || m.bookkeepingFailures == nil {
		return
	}
	m.bookkeepingFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncEventSettled records a processed webhook event.
func (m *SettlementMetrics) IncEventSettled(eventType string) {
	if m == nil || m.eventsSettled == nil {
		return
	}
	m.eventsSettled.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncOrderRecovered records an order rebuilt from metadata at settlement time.
func (m *SettlementMetrics) IncOrderRecovered() {
	if m == nil || m.ordersRecovered == nil {
		return
	}
	m.ordersRecovered.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
