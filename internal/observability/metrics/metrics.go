package metrics

import "github.com/prometheus/client_golang/prometheus"

// Extraction outcomes recorded by ObserveRequest.
const (
	OutcomeAccepted        = "accepted"
	OutcomeRejected        = "rejected"
	OutcomeValidationError = "validation_error"
	OutcomeUpstreamError   = "upstream_error"
)

// Completion cache lookup results recorded by ObserveCache.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// ExtractionMetrics exposes counters/histograms for the lead extraction flow.
type ExtractionMetrics struct {
	requestsTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	cacheTotal      *prometheus.CounterVec
}

func NewExtractionMetrics(reg prometheus.Registerer) *ExtractionMetrics {
	m := &ExtractionMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadextract",
			Subsystem: "extraction",
			Name:      "requests_total",
			Help:      "Total extraction requests by outcome",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadextract",
			Subsystem: "extraction",
			Name:      "upstream_latency_seconds",
			Help:      "Latency of text-generation provider calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"model", "status"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadextract",
			Subsystem: "extraction",
			Name:      "tokens_total",
			Help:      "Provider tokens consumed",
		}, []string{"model", "direction"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadextract",
			Subsystem: "extraction",
			Name:      "cache_lookups_total",
			Help:      "Completion cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.upstreamLatency, m.tokensTotal, m.cacheTotal)
	return m
}

func (m *ExtractionMetrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

func (m *ExtractionMetrics) ObserveUpstream(model string, ok bool, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.upstreamLatency.WithLabelValues(model, status).Observe(seconds)
}

func (m *ExtractionMetrics) ObserveTokens(model string, input, output int) {
	if m == nil {
		return
	}
	if input > 0 {
		m.tokensTotal.WithLabelValues(model, "input").Add(float64(input))
	}
	if output > 0 {
		m.tokensTotal.WithLabelValues(model, "output").Add(float64(output))
	}
}

// ObserveCache counts one lookup; result is CacheHit, CacheMiss or CacheError.
func (m *ExtractionMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}
