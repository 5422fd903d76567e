package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil
// *Metrics is valid and records nothing, so library code can run
// without a registry (tests, one-shot CLI).
type Metrics struct {
	PagesFetched  *prometheus.CounterVec
	FetchErrors   *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	PagesByLabel  *prometheus.CounterVec
	RecordsOut    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		PagesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_pages_fetched_total",
			Help: "The total number of pages fetched",
		}, []string{"origin"}),
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_fetch_errors_total",
			Help: "The total number of fetch failures by kind",
		}, []string{"kind"}),
		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_seconds",
			Help:    "Time spent rendering a single page",
			Buckets: prometheus.DefBuckets,
		}, []string{"origin"}),
		PagesByLabel: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_pages_classified_total",
			Help: "Pages classified, by label",
		}, []string{"label"}),
		RecordsOut: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_records_emitted_total",
			Help: "Merged records emitted, by match outcome",
		}, []string{"matched"}),
	}
}

func (m *Metrics) IncFetched(origin string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(origin).Inc()
}

func (m *Metrics) IncFetchError(kind string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveFetch(origin string, seconds float64) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(origin).Observe(seconds)
}

func (m *Metrics) IncClassified(label string) {
	if m == nil {
		return
	}
	m.PagesByLabel.WithLabelValues(label).Inc()
}

func (m *Metrics) IncEmitted(matched bool) {
	if m == nil {
		return
	}
	v := "no"
	if matched {
		v = "yes"
	}
	m.RecordsOut.WithLabelValues(v).Inc()
}
