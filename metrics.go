package sessionguard

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names emitted by the interceptor and the API client.
const (
	MetricCredentialsAttached = "sessionguard_credentials_attached_total"
	MetricSessionResets       = "sessionguard_session_resets_total"
	MetricLoginRedirects      = "sessionguard_login_redirects_total"
	MetricRequestDuration     = "sessionguard_api_request_duration_seconds"
	MetricSessionActive       = "sessionguard_session_active"
)

// Metrics is a generic metrics interface for the interceptor and client.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
	SetGauge(name string, value float64, tags map[string]string)
}

// NoopMetrics is a default metrics implementation that does nothing.
type NoopMetrics struct{}

func (m *NoopMetrics) IncCounter(name string, tags map[string]string)                      {}
func (m *NoopMetrics) ObserveHistogram(name string, value float64, tags map[string]string) {}
func (m *NoopMetrics) SetGauge(name string, value float64, tags map[string]string)         {}

// PrometheusMetrics implements Metrics on a Prometheus registerer. A vector
// is registered the first time its name is used; the label names of a metric
// are fixed by that first call.
type PrometheusMetrics struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	collectors map[string]prometheus.Collector
}

// requestDurationBuckets spans fast responses up to DefaultTimeout.
var requestDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20}

var metricHelp = map[string]string{
	MetricCredentialsAttached: "Resource requests sent with the stored token.",
	MetricSessionResets:       "Sessions cleared after the API rejected the token.",
	MetricLoginRedirects:      "Navigations to the login page caused by a rejected token.",
	MetricRequestDuration:     "Duration of resource requests to the API.",
	MetricSessionActive:       "1 while a session is stored, 0 otherwise.",
}

// NewPrometheusMetrics returns Metrics that register on registerer.
// A nil registerer means prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &PrometheusMetrics{
		registerer: registerer,
		collectors: make(map[string]prometheus.Collector),
	}
}

func (m *PrometheusMetrics) IncCounter(name string, tags map[string]string) {
	vec := collector(m, name, func() *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help(name)}, keys(tags))
	})
	vec.With(tags).Inc()
}

func (m *PrometheusMetrics) ObserveHistogram(name string, value float64, tags map[string]string) {
	vec := collector(m, name, func() *prometheus.HistogramVec {
		opts := prometheus.HistogramOpts{Name: name, Help: help(name)}
		if name == MetricRequestDuration {
			opts.Buckets = requestDurationBuckets
		}
		return prometheus.NewHistogramVec(opts, keys(tags))
	})
	vec.With(tags).Observe(value)
}

func (m *PrometheusMetrics) SetGauge(name string, value float64, tags map[string]string) {
	vec := collector(m, name, func() *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help(name)}, keys(tags))
	})
	vec.With(tags).Set(value)
}

// collector returns the vector registered under name, building and
// registering it on first use. Using one name for two metric kinds panics.
func collector[T prometheus.Collector](m *PrometheusMetrics, name string, build func() T) T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.collectors[name]; ok {
		vec, ok := c.(T)
		if !ok {
			panic(fmt.Sprintf("sessionguard: metric %q already registered as %T", name, c))
		}
		return vec
	}

	vec := build()
	m.registerer.MustRegister(vec)
	m.collectors[name] = vec
	return vec
}

func help(name string) string {
	if h, ok := metricHelp[name]; ok {
		return h
	}
	return name
}

func keys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
