package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements Collector on a dedicated registry.
type PrometheusCollector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	transactionsWritten *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	circuitOpens *prometheus.CounterVec
	circuitState *prometheus.GaugeVec

	mirrorSyncs   *prometheus.CounterVec
	mirrorLatency *prometheus.HistogramVec
}

// NewPrometheusCollector creates the collectors and registers them, together
// with the Go runtime and process collectors, on a fresh registry.
func NewPrometheusCollector(namespace string) (*PrometheusCollector, error) {
	pc := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		transactionsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_written_total",
				Help:      "Transactions created, updated or deleted",
			},
			[]string{"operation"},
		),
		eventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Transaction events published by action and status",
			},
			[]string{"action", "status"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Cache hits per cache",
			},
			[]string{"cache"},
		),
		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Cache misses per cache",
			},
			[]string{"cache"},
		),
		circuitOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_opens_total",
				Help:      "Times a circuit breaker opened",
			},
			[]string{"name"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		mirrorSyncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mirror_syncs_total",
				Help:      "Spreadsheet mirror operations by kind and status",
			},
			[]string{"operation", "status"},
		),
		mirrorLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mirror_sync_duration_seconds",
				Help:      "Spreadsheet mirror operation latency",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"operation"},
		),
	}

	all := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		pc.httpRequests,
		pc.httpLatency,
		pc.transactionsWritten,
		pc.eventsPublished,
		pc.cacheHits,
		pc.cacheMisses,
		pc.circuitOpens,
		pc.circuitState,
		pc.mirrorSyncs,
		pc.mirrorLatency,
	}
	for _, c := range all {
		if err := pc.registry.Register(c); err != nil {
			return nil, err
		}
	}

	return pc, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (pc *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{Registry: pc.registry})
}

func (pc *PrometheusCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	pc.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	pc.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (pc *PrometheusCollector) RecordTransactionWritten(operation string) {
	pc.transactionsWritten.WithLabelValues(operation).Inc()
}

func (pc *PrometheusCollector) RecordEventPublished(action string, success bool) {
	pc.eventsPublished.WithLabelValues(action, status(success)).Inc()
}

func (pc *PrometheusCollector) RecordCacheLookup(cache string, hit bool) {
	if hit {
		pc.cacheHits.WithLabelValues(cache).Inc()
		return
	}
	pc.cacheMisses.WithLabelValues(cache).Inc()
}

func (pc *PrometheusCollector) RecordCircuitState(name string, state CircuitState) {
	pc.circuitState.WithLabelValues(name).Set(float64(state))
	if state == CircuitOpen {
		pc.circuitOpens.WithLabelValues(name).Inc()
	}
}

func (pc *PrometheusCollector) RecordMirrorSync(operation string, success bool, duration time.Duration) {
	pc.mirrorSyncs.WithLabelValues(operation, status(success)).Inc()
	pc.mirrorLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
