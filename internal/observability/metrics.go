// Package observability provides Prometheus metrics and logging for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// All Record methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Refresh metrics
	RefreshRunsTotal   *prometheus.CounterVec
	RefreshDuration    *prometheus.HistogramVec
	RefreshSkipsTotal  *prometheus.CounterVec
	RefreshApplyErrors *prometheus.CounterVec
	LastRefreshSuccess *prometheus.GaugeVec

	// State metrics
	SliceUpdatesTotal *prometheus.CounterVec
	TokensTracked     prometheus.Gauge
	BridgeMappings    prometheus.Gauge

	// Source metrics
	SourceRequestLatency *prometheus.HistogramVec
	SourceRequestErrors  *prometheus.CounterVec

	// Broadcast metrics
	BroadcastPublished *prometheus.CounterVec
	BroadcastErrors    *prometheus.CounterVec
	WSClients          prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "zilswap_dashboard"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		RefreshRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of refresh fetches by task and status",
		}, []string{"task", "status"}),
		RefreshDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		RefreshSkipsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "skipped_ticks_total",
			Help:      "Ticks skipped because the previous fetch was still running",
		}, []string{"task"}),
		RefreshApplyErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "apply_errors_total",
			Help:      "Errors returned while applying a fetched result",
		}, []string{"task"}),
		LastRefreshSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "last_success_timestamp",
			Help:      "Unix timestamp of the last successful refresh",
		}, []string{"task"}),

		SliceUpdatesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "slice_updates_total",
			Help:      "State slice updates",
		}, []string{"slice"}),
		TokensTracked: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "tokens",
			Help:      "Tokens in the registry",
		}),
		BridgeMappings: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "state",
			Name:      "bridge_mappings",
			Help:      "Known bridge mappings",
		}),

		SourceRequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "request_duration_seconds",
			Help:      "Upstream request latency in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		SourceRequestErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "request_errors_total",
			Help:      "Upstream request errors",
		}, []string{"endpoint"}),

		BroadcastPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "published_total",
			Help:      "Messages published by channel",
		}, []string{"publisher", "channel"}),
		BroadcastErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "errors_total",
			Help:      "Publish errors by publisher",
		}, []string{"publisher"}),
		WSClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "websocket_clients",
			Help:      "Connected WebSocket clients",
		}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Database query errors",
		}, []string{"database", "operation"}),

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a /metrics handler serving the given gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordRefresh records a completed fetch.
func (m *Metrics) RecordRefresh(task string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	} else {
		m.LastRefreshSuccess.WithLabelValues(task).SetToCurrentTime()
	}
	m.RefreshRunsTotal.WithLabelValues(task, status).Inc()
	m.RefreshDuration.WithLabelValues(task).Observe(d.Seconds())
}

// RecordSkip records a skipped tick.
func (m *Metrics) RecordSkip(task string) {
	if m == nil {
		return
	}
	m.RefreshSkipsTotal.WithLabelValues(task).Inc()
}

// RecordApplyError records an error returned by a task's apply step.
func (m *Metrics) RecordApplyError(task string) {
	if m == nil {
		return
	}
	m.RefreshApplyErrors.WithLabelValues(task).Inc()
}

// RecordSliceUpdate records a state slice update.
func (m *Metrics) RecordSliceUpdate(slice string) {
	if m == nil {
		return
	}
	m.SliceUpdatesTotal.WithLabelValues(slice).Inc()
}

// SetStateSizes updates the registry and bridge gauges.
func (m *Metrics) SetStateSizes(tokens, mappings int) {
	if m == nil {
		return
	}
	m.TokensTracked.Set(float64(tokens))
	m.BridgeMappings.Set(float64(mappings))
}

// RecordSourceRequest records upstream request metrics.
func (m *Metrics) RecordSourceRequest(endpoint string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.SourceRequestLatency.WithLabelValues(endpoint).Observe(d.Seconds())
	if err != nil {
		m.SourceRequestErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordPublish records a publish attempt.
func (m *Metrics) RecordPublish(publisher, channel string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.BroadcastErrors.WithLabelValues(publisher).Inc()
		return
	}
	m.BroadcastPublished.WithLabelValues(publisher, channel).Inc()
}

// SetWSClients updates the connected WebSocket clients gauge.
func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(d.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, httpCode(code)).Inc()
}

func httpCode(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
