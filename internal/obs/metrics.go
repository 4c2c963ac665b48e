// Package obs exposes the ledger's Prometheus metrics.
package obs

import (
	"net/http"
	"strconv"
	"time"

	"finance/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the ledger collectors on a private registry so that several
// ledgers (and tests) never collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	recorded  *prometheus.CounterVec
	rejected  prometheus.Counter
	balance   prometheus.Gauge
	exports   *prometheus.CounterVec
	published *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_transactions_recorded_total",
				Help: "Transactions appended to the ledger.",
			},
			[]string{"kind"},
		),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finance_withdrawals_rejected_total",
			Help: "Withdrawals rejected for insufficient funds.",
		}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "finance_balance_cents",
			Help: "Current ledger balance in cents.",
		}),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_report_exports_total",
				Help: "Report exports by outcome.",
			},
			[]string{"status"},
		),
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finance_events_published_total",
				Help: "Transaction events handed to the broker, by outcome.",
			},
			[]string{"status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	m.registry.MustRegister(m.recorded, m.rejected, m.balance, m.exports, m.published,
		m.httpRequests, m.httpDuration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) TransactionRecorded(kind core.Kind, balance core.Money) {
	m.recorded.WithLabelValues(kind.String()).Inc()
	m.balance.Set(float64(balance.Cents))
}

func (m *Metrics) WithdrawalRejected() {
	m.rejected.Inc()
}

func (m *Metrics) ExportFinished(err error) {
	m.exports.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) EventPublished(err error) {
	m.published.WithLabelValues(status(err)).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
