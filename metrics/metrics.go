// Package metrics holds the Prometheus collectors for tradelock. Every
// method is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradelock"

type Metrics struct {
	reg *prometheus.Registry

	TradesAdded      prometheus.Counter
	LossesRecorded   prometheus.Counter
	DayLocks         prometheus.Counter
	LocksExpired     prometheus.Counter
	PledgesConfirmed prometheus.Counter
	Violations       *prometheus.CounterVec

	AIRequests *prometheus.CounterVec
	AIDuration *prometheus.HistogramVec
	AIBreaker  *prometheus.GaugeVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New builds the collectors on a private registry, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		TradesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_added_total",
			Help:      "Trade rows added to the journal",
		}),
		LossesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "losses_recorded_total",
			Help:      "Losses confirmed through the disclosure gate",
		}),
		DayLocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "day_locks_total",
			Help:      "Days locked after reaching the loss limit",
		}),
		LocksExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "locks_expired_total",
			Help:      "Stale lock records purged by the sweep",
		}),
		PledgesConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pledges_confirmed_total",
			Help:      "Pledges typed correctly after a locked day",
		}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Rejected actions by violation code",
		}, []string{"code"}),

		AIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "AI collaborator calls by operation and result",
		}, []string{"op", "result"}),
		AIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Latency of completion backend calls",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"backend"}),
		AIBreaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ai_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"name"}),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP API requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TradesAdded, m.LossesRecorded, m.DayLocks, m.LocksExpired,
		m.PledgesConfirmed, m.Violations,
		m.AIRequests, m.AIDuration, m.AIBreaker,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) TradeAdded() {
	if m != nil {
		m.TradesAdded.Inc()
	}
}

func (m *Metrics) LossRecorded() {
	if m != nil {
		m.LossesRecorded.Inc()
	}
}

func (m *Metrics) DayLocked() {
	if m != nil {
		m.DayLocks.Inc()
	}
}

func (m *Metrics) LocksSwept(n int) {
	if m != nil && n > 0 {
		m.LocksExpired.Add(float64(n))
	}
}

func (m *Metrics) PledgeConfirmed() {
	if m != nil {
		m.PledgesConfirmed.Inc()
	}
}

func (m *Metrics) Violation(code string) {
	if m != nil {
		m.Violations.WithLabelValues(code).Inc()
	}
}

// AIRequest counts one AI operation; result is ok, cached, error or fallback.
func (m *Metrics) AIRequest(op, result string) {
	if m != nil {
		m.AIRequests.WithLabelValues(op, result).Inc()
	}
}

func (m *Metrics) AILatency(backend string, d time.Duration) {
	if m != nil {
		m.AIDuration.WithLabelValues(backend).Observe(d.Seconds())
	}
}

func (m *Metrics) BreakerState(name string, state int) {
	if m != nil {
		m.AIBreaker.WithLabelValues(name).Set(float64(state))
	}
}

func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
