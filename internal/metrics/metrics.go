// Package metrics exposes Prometheus counters for HTTP traffic and for the
// outcomes of the authentication and authorization gates.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gate outcome labels.
const (
	OutcomeOK            = "ok"
	OutcomeUnauthorized  = "unauthorized"
	OutcomeRevoked       = "revoked"
	OutcomeInvalidToken  = "invalid_token"
	OutcomeRoleForbidden = "role_forbidden"
)

// Metrics owns its own registry so tests can build as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	authOutcomes        *prometheus.CounterVec
	roleOutcomes        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		authOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_gate_outcomes_total",
				Help: "Authentication gate decisions by outcome.",
			},
			[]string{"outcome"},
		),
		roleOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "role_gate_outcomes_total",
				Help: "Authorization gate decisions by outcome.",
			},
			[]string{"outcome"},
		),
	}
	m.reg.MustRegister(m.httpRequestsTotal, m.httpRequestDuration, m.authOutcomes, m.roleOutcomes)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// AuthOutcome counts one authentication gate decision.  Safe on a nil receiver.
func (m *Metrics) AuthOutcome(outcome string) {
	if m == nil {
		return
	}
	m.authOutcomes.WithLabelValues(outcome).Inc()
}

// RoleOutcome counts one authorization gate decision.  Safe on a nil receiver.
func (m *Metrics) RoleOutcome(outcome string) {
	if m == nil {
		return
	}
	m.roleOutcomes.WithLabelValues(outcome).Inc()
}

// Middleware records request counts and latency labelled by route pattern,
// so /characters/:id stays one series.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(interface{ Status() int }); ok {
					status = he.Status()
				} else if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			m.httpRequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			m.httpRequestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			return err
		}
	}
}
