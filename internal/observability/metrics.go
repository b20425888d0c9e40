// Package observability provides Prometheus metrics and health endpoints.
package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Login results.
const (
	LoginSuccess = "success"
	LoginInvalid = "invalid"
	LoginError   = "error"
)

// Metrics holds the application's custom collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	LoginAttempts      *prometheus.CounterVec
	GateDenials        *prometheus.CounterVec
	TeamLookupFailures prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsboard_login_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		GateDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsboard_gate_denials_total",
				Help: "Requests to protected pages turned away, by reason",
			},
			[]string{"reason"},
		),
		TeamLookupFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "statsboard_team_lookup_failures_total",
				Help: "Team lookups that degraded to an empty list",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statsboard_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(m.LoginAttempts, m.GateDenials, m.TeamLookupFailures, m.HTTPRequests)
	return m
}

func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordGateDenial(reason string) {
	if m == nil {
		return
	}
	m.GateDenials.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordTeamLookupFailure() {
	if m == nil {
		return
	}
	m.TeamLookupFailures.Inc()
}

func (m *Metrics) RecordRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
