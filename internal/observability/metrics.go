// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/planwell/planwell/internal/auth"
	"github.com/planwell/planwell/pkg/errutil"
)

// Metrics contains the Planwell application metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	AuthEventsTotal     *prometheus.CounterVec
	TokenReuseTotal     prometheus.Counter
}

// NewMetrics creates and registers the application metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planwell_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "planwell_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planwell_auth_events_total",
				Help: "Total number of auth operations by operation and result code",
			},
			[]string{"operation", "result"},
		),
		TokenReuseTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "planwell_refresh_token_reuse_total",
				Help: "Total number of consumed refresh tokens presented again",
			},
		),
	}

	reg.MustRegister(m.HTTPRequestsTotal)
	reg.MustRegister(m.HTTPRequestDuration)
	reg.MustRegister(m.AuthEventsTotal)
	reg.MustRegister(m.TokenReuseTotal)

	return m
}

// ObserveRequest records one served HTTP request. route is the matched
// route template, never the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// AuthEvent implements auth.Observer. Successful calls count under "ok",
// failures under their error code.
func (m *Metrics) AuthEvent(operation string, err error) {
	result := "ok"
	if err != nil {
		result = errutil.Code(err)
		if result == "" {
			result = "UNKNOWN"
		}
	}
	m.AuthEventsTotal.WithLabelValues(operation, result).Inc()
}

// RefreshTokenReuse implements auth.Observer.
func (m *Metrics) RefreshTokenReuse() {
	m.TokenReuseTotal.Inc()
}

var _ auth.Observer = (*Metrics)(nil)
