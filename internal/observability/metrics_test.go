// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/planwell/planwell/internal/auth"
)

func TestMetrics_AuthEvent(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.AuthEvent(auth.OpLogin, nil)
	m.AuthEvent(auth.OpLogin, nil)
	m.AuthEvent(auth.OpLogin, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid"))
	m.AuthEvent(auth.OpRefresh, errors.New("plain"))

	assert.InDelta(t, 2, testutil.ToFloat64(m.AuthEventsTotal.WithLabelValues(auth.OpLogin, "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AuthEventsTotal.WithLabelValues(auth.OpLogin, "AUTH_INVALID_CREDENTIALS")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AuthEventsTotal.WithLabelValues(auth.OpRefresh, "UNKNOWN")), 0)
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRequest("GET", "/api/v1/projects/{id}", 404, 5*time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/projects/{id}", "404")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequestDuration))
}

func TestMetrics_TokenReuse(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RefreshTokenReuse()
	assert.InDelta(t, 1, testutil.ToFloat64(m.TokenReuseTotal), 0)
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
