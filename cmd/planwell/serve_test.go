// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwell/planwell/internal/config"
	"github.com/planwell/planwell/internal/observability"
	"github.com/planwell/planwell/pkg/errutil"
)

// mockObservabilityServer implements ObservabilityServer for testing.
type mockObservabilityServer struct {
	startErr error
	ready    observability.ReadinessChecker
	stopped  bool
}

func (m *mockObservabilityServer) Start() (<-chan error, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return make(chan error, 1), nil
}

func (m *mockObservabilityServer) Stop(context.Context) error {
	m.stopped = true
	return nil
}

func (m *mockObservabilityServer) Addr() string {
	return "127.0.0.1:9100"
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return mock
}

// serveDeps wires a mock pool, a loopback listener, and a mock
// observability server. The bound API address is sent on addr.
func serveDeps(pool Pool, obs *mockObservabilityServer, addr chan<- string) *Deps {
	return &Deps{
		PoolConnector: func(context.Context, config.DatabaseConfig, *slog.Logger) (Pool, error) {
			return pool, nil
		},
		ObservabilityServerFactory: func(_ string, _ *observability.Registry,
			ready observability.ReadinessChecker, _ *slog.Logger,
		) ObservabilityServer {
			obs.ready = ready
			return obs
		},
		ListenerFactory: func(network, _ string) (net.Listener, error) {
			l, err := net.Listen(network, "127.0.0.1:0")
			if err == nil {
				addr <- l.Addr().String()
			}
			return l, err
		},
	}
}

// startServe runs "serve" in the background and returns the API address.
func startServe(ctx context.Context, t *testing.T, deps *Deps, addr <-chan string, args ...string) (string, <-chan error, *syncBuffer) {
	t.Helper()
	cmd := newRootCmd(deps)
	out := &syncBuffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"serve", "--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	select {
	case a := <-addr:
		return a, done, out
	case err := <-done:
		t.Fatalf("serve exited before listening: %v\n%s", err, out.String())
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not start listening\n%s", out.String())
	}
	return "", nil, nil
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not shut down")
		return nil
	}
}

func TestServe_ServesUntilCancelled(t *testing.T) {
	validEnv(t)
	pool := newMockPool(t)
	pool.ExpectPing()
	pool.ExpectClose()
	obs := &mockObservabilityServer{}
	addrCh := make(chan string, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, done, out := startServe(ctx, t, serveDeps(pool, obs, addrCh), addrCh)

	resp, err := http.Get("http://" + addr + "/status")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"success"`)

	require.NotNil(t, obs.ready, "readiness checker wired")
	require.NoError(t, obs.ready(context.Background()), "readiness pings the pool")

	cancel()
	require.NoError(t, waitDone(t, done))
	assert.True(t, obs.stopped)
	assert.Contains(t, out.String(), "shutdown complete")
	assert.Contains(t, out.String(), `"msg":"http request"`)
}

func TestServe_MetricsDisabled(t *testing.T) {
	validEnv(t)
	pool := newMockPool(t)
	pool.ExpectClose()
	addrCh := make(chan string, 1)
	deps := serveDeps(pool, &mockObservabilityServer{}, addrCh)
	deps.ObservabilityServerFactory = func(string, *observability.Registry, observability.ReadinessChecker, *slog.Logger) ObservabilityServer {
		t.Error("observability server must not start when metrics.addr is empty")
		return &mockObservabilityServer{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, done, _ := startServe(ctx, t, deps, addrCh, "--metrics-addr=")

	cancel()
	require.NoError(t, waitDone(t, done))
}

func TestServe_AutoMigrate(t *testing.T) {
	validEnv(t)
	pool := newMockPool(t)
	pool.ExpectClose()
	m := &fakeMigrator{}
	addrCh := make(chan string, 1)
	deps := serveDeps(pool, &mockObservabilityServer{}, addrCh)
	deps.MigratorFactory = func(url string) (Migrator, error) {
		assert.Equal(t, testDatabaseURL, url)
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, done, _ := startServe(ctx, t, deps, addrCh, "--auto-migrate")

	cancel()
	require.NoError(t, waitDone(t, done))
	assert.Equal(t, []string{"up", "close"}, m.calls)
}

func TestServe_StartupFailures(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		env      map[string]string
		mutate   func(d *Deps, obs *mockObservabilityServer)
		wantCode string
		connects bool
	}{
		{
			name:     "missing secrets",
			env:      map[string]string{"PLANWELL_AUTH__ACCESS_SECRET": ""},
			wantCode: "CONFIG_INVALID",
		},
		{
			name:     "invalid config value",
			args:     []string{"--log-format", "xml"},
			wantCode: "CONFIG_INVALID",
		},
		{
			name:     "missing database url",
			env:      map[string]string{"DATABASE_URL": ""},
			wantCode: "CONFIG_INVALID",
		},
		{
			name: "migration failure",
			args: []string{"--auto-migrate"},
			mutate: func(d *Deps, _ *mockObservabilityServer) {
				d.MigratorFactory = func(string) (Migrator, error) {
					return &fakeMigrator{upErr: oops.Code("MIGRATION_UP_FAILED").Errorf("dirty database")}, nil
				}
			},
			wantCode: "MIGRATION_UP_FAILED",
		},
		{
			name: "connect failure",
			mutate: func(d *Deps, _ *mockObservabilityServer) {
				d.PoolConnector = func(context.Context, config.DatabaseConfig, *slog.Logger) (Pool, error) {
					return nil, oops.Code("DB_CONNECT_FAILED").Errorf("connection refused")
				}
			},
			wantCode: "DB_CONNECT_FAILED",
		},
		{
			name: "observability start failure",
			mutate: func(_ *Deps, obs *mockObservabilityServer) {
				obs.startErr = errors.New("address in use")
			},
			wantCode: "OBSERVABILITY_START_FAILED",
			connects: true,
		},
		{
			name: "listen failure",
			mutate: func(d *Deps, _ *mockObservabilityServer) {
				d.ListenerFactory = func(string, string) (net.Listener, error) {
					return nil, errors.New("address in use")
				}
			},
			wantCode: "LISTEN_FAILED",
			connects: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			pool := newMockPool(t)
			if tt.connects {
				pool.ExpectClose()
			}
			obs := &mockObservabilityServer{}
			deps := serveDeps(pool, obs, make(chan string, 1))
			if tt.mutate != nil {
				tt.mutate(deps, obs)
			}

			_, err := execute(t, deps, append([]string{"serve"}, tt.args...)...)

			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestServe_ListenFailureStopsObservability(t *testing.T) {
	validEnv(t)
	pool := newMockPool(t)
	pool.ExpectClose()
	obs := &mockObservabilityServer{}
	deps := serveDeps(pool, obs, make(chan string, 1))
	deps.ListenerFactory = func(string, string) (net.Listener, error) {
		return nil, errors.New("address in use")
	}

	_, err := execute(t, deps, "serve")

	require.Error(t, err)
	assert.True(t, obs.stopped)
}

func TestMonitorServerErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("error cancels", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := make(chan error, 1)
		errCh <- errors.New("boom")

		monitorServerErrors(ctx, cancel, errCh, "test", logger)
		assert.Error(t, ctx.Err())
	})

	t.Run("closed channel does not cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		errCh := make(chan error)
		close(errCh)

		monitorServerErrors(ctx, cancel, errCh, "test", logger)
		assert.NoError(t, ctx.Err())
	})
}
