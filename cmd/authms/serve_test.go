// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authms/authms/internal/config"
	"github.com/authms/authms/internal/observability"
)

// stubServer is an ObservabilityServer that never listens.
type stubServer struct {
	startErr error
	errCh    chan error
	stopped  bool
}

func (s *stubServer) Start() (<-chan error, error) {
	if s.startErr != nil {
		return nil, s.startErr
	}
	return s.errCh, nil
}

func (s *stubServer) Stop(context.Context) error {
	s.stopped = true
	return nil
}

func (s *stubServer) Addr() string { return "stub:0" }

func readinessDeps(ready observability.ReadinessChecker, released *bool) *Deps {
	return &Deps{
		ReadinessFactory: func(context.Context, *config.Config) (observability.ReadinessChecker, func(), error) {
			return ready, func() { *released = true }, nil
		},
	}
}

func TestServe_ServesUntilCancelled(t *testing.T) {
	var released bool
	deps := readinessDeps(func(context.Context) error { return errors.New("db down") }, &released)

	addrCh := make(chan string, 1)
	deps.ObservabilityServerFactory = func(a string, ready observability.ReadinessChecker) ObservabilityServer {
		return &addrRecorder{Server: observability.NewServer(a, ready), addrCh: addrCh}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan result, 1)
	go func() {
		done <- executeContext(ctx, t, deps, testEnv, "", "serve", "--metrics-addr", "127.0.0.1:0")
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz/readiness")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusServiceUnavailable
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "Observability server listening on 127.0.0.1:")
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
	assert.True(t, released)
}

// addrRecorder publishes the bound address once the server has started.
type addrRecorder struct {
	*observability.Server
	addrCh chan<- string
}

func (r *addrRecorder) Start() (<-chan error, error) {
	errCh, err := r.Server.Start()
	if err == nil {
		r.addrCh <- r.Server.Addr()
	}
	return errCh, err
}

func TestServe_ReportsServeErrors(t *testing.T) {
	var released bool
	deps := readinessDeps(nil, &released)
	stub := &stubServer{errCh: make(chan error, 1)}
	stub.errCh <- errors.New("listener closed")
	deps.ObservabilityServerFactory = func(string, observability.ReadinessChecker) ObservabilityServer { return stub }

	res := execute(t, deps, testEnv, "", "serve")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "listener closed")
	assert.True(t, stub.stopped)
	assert.True(t, released)
}

func TestServe_StartFailure(t *testing.T) {
	var released bool
	deps := readinessDeps(nil, &released)
	deps.ObservabilityServerFactory = func(string, observability.ReadinessChecker) ObservabilityServer {
		return &stubServer{startErr: errors.New("address in use")}
	}

	res := execute(t, deps, testEnv, "", "serve")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "address in use")
	assert.True(t, released)
}

func TestServe_RequiresAddress(t *testing.T) {
	var released bool
	res := execute(t, readinessDeps(nil, &released), testEnv, "", "serve", "--metrics-addr", "")
	require.Error(t, res.err)
	assert.False(t, released, "nothing is opened without an address")
}
