// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve command, which runs the metrics and health
// endpoints until interrupted.
func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve metrics and health probes",
		Long: `Serve /metrics, /healthz/liveness and /healthz/readiness on --metrics-addr.
Readiness passes while the database answers queries.`,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, cmd)
		}),
	}
}

func (a *app) serve(ctx context.Context, cmd *cobra.Command) error {
	if a.cfg.Metrics.Addr == "" {
		return oops.Code("CONFIG_INVALID").With("field", "metrics.addr").Errorf("metrics-addr is required for serve")
	}

	ready, release, err := a.deps.ReadinessFactory(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer release()

	server := a.deps.ObservabilityServerFactory(a.cfg.Metrics.Addr, ready)
	errCh, err := server.Start()
	if err != nil {
		return oops.Code("SERVE_FAILED").With("addr", a.cfg.Metrics.Addr).Wrap(err)
	}
	cmd.Printf("Observability server listening on %s\n", server.Addr())

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.InfoContext(ctx, "shutting down observability server")
	case err, ok := <-errCh:
		if ok && err != nil {
			serveErr = oops.Code("SERVE_FAILED").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		a.logger.Warn("error stopping observability server", "error", err)
	}
	return serveErr
}
