package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"rpc-pool-go/internal/engine"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serveMetrics exposes /metrics, /healthz and /readyz until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, pool *engine.EndpointPool) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	engine.NewPoolHealthServer(pool).Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics_server_started", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("metrics_server_stopping")
	return srv.Shutdown(shutdownCtx)
}
