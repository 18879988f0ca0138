// Command penguind serves the penguin biometrics dashboard: an HTML page
// backed by a JSON API, per-session filters over a shared immutable dataset,
// asynchronous exports to blob storage, and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"penguindash/internal/adapters/dashboard"
	"penguindash/internal/adapters/exports"
	"penguindash/internal/blob"
	"penguindash/internal/core"
	"penguindash/internal/dataset"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	sessionTTL := flag.Duration("session-ttl", 30*time.Minute, "drop sessions idle for longer than this")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(*addr, *sessionTTL, log); err != nil {
		log.Error("penguind exited", "error", err)
		os.Exit(1)
	}
}

func run(addr string, sessionTTL time.Duration, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := dataset.Open()
	if err != nil {
		return err
	}
	base, err := source.Load(ctx)
	if err != nil {
		return err
	}
	log.Info("dataset loaded", "driver", source.Driver(), "rows", base.Len())

	store, err := blob.Open(ctx)
	if err != nil {
		return err
	}
	log.Info("blob store ready", "driver", store.Driver())

	service := core.NewService(base)
	worker := exports.NewWorker(base, store, log)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := worker.Stop(stopCtx); err != nil {
			log.Warn("export worker stop", "error", err)
		}
	}()

	handler := dashboard.NewHandler(service)
	handler.Exports = worker
	handler.Log = log

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Idle sessions hold a cached view each; prune them periodically.
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		ticker := time.NewTicker(sessionTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := service.PruneIdle(sessionTTL); removed > 0 {
					log.Info("pruned idle sessions", "removed", removed, "active", service.SessionCount())
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		<-janitorDone
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-janitorDone
	return <-errCh
}
