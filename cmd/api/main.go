package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"review-simulator/internal/bootstrap"
	"review-simulator/internal/shared/config"
	"review-simulator/internal/shared/metrics"
	"review-simulator/internal/shared/server"
	"review-simulator/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		telemetry.Error("api.exit", map[string]any{"error": err})
		telemetry.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := telemetry.Init(cfg.LogLevel); err != nil {
		return err
	}
	defer telemetry.Sync()
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		telemetry.Info("api.listen", map[string]any{"addr": srv.Addr, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		app.Sweeper.Start()
		<-gctx.Done()
		return app.Sweeper.Stop()
	})
	g.Go(func() error {
		<-gctx.Done()
		telemetry.Info("api.shutdown", nil)
		// in-flight generation calls can be long; give them the backend timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
