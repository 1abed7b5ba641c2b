// Command radar runs the talent-radar service: event ingestion, decayed
// momentum scoring, rankings, collections, and insights over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/radar/internal/adapters/http/api"
	"github.com/okian/radar/internal/adapters/repository"
	"github.com/okian/radar/internal/adapters/signals"
	"github.com/okian/radar/internal/app"
	"github.com/okian/radar/internal/config"
	"github.com/okian/radar/pkg/logger"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	log := logger.Get().Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Fatal(context.Background(), "service exited", logger.Error(err))
	}
}

func run(ctx context.Context, log logger.Logger) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}

	store, err := repository.Open(cfg.DBPath)
	if err != nil {
		return err
	}

	svc, err := app.New(cfg,
		app.WithStore(store),
		app.WithPoller(buildPoller(cfg)),
	)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	api.NewServer(svc).Register(mux)
	mux.Handle("GET /metrics", api.MetricsHandler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server listening", logger.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "http shutdown incomplete", logger.Error(err))
	}
	return svc.Stop(shutdownCtx)
}

// buildPoller wires the configured upstream adapters, each behind a circuit
// breaker. Upstreams with no URL configured are skipped.
func buildPoller(cfg *config.Config) *signals.Poller {
	timeout := time.Duration(cfg.Adapters.TimeoutSeconds) * time.Second
	settings := signals.BreakerSettings{
		MinRequests:  cfg.Adapters.BreakerMinRequests,
		FailureRatio: cfg.Adapters.BreakerFailureRatio,
	}

	var adapters []signals.Adapter
	add := func(url string, build func(string, time.Duration) signals.Adapter) {
		if url != "" {
			adapters = append(adapters, signals.WithBreaker(build(url, timeout), settings))
		}
	}
	add(cfg.Adapters.MIGURL, signals.NewMIG)
	add(cfg.Adapters.ScenesURL, signals.NewScenes)
	add(cfg.Adapters.FusionURL, signals.NewFusion)
	add(cfg.Adapters.CMGURL, signals.NewCMG)

	return signals.NewPoller(signals.WithAdapters(adapters...))
}
