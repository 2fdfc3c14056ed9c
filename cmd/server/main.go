package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pokevault/internal/platform/config"
	"pokevault/internal/platform/httpserver"
	"pokevault/internal/platform/logger"
	"pokevault/internal/platform/metrics"
	httptransport "pokevault/internal/transport/http"
)

// main loads configuration, wires the modules and serves HTTP until SIGINT or
// SIGTERM, then drains in-flight requests.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.AppName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	modules, err := buildModules(ctx, cfg, log, reg, infra)
	if err != nil {
		return err
	}
	defer modules.Close()

	var database httptransport.Pinger
	var checks []httptransport.HealthChecker
	if infra.db != nil {
		database = infra.db
		checks = append(checks, infra.db)
	}
	if infra.rdb != nil {
		checks = append(checks, infra.rdb)
	}
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Status:         httptransport.NewStatusHandler(cfg, database, checks...),
		RequestTimeout: cfg.Server.RequestTimeout,
		Modules:        modules.registrars,
	})
	srv := httpserver.New(cfg.Server, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting pokevault", "addr", cfg.Server.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
