package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/userauth-api/config"
	"github.com/ErlanBelekov/userauth-api/internal/clock"
	"github.com/ErlanBelekov/userauth-api/internal/health"
	"github.com/ErlanBelekov/userauth-api/internal/infrastructure/store"
	ctxlog "github.com/ErlanBelekov/userauth-api/internal/log"
	"github.com/ErlanBelekov/userauth-api/internal/metrics"
	"github.com/ErlanBelekov/userauth-api/internal/sweeper"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.StoreDriver == store.DriverMemory {
		log.Fatal("sweeper: the memory store is per process, nothing to sweep")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st, err := store.Open(ctx, store.Options{
		Driver:        cfg.StoreDriver,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		AppName:       "userauth-sweeper",
	}, logger)
	if err != nil {
		stop()
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	metrics.Register()
	checker := health.NewChecker(st.Name, st.Pinger, logger, prometheus.DefaultRegisterer)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	sw := sweeper.New(st.Users, cfg.SweepSchedule, clock.Real{}, logger)
	if err := sw.Start(ctx); err != nil {
		logger.Error("sweeper", "error", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("sweeper shut down")
}
