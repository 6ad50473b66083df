package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/jwalitptl/meditracker-api/internal/config"
	"github.com/jwalitptl/meditracker-api/internal/infrastructure"
	"github.com/jwalitptl/meditracker-api/pkg/logger"
	"github.com/jwalitptl/meditracker-api/pkg/metrics"
	"github.com/jwalitptl/meditracker-api/pkg/worker"
)

func setupHealthCheck(port int, ping func(context.Context) error, appLogger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/health/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize logger
	appLogger := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	log.Logger = appLogger.Zerolog()

	if cfg.Storage.Driver != config.StorageDriverPostgres {
		appLogger.Fatal(fmt.Errorf("storage driver %q", cfg.Storage.Driver), "worker requires postgres storage")
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		appLogger.Fatal(err, "Failed to create migration logger")
	}
	defer zapLogger.Sync()

	// Migrations belong to the API process
	cfg.Migrations.Enabled = false
	storage, err := infrastructure.OpenStorage(cfg, zapLogger)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer storage.Close()

	broker, err := infrastructure.NewBroker(cfg, appLogger.Zerolog())
	if err != nil {
		appLogger.Fatal(err, "Failed to create message broker", "driver", cfg.Messaging.Driver)
	}
	defer broker.Close()

	processor, err := worker.NewOutboxProcessor(
		storage.Repos.Tx,
		storage.Repos.Outbox,
		broker,
		cfg.ToWorkerConfig(),
		appLogger,
		metrics.NewMetrics("meditracker_worker", prometheus.DefaultRegisterer),
	)
	if err != nil {
		appLogger.Fatal(err, "Invalid outbox configuration")
	}

	healthSrv := setupHealthCheck(cfg.Server.HealthPort, storage.Ping, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	processor.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)
}
