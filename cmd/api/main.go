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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/meditracker-api/internal/config"
	adminHandler "github.com/jwalitptl/meditracker-api/internal/handler/admin"
	"github.com/jwalitptl/meditracker-api/internal/handler/health"
	medicineHandler "github.com/jwalitptl/meditracker-api/internal/handler/medicine"
	prescriptionHandler "github.com/jwalitptl/meditracker-api/internal/handler/prescription"
	profileHandler "github.com/jwalitptl/meditracker-api/internal/handler/profile"
	"github.com/jwalitptl/meditracker-api/internal/infrastructure"
	"github.com/jwalitptl/meditracker-api/internal/middleware"
	"github.com/jwalitptl/meditracker-api/internal/model"
	"github.com/jwalitptl/meditracker-api/internal/router"
	eventService "github.com/jwalitptl/meditracker-api/internal/service/event"
	medicineService "github.com/jwalitptl/meditracker-api/internal/service/medicine"
	prescriptionService "github.com/jwalitptl/meditracker-api/internal/service/prescription"
	profileService "github.com/jwalitptl/meditracker-api/internal/service/profile"
	roleService "github.com/jwalitptl/meditracker-api/internal/service/role"
	userService "github.com/jwalitptl/meditracker-api/internal/service/user"
	"github.com/jwalitptl/meditracker-api/pkg/auth"
	"github.com/jwalitptl/meditracker-api/pkg/logger"
	"github.com/jwalitptl/meditracker-api/pkg/metrics"
	"github.com/jwalitptl/meditracker-api/pkg/worker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	log.Logger = appLogger.Zerolog()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		appLogger.Fatal(err, "failed to create migration logger")
	}
	defer zapLogger.Sync()

	// Initialize storage
	storage, err := infrastructure.OpenStorage(cfg, zapLogger)
	if err != nil {
		appLogger.Fatal(err, "failed to open storage", "driver", cfg.Storage.Driver)
	}
	defer storage.Close()
	repos := storage.Repos

	m := metrics.NewMetrics("meditracker", prometheus.DefaultRegisterer)

	// Initialize services
	events := eventService.NewService(repos.Outbox)
	reconciler := profileService.NewReconciler(repos.Patients, repos.Doctors, events, m, appLogger)
	resolver := roleService.NewResolver(repos.Roles, cfg.Cache.RoleTTL, cfg.Cache.CleanupInterval)
	roleSvc := roleService.NewService(repos.Tx, repos.Users, repos.Roles, resolver, reconciler, events, m, appLogger)
	profileSvc := profileService.NewService(repos.Tx, repos.Users, repos.Patients, repos.Doctors)
	medicineSvc := medicineService.NewService(repos.Tx, repos.Medicines, events, appLogger)
	prescriptionSvc := prescriptionService.NewService(prescriptionService.Options{
		StrictSchedule:   cfg.Prescriptions.StrictSchedule,
		ResolveTimeZones: cfg.Prescriptions.ResolveTimeZones,
	}, repos.Tx, repos.Patients, repos.Medicines, repos.Prescriptions, events, m, appLogger)
	userSvc := userService.NewService(repos.Users, repos.Patients, repos.Doctors)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)

	if storage.Memory != nil {
		seedDevAdmin(storage, jwtSvc, appLogger)
	}

	// Setup router
	gin.SetMode(cfg.Server.Mode)
	var limit rate.Limit
	if cfg.RateLimit.Enabled {
		limit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
	}
	r, err := router.NewRouter(
		middleware.NewAuthMiddleware(jwtSvc, roleSvc),
		router.Handlers{
			Health: health.NewHandler(prometheus.DefaultGatherer, map[string]health.Checker{
				"database": storage.Ping,
			}),
			Profile:      profileHandler.NewHandler(profileSvc),
			Prescription: prescriptionHandler.NewHandler(prescriptionSvc),
			Admin:        adminHandler.NewHandler(userSvc, roleSvc),
			Medicine:     medicineHandler.NewHandler(medicineSvc),
		},
		router.RouterConfig{
			RateLimit:     limit,
			RateBurst:     cfg.RateLimit.Burst,
			MetricsPrefix: "meditracker_http",
		},
	)
	if err != nil {
		appLogger.Fatal(err, "failed to create router")
	}
	r.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run the outbox processor in-process when enabled
	if cfg.Outbox.Enabled {
		broker, err := infrastructure.NewBroker(cfg, appLogger.Zerolog())
		if err != nil {
			appLogger.Fatal(err, "failed to connect to message broker", "driver", cfg.Messaging.Driver)
		}
		defer broker.Close()

		processor, err := worker.NewOutboxProcessor(repos.Tx, repos.Outbox, broker, cfg.ToWorkerConfig(), appLogger, m)
		if err != nil {
			appLogger.Fatal(err, "invalid outbox configuration")
		}
		go processor.Start(ctx)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		appLogger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}

// seedDevAdmin gives a fresh memory store an administrator and logs a token
// for it, so a local run is usable without a database.
func seedDevAdmin(storage *infrastructure.Storage, jwtSvc auth.JWTService, appLogger *logger.Logger) {
	admin := &model.User{
		Name:     "Local Admin",
		Username: "admin",
		Email:    "admin@meditracker.local",
	}
	if err := storage.Memory.SeedUser(admin, model.RoleAdmin); err != nil {
		appLogger.Fatal(err, "failed to seed admin user")
	}
	token, err := jwtSvc.GenerateAccessToken(admin)
	if err != nil {
		appLogger.Fatal(err, "failed to issue admin token")
	}
	appLogger.Warn("memory storage in use; seeded admin user", "user_id", admin.ID, "token", token)
}
