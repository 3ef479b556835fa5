package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kethan23/build-buddy-app-766-sub000/config"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/bootstrap"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler/application"
	auditHandler "github.com/kethan23/build-buddy-app-766-sub000/internal/handler/audit"
	countryHandler "github.com/kethan23/build-buddy-app-766-sub000/internal/handler/country"
	documentHandler "github.com/kethan23/build-buddy-app-766-sub000/internal/handler/document"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/handler/health"
	notificationHandler "github.com/kethan23/build-buddy-app-766-sub000/internal/handler/notification"
	promHandler "github.com/kethan23/build-buddy-app-766-sub000/internal/handler/prometheus"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/middleware"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/router"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/authz"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/country"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/document"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/letter"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/notification"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/workflow"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/auth"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/metrics"
)

const metricsNamespace = "visa"

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := bootstrap.NewLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage
	storage, err := bootstrap.OpenStorage(cfg.Database, true, logger)
	if err != nil {
		logger.Fatal(err, "failed to open storage")
	}
	defer storage.Close()

	broker, err := bootstrap.OpenBroker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(err, "failed to connect message broker")
	}
	defer broker.Close()

	blobs, err := bootstrap.OpenBlobStore(ctx, cfg.Blob)
	if err != nil {
		logger.Fatal(err, "failed to create blob store")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(metricsNamespace)
	if err := m.Register(registry); err != nil {
		logger.Fatal(err, "failed to register metrics")
	}

	dispatcher := notification.NewDispatcher(broker, notification.Config{
		Channel:    cfg.Notification.Channel,
		BufferSize: cfg.Notification.BufferSize,
	}, logger, m)
	dispatcher.Start()

	// Initialize services
	auditor := audit.NewService(storage.Audit)
	az := authz.NewAuthorizer(storage.Bookings)
	countrySvc := country.NewService(storage.Countries, auditor, country.CacheConfig{
		TTL:             cfg.Cache.CountryTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, logger)
	workflowSvc := workflow.NewService(storage.Applications, storage.Documents, countrySvc, az, auditor,
		workflow.WithNotifier(dispatcher),
		workflow.WithMetrics(m),
		workflow.WithLogger(logger),
	)
	letterSvc := letter.NewService(storage.Applications, storage.Bookings, blobs, auditor, dispatcher, logger,
		letter.WithUploadTimeout(cfg.Blob.Timeout),
		letter.WithMetrics(m),
	)
	documentSvc := document.NewService(storage.Documents, blobs, az, auditor, cfg.Blob.Timeout, logger)
	notificationSvc := notification.NewService(storage.Notifications)

	if storage.DB == nil {
		seeded, err := countrySvc.Seed(ctx, model.Actor{Role: model.RoleAdmin}, country.Defaults())
		if err != nil {
			logger.Fatal(err, "failed to seed country requirements")
		}
		logger.Info("seeded country requirements", "count", seeded)
	}

	// An in-process broker only reaches subscribers here, so the relay runs
	// alongside the API instead of in the worker binary.
	workers, workerCtx := errgroup.WithContext(ctx)
	if bootstrap.IsInProcess(cfg) {
		if err := bootstrap.StartWorkers(workerCtx, workers, cfg, storage, broker, m, logger); err != nil {
			logger.Fatal(err, "failed to start background workers")
		}
	}

	var db health.Pinger
	if storage.DB != nil {
		db = storage.DB
	}

	routerCfg := router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodySize:    cfg.Server.MaxBodySize,
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		CORSConfig: middleware.CORSConfig{
			AllowOrigins:     cfg.Server.CORS.AllowOrigins,
			AllowCredentials: cfg.Server.CORS.AllowCredentials,
			MaxAge:           cfg.Server.CORS.MaxAge,
		},
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerCfg.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)),
		router.Handlers{
			Health:       health.NewHandler(db),
			Country:      countryHandler.NewHandler(countrySvc),
			Application:  application.NewHandler(workflowSvc, letterSvc),
			Document:     documentHandler.NewHandler(documentSvc),
			Notification: notificationHandler.NewHandler(notificationSvc),
			Audit:        auditHandler.NewHandler(auditor),
			Metrics:      promHandler.New(registry, metricsNamespace),
		},
		logger,
		routerCfg,
	).Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "server forced to shutdown")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Error(err, "notification queue not drained")
	}
	cancel()
	if err := workers.Wait(); err != nil {
		logger.Error(err, "background worker failed")
	}

	logger.Info("server exited properly")
}
