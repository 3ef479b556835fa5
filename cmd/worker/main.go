package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kethan23/build-buddy-app-766-sub000/config"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/bootstrap"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/metrics"
)

func healthServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	healthAddr := flag.String("health-addr", ":8081", "listen address for health and metrics")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger := bootstrap.NewLogger(cfg.Log).WithFields(map[string]interface{}{"component": "worker"})

	if bootstrap.IsInProcess(cfg) {
		logger.Fatal(errors.New("broker.driver is none"), "The worker needs a shared broker; the API relays events itself in this mode")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(cfg.Database, false, logger)
	if err != nil {
		logger.Fatal(err, "Failed to open storage")
	}
	defer storage.Close()

	broker, err := bootstrap.OpenBroker(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(err, "Failed to create message broker")
	}
	defer broker.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New("visa_worker")
	if err := m.Register(registry); err != nil {
		logger.Fatal(err, "Failed to register metrics")
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := bootstrap.StartWorkers(gctx, g, cfg, storage, broker, m, logger); err != nil {
		logger.Fatal(err, "Failed to start workers")
	}

	srv := healthServer(*healthAddr, registry)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(err, "Worker stopped with error")
	}
}
