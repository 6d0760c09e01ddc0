package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/services"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = 10 * time.Minute
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	collector, err := metrics.NewPrometheusCollector("ledger")
	if err != nil {
		logger.Error("Failed to initialize metrics", log.FieldError, err.Error())
		os.Exit(1)
	}

	repo := cli.OpenRepository(ctx, logger, cfg)
	defer func() {
		if err := repo.Cleanup(); err != nil {
			logger.Warn("Repository close error", log.FieldError, err.Error())
		}
	}()

	opts := []services.Option{
		services.WithMetrics(collector),
		services.WithLogger(logger.WithComponent(log.ComponentLedger)),
		services.WithSummaryCache(cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
	}
	if cfg.EventsEnabled() {
		publisher, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.WithMetrics(collector))
		if err != nil {
			// writes still succeed without events; the worker's resync catches up
			logger.Warn("Failed to initialize AMQP client, continuing without events",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			defer publisher.Close()
			opts = append(opts, services.WithPublisher(publisher))
			logger.Info("Initialized AMQP publisher", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}
	ledger := services.NewLedgerService(repo.Repository, opts...)

	caches := cache.NewManager()
	caches.Register(ledger.SummaryCache())
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               net.JoinHostPort("", cfg.Port),
		Development:        cfg.IsDevelopment(),
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Metrics:            collector,
		MetricsHandler:     collector.Handler(),
	}, ledger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ledger server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", cfg.EventsEnabled(),
			"env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err.Error())
	}
	logger.Info("Server stopped gracefully")
}
