package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/log"
	"ledger/internal/metrics"
	"ledger/internal/worker"
)

// metricsPort is where the worker exposes /metrics; the API owns PORT.
const metricsPort = "9091"

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting ledger-worker")

	ctx, stop := cli.SignalContext()
	defer stop()

	collector, err := metrics.NewPrometheusCollector("ledger_worker")
	if err != nil {
		logger.Error("Failed to initialize metrics", log.FieldError, err.Error())
		os.Exit(1)
	}

	repo := cli.OpenRepository(ctx, logger, cfg)
	defer repo.Cleanup()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	mirror, err := backend.NewFactory(logger).CreateMirror(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize mirror", log.FieldError, err.Error())
		os.Exit(1)
	}

	var consumer worker.EventConsumer
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqp.WithMetrics(collector))
		if err != nil {
			logger.Error("Failed to initialize AMQP client",
				log.FieldError, err.Error(),
				log.FieldErrorType, log.ErrorTypeNetwork)
			os.Exit(1)
		}
		defer client.Close()
		consumer = client
	} else {
		logger.Info("AMQP disabled, relying on periodic resync only", "interval", cfg.ResyncInterval)
	}

	metricsSrv := &http.Server{
		Addr:              net.JoinHostPort("", metricsPort),
		Handler:           collector.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server error", log.FieldError, err.Error())
		}
	}()

	w := worker.NewSyncWorker(repo.Repository, mirror, collector)
	if err := w.Run(ctx, consumer, cfg.ResyncInterval); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	logger.Info("Worker stopped gracefully")
}
