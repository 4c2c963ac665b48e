package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finance/internal/amqp"
	"finance/internal/backend"
	"finance/internal/cache"
	"finance/internal/cli"
	"finance/internal/config"
	"finance/internal/export"
	financehttp "finance/internal/http"
	"finance/internal/ledger"
	"finance/internal/log"
	"finance/internal/obs"
	"finance/internal/report"
	"finance/internal/services"
	"finance/internal/sheets/memory"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Finance tracker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	logger.Info("Starting finance tracker",
		log.FieldLedgerID, cfg.LedgerID,
		"export_targets", cfg.ExportTargets)

	metrics := obs.NewMetrics()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	sinks, err := backend.NewFactory(logger.WithComponent(log.ComponentExport).Logger).
		CreateSinks(context.Background(), backendCfg)
	if err != nil {
		return err
	}

	// Transaction events are optional; the ledger works without a broker.
	var (
		publisher  services.EventPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
			amqpClient = nil
		} else {
			publisher = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(cfg.LedgerID, ledger.New(), publisher, metrics, logger)
	agg := report.NewAggregator(svc)
	exporter := export.New(agg, sinks.Sinks, metrics, logger.WithComponent(log.ComponentExport).Logger)

	// The report server shares the dashboard sink's renderer so both use one cache.
	dashboard := sinks.Dashboard
	if dashboard == nil && cfg.HTTPAddr != "" {
		if dashboard, err = report.NewDashboard(cfg.DashboardPath, cfg.DashboardCacheSize); err != nil {
			return err
		}
	}

	cacheManager := cache.NewManager()
	if dashboard != nil {
		cacheManager.Register(dashboard.Cache())
	}
	cacheManager.StartCleanup(time.Minute)

	var reportServer *financehttp.Server
	if cfg.HTTPAddr != "" {
		reportServer = startReportServer(cfg.HTTPAddr, agg, dashboard, metrics, logger.WithComponent(log.ComponentHTTP))
	}

	ctx, stop, done := cli.GracefulShutdown(logger, 10*time.Second, func(ctx context.Context) {
		if reportServer != nil {
			if err := reportServer.Shutdown(ctx); err != nil {
				logger.Warn("Report server shutdown failed", log.FieldError, err)
			}
		}
		cacheManager.Stop()
		if amqpClient != nil {
			amqpClient.Close()
		}
		if err := sinks.Cleanup(); err != nil {
			logger.Warn("Failed to release export sinks", log.FieldError, err)
		}
	})

	menu := cli.NewMenu(os.Stdin, os.Stdout, svc, agg, exporter, memory.LoadCategories("data"), logger)

	menuErr := make(chan error, 1)
	go func() { menuErr <- menu.Run(ctx) }()

	select {
	case err = <-menuErr:
	case <-ctx.Done():
		err = nil
	}
	stop()
	<-done

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startReportServer serves the read-only dashboard, JSON reports and metrics.
func startReportServer(addr string, agg *report.Aggregator, dashboard *report.Dashboard, metrics *obs.Metrics, logger *log.Logger) *financehttp.Server {
	srv := financehttp.NewServer(addr, agg, dashboard, metrics, logger.Logger)
	go func() {
		logger.Info("Serving reports", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Report server failed", log.FieldError, err)
		}
	}()
	return srv
}
