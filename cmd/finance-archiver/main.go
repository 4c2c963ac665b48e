package main

import (
	"context"
	"os"
	"time"

	"finance/internal/amqp"
	"finance/internal/backend"
	"finance/internal/cli"
	"finance/internal/log"
	"finance/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentArchiver)
	logger.Info("Starting finance-archiver")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the archiver")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid export configuration", log.FieldError, err)
		os.Exit(1)
	}

	archives, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).
		CreateArchivers(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize archives", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		archives.Cleanup()
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	processor := services.NewArchiveProcessor(amqpClient, archives.Archivers...)

	ctx, stop, done := cli.GracefulShutdown(logger, 15*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Archive processor stopped with error", log.FieldError, err)
		}
		amqpClient.Close()
		if err := archives.Cleanup(); err != nil {
			logger.Warn("Failed to close archives", log.FieldError, err)
		}
	})

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start archive processor", log.FieldError, err)
		stop()
		<-done
		os.Exit(1)
	}

	logger.Info("finance-archiver is running",
		"queue", cfg.AMQPQueue,
		"archives", len(archives.Archivers))

	select {
	case <-processor.Done():
		logger.Warn("Message consumption ended")
	case <-ctx.Done():
	}
	stop()
	<-done

	logger.Info("finance-archiver stopped")
}
