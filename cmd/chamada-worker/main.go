package main

import (
	"context"
	"errors"
	"os"

	_ "time/tzdata"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/amqp"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/cli"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/services"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(os.Stdout, cfg, applog.ComponentWorker)
	loc := cli.Location(cfg)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	logger.Info("Starting chamada-worker")

	res := cli.OpenBackend(ctx, logger, cfg)
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}
	st := res.Backend

	publisher, err := cli.NewPublisher(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize publisher", "error", err)
		os.Exit(1)
	}

	reports := services.NewReportService(st, overrides.Default(), loc)
	processor := services.NewPublishProcessor(reports, publisher, services.DefaultPublishProcessorConfig())
	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start publish processor", "error", err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(st, processor, reports, publisher)
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		// Not fatal: new events still trigger publication.
		logger.Error("Failed startup sync check", "error", err)
	}
	if cfg.StatsSchedule != "" {
		if err := syncWorker.ScheduleStatistics(ctx, cfg.StatsSchedule, loc); err != nil {
			logger.Error("Failed to schedule statistics", "error", err)
			os.Exit(1)
		}
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		go func() {
			if err := client.ConsumeSnapshotSaved(ctx, syncWorker.HandleSnapshotSaved); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled, only the startup check and schedule will publish")
	}

	<-ctx.Done()
	logger.Info("Shutting down worker")

	syncWorker.Stop()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stopCancel()
	if err := processor.Stop(stopCtx); err != nil {
		logger.Error("Publish processor stop failed", "error", err)
	}
	logger.Info("Worker stopped")
}
