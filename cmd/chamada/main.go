package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	_ "time/tzdata"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/amqp"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/cli"
	apphttp "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/http"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(os.Stdout, cfg, applog.ComponentApp)
	loc := cli.Location(cfg)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.OpenBackend(ctx, logger, cfg)
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}
	st := res.Backend

	// Snapshot events are optional; without a broker the worker relies on
	// its startup backfill.
	var publisher services.SnapshotPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, snapshot events disabled", "error", err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	table := overrides.Default()
	attendance := services.NewAttendanceService(st, publisher, loc)
	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		Location:           loc,
		Logger:             logger,
	}, apphttp.Dependencies{
		Attendance: attendance,
		Reports:    services.NewReportService(st, table, loc),
		Exclusions: services.NewExclusionService(st),
		Calendar:   services.NewCalendarService(st),
		Import:     services.NewImportService(st, attendance, table),
		Ready: func(ctx context.Context) error {
			_, err := st.LoadCalendar(ctx)
			return err
		},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting chamada server", "port", cfg.Port, "backend", cfg.DataBackend, "timezone", loc.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
