package main

import (
	"errors"
	"os"

	_ "time/tzdata"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/cli"
	applog "github.com/Jeffrog22/Lista-de-Chamada-Web/internal/log"
	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/overrides"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	// Logs go to stderr so reports can be piped from stdout.
	logger := cli.SetupLogger(os.Stderr, cfg, applog.ComponentImport)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.OpenBackend(ctx, logger, cfg)
	exit := 0
	defer func() {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
		os.Exit(exit)
	}()

	publisher, err := cli.NewPublisher(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize publisher", "error", err)
		exit = 1
		return
	}

	tb := cli.Toolbox{
		Store:     res.Backend,
		Publisher: publisher,
		Location:  cli.Location(cfg),
		Overrides: overrides.Default(),
		Stdout:    os.Stdout,
	}
	if err := tb.Run(ctx, os.Args[1:]); err != nil {
		logger.Error("Command failed", "error", err)
		exit = 1
		if errors.Is(err, cli.ErrUsage) {
			exit = 2
		}
	}
}
