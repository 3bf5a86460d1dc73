package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/drivemig/internal/shared"
	"github.com/urfave/cli/v3"
)

// rootContext returns a context cancelled by SIGINT or SIGTERM. Cancellation
// reaches the executor between tasks, so an interrupted run finishes its
// in-flight remote calls instead of abandoning them.
func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	logger := shared.NewLogger(nil)

	var config *shared.Config
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to parse config.toml", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: "config.toml",
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "drivemig",
		Usage:    "Migrate a cloud storage hierarchy between two accounts",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := rootContext()
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
