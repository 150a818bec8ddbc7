package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/podlens/podlens/internal/services"
	"github.com/podlens/podlens/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	insight := services.NewInsightService(logger, config.Server.BaseURL, config.Auth.Token, services.InsightOpts{
		RateLimit: config.Server.RateLimit,
		Revoker: services.RevokerFunc(func() {
			logger.Warn("session expired, run 'podlens auth login'")
		}),
	})

	opts := RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Insight:    insight,
		Logger:     logger,
	}

	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err == nil {
			opts.DB = db
		} else {
			logger.Warn("cache unavailable, run 'podlens setup'", "error", err)
			db.Close()
		}
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "podlens",
		Usage:    "Analyze and summarize podcast episodes",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
