package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/navisync/navisync/internal/shared"
	"github.com/navisync/navisync/internal/subsonic"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("ignoring unreadable config.toml", "err", err)
		}
	}

	client := subsonic.New(subsonic.Config{
		BaseURL:     config.Server.URL,
		Username:    config.Server.Username,
		Password:    config.Server.Password,
		APIVersion:  config.Server.APIVersion,
		ClientName:  config.Server.ClientName,
		MusicFolder: config.Server.MusicFolder,
		PageSize:    config.Sync.PageSize,
		RateLimit:   config.Sync.RateLimit,
	}, &http.Client{Timeout: 30 * time.Second}, logger)

	runner := NewRunner(RunnerOpts{
		Config: config,
		Client: client,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "navisync",
		Usage:    "Mirror and query a Navidrome album catalog",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrAuthFailed) {
			logger.Fatal("authentication failed, check server credentials")
		}
		logger.Fatalf("application error: %v", err)
	}
}
