package main

import (
	"context"
	"log"
	"os"

	"github.com/Tyrowin/bubingachat/internal/app"
	"github.com/Tyrowin/bubingachat/internal/config"
	"github.com/Tyrowin/bubingachat/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	logger.Info(ctx, "starting chat server", "addr", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "app init error", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error(ctx, "server exited with error", "error", err)
		os.Exit(1)
	}
}
