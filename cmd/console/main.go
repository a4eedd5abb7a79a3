package main

import (
	"context"
	"customer-manager/internal/config"
	"customer-manager/internal/domain/customer"
	"customer-manager/internal/event"
	"customer-manager/internal/infrastructure/logging"
	"customer-manager/internal/infrastructure/storage/jsonfile"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Could not load .env file", "error", err)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Menu output owns stdout; the store logs to stderr.
	logger := logging.NewLoggerWithWriter(cfg.Logger, os.Stderr).With("component", "console")

	ctx := context.Background()
	repo := jsonfile.NewRepository(cfg.Store.ConsolePath, logger)
	store := customer.NewStore(ctx, repo, event.NoopPublisher{}, logger)

	newConsole(store, os.Stdin, os.Stdout).Run(ctx)
}
