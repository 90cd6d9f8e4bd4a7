package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/nfrund/authflow/internal/app"
	"github.com/nfrund/authflow/internal/config"
	"github.com/nfrund/authflow/internal/logging"
	"github.com/nfrund/authflow/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Format, cfg.Log.Level)

	s, err := server.New(cfg, app.NewDependencies(cfg, logger))
	if err != nil {
		logger.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	if err := s.Start(context.Background()); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
