// Command server runs the user activity and reports API.
//
// Configuration comes from an optional YAML file (REPORTS_CONFIG_PATH) and
// environment variables; see internal/config.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/user-reports/internal/config"
	"github.com/sakif/user-reports/internal/server"
)

func main() {
	bootLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Log.Level) // already validated by Load
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	// Create the data directory (mkdir -p) unless the DB lives in memory.
	if cfg.DB.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.DB.Path)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
