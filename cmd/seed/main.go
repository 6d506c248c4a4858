// Seeder - populates the client directory with sample users.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ashureev/whatsapp-agent/internal/config"
	"github.com/ashureev/whatsapp-agent/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	seeded, err := store.SeedIfEmpty(context.Background(), repo)
	if err != nil {
		slog.Error("Seeding failed", "error", err)
		os.Exit(1)
	}
	if seeded == 0 {
		slog.Info("Directory already has users, nothing to do", "db", cfg.DBPath)
		return
	}
	slog.Info("Seeded sample users", "count", seeded, "db", cfg.DBPath)
}
