// WhatsApp Agent - conversational authentication service
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/whatsapp-agent/internal/agent"
	"github.com/ashureev/whatsapp-agent/internal/api"
	"github.com/ashureev/whatsapp-agent/internal/clientapi"
	"github.com/ashureev/whatsapp-agent/internal/config"
	"github.com/ashureev/whatsapp-agent/internal/email"
	"github.com/ashureev/whatsapp-agent/internal/middleware"
	"github.com/ashureev/whatsapp-agent/internal/mockapi"
	"github.com/ashureev/whatsapp-agent/internal/router"
	"github.com/ashureev/whatsapp-agent/internal/session"
	"github.com/ashureev/whatsapp-agent/internal/store"
	"github.com/ashureev/whatsapp-agent/internal/translog"
	"github.com/ashureev/whatsapp-agent/internal/webhook"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "app", cfg.AppName, "port", cfg.Port, "auth_mode", cfg.AuthMode)

	// Initialize dependencies.
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

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	seeded, err := store.SeedIfEmpty(context.Background(), repo)
	if err != nil {
		slog.Error("Failed to seed directory", "error", err)
		os.Exit(1)
	}
	if seeded > 0 {
		slog.Info("Seeded sample users into empty directory", "count", seeded)
	}

	var transcripts *translog.Logger
	if cfg.Transcript.Enabled {
		transcripts, err = translog.New(cfg.Transcript.Dir, cfg.Transcript.QueueSize)
		if err != nil {
			slog.Error("Failed to initialize transcript logger", "error", err)
			os.Exit(1)
		}
		defer func() {
			if closeErr := transcripts.Close(); closeErr != nil {
				slog.Error("Failed to close transcript logger", "error", closeErr)
			}
		}()
	}

	// Initialize services.
	sessions := session.NewManager()
	external := clientapi.New(cfg.ExternalAPIBaseURL, cfg.ExternalAPITimeout)

	var authAgent agent.Agent
	switch cfg.AuthMode {
	case config.AuthModeDirect:
		authAgent = agent.NewDirectAuthAgent(external, email.NewService(cfg.SMTP, cfg.AppName))
	default:
		authAgent = agent.NewAuthAgent(external, external)
	}
	slog.Info("Auth agent selected", "agent", authAgent.Name())

	rt := router.New(sessions, authAgent)

	// Initialize handlers.
	sender := webhook.NewCloudAPISender(cfg.APIToken, cfg.PhoneNumberID)
	webhookHandler := webhook.NewHandler(cfg.VerifyToken, rt, sessions, sender, transcripts)
	mockHandler := mockapi.NewHandler(repo, mockapi.NewOTPStore())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		api.JSON(w, http.StatusOK, map[string]any{
			"status":          "healthy",
			"app":             cfg.AppName,
			"active_sessions": sessions.ActiveCount(),
		})
	})

	// Webhook routes carry payload signature verification.
	r.Group(func(r chi.Router) {
		r.Use(middleware.VerifySignature(cfg.AppSecret))
		webhookHandler.RegisterRoutes(r)
	})

	// Co-located mock of the external client API.
	mockHandler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
