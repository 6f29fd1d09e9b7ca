package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/satishskid/gbseo/internal/access"
	"github.com/satishskid/gbseo/internal/api"
	"github.com/satishskid/gbseo/internal/auth"
	"github.com/satishskid/gbseo/internal/config"
	"github.com/satishskid/gbseo/internal/site"
	"github.com/satishskid/gbseo/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	dataDir := flag.String("data-dir", "./data", "path to data directory")
	envFile := flag.String("env-file", ".env", "path to dotenv file (ignored if missing)")
	flag.Parse()

	// Load .env before config so its variables act as overrides.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load env file", "path", *envFile, "error", err)
		os.Exit(1)
	}

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure data directory exists.
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}

	// Opening and migrating must finish before the server starts listening.
	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStart()

	db, err := storage.OpenDatabase(startCtx, filepath.Join(*dataDir, "gbseo.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.RunMigrations(startCtx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	store := storage.NewStore(db)

	client, err := cfg.NewGenerationClient()
	if err != nil {
		slog.Error("failed to create generation client", "error", err)
		os.Exit(1)
	}
	slog.Info("generation providers configured",
		"configured", client.Registry().ConfiguredCount(),
		"registered", client.Registry().Len(),
		"rotation", cfg.Generation.Rotation,
	)

	var verifier *auth.Verifier
	if cfg.Auth.JWTPublicKeyFile != "" {
		verifier, err = auth.LoadVerifier(cfg.Auth.JWTPublicKeyFile, cfg.Auth.Issuer)
		if err != nil {
			slog.Error("failed to load session verifier", "error", err)
			os.Exit(1)
		}
	}

	var inspector *site.Inspector
	if cfg.Generation.EnrichWebsite {
		inspector = site.NewInspector(nil)
	}

	router := api.NewRouter(api.Deps{
		Client:        client,
		Store:         store,
		Policy:        access.NewPolicy(cfg.Access.InternalTeamEmails, cfg.Access.PaymentGatewayEnabled, cfg.Access.FreeGenerations),
		Authenticator: auth.New(verifier),
		Inspector:     inspector,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "addr", "http://"+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// A full fallback chain can take several attempt timeouts, so give
	// in-flight generations time to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}
