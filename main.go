package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justbri/marquee/config"
	"github.com/justbri/marquee/database"
	"github.com/justbri/marquee/handlers"
	"github.com/justbri/marquee/services"
	sharedhttp "github.com/justbri/marquee/shared/http"
	"github.com/justbri/marquee/shared/logger"
	"github.com/justbri/marquee/shared/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.Environment, cfg.Debug)

	slog.Info("Marquee starting",
		"port", cfg.ServerPort,
		"environment", cfg.Environment,
		"debug", cfg.Debug,
		"favorites", favoritesBackend(cfg))

	if cfg.OMDbAPIKey == "" {
		slog.Warn("OMDB_API_KEY is not set; every lookup will be refused by the API")
	}

	// Favorites live in memory unless a database is configured
	var favorites services.FavoritesRepository = services.NewMemoryFavorites()
	if cfg.PersistFavorites() {
		db, err := database.Connect(cfg)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := database.RunMigrations(db); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		favorites = services.NewSQLFavorites(db)
	}

	source := services.NewOMDbClient(cfg.OMDbBaseURL, cfg.OMDbAPIKey, sharedhttp.NewClient(cfg.RequestTimeout))
	registry := services.NewRegistry(services.NewBrowserFactory(source, favorites, services.BrowserConfigFrom(cfg)))
	defer registry.Close()

	sessionStore := services.NewSessionStore(cfg)
	srvCfg := server.DefaultConfig(":" + cfg.ServerPort)
	srv := handlers.NewServer(srvCfg, sessionStore, registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, srvCfg, srv)
	})
	g.Go(func() error {
		return registry.RunSweeper(ctx, time.Minute, cfg.SessionIdle)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		registry.Close()
		os.Exit(1)
	}
	slog.Info("Marquee stopped")
}

func favoritesBackend(cfg *config.Config) string {
	if cfg.PersistFavorites() {
		return cfg.DBType
	}
	return "memory"
}
