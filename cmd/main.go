package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kyz7/reviewhub/internal/auth"
	"github.com/Kyz7/reviewhub/internal/config"
	"github.com/Kyz7/reviewhub/internal/database"
	"github.com/Kyz7/reviewhub/internal/logging"
	"github.com/Kyz7/reviewhub/internal/rating"
	"github.com/Kyz7/reviewhub/internal/server"
	"github.com/Kyz7/reviewhub/internal/user"
)

func main() {
	cfg := config.Load()
	log := logging.New("reviewhub", cfg.LogLevel, cfg.LogFormat)

	if err := auth.ValidateSecret(cfg.JWTSecret); err != nil {
		log.Fatal().Err(err).Msg("JWT configuration error")
	}

	requiredEnvVars := map[string]string{
		"DB_HOST":     os.Getenv("DB_HOST"),
		"DB_NAME":     os.Getenv("DB_NAME"),
		"DB_USER":     os.Getenv("DB_USER"),
		"DB_PASSWORD": os.Getenv("DB_PASSWORD"),
	}
	for key, value := range requiredEnvVars {
		if value == "" {
			log.Fatal().Str("var", key).Msg("required environment variable is not set")
		}
	}

	// ========== DATABASE SETUP ==========
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("auto migration failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	if err := database.RunMigrations(ctx, db); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("sql migrations failed")
	}
	if err := user.SeedAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword, log); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("admin seed failed")
	}
	cancel()
	log.Info().Msg("database migrated")

	// ========== RECOMPUTE LOCK ==========
	deps := server.Deps{DB: db, Config: cfg, Log: log}
	if cfg.RedisURL != "" {
		locker, err := rating.NewRedisLocker(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis lock setup failed")
		}
		defer locker.Close()
		deps.Locker = locker
		log.Info().Msg("using redis recompute lock")
	} else {
		log.Info().Msg("using in-process recompute lock")
	}

	// ========== START SERVER ==========
	app := server.New(deps)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.ServerAddr).Msg("server starting")
	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
