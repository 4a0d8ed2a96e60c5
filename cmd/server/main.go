package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diewo77/librairie/internal/config"
	"github.com/diewo77/librairie/internal/db"
	"github.com/diewo77/librairie/internal/server"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	logger.Info().Str("dsn", db.MaskDSN(cfg.DatabaseDSN)).Msg("connecting to database")
	conn, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(conn, cfg.DatabaseDSN, cfg.Migrations); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")
		return
	}
	if *seedOnlyFlag {
		if err := db.Seed(conn); err != nil {
			logger.Fatal().Err(err).Msg("seeding failed")
		}
		logger.Info().Msg("seeding completed")
		return
	}

	if err := db.Migrate(conn, cfg.DatabaseDSN, cfg.Migrations); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	if cfg.Seed {
		if err := db.Seed(conn); err != nil {
			logger.Fatal().Err(err).Msg("seeding failed")
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.New(conn, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}
	logger.Info().Msg("server stopped gracefully")
}
