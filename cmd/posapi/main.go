// Command posapi runs the stand-in POS API the back office talks to during
// local development and end-to-end testing.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/meridianpos/backoffice/internal/upstream"
)

type config struct {
	Addr         string        `envconfig:"ADDR" default:":8081"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`

	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// PGDSN switches storage to Postgres; empty keeps the in-memory store.
	PGDSN string `envconfig:"PG_DSN"`
	Seed  bool   `envconfig:"SEED" default:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg config
	if err := envconfig.Process("posapi", &cfg); err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var store upstream.Store
	if cfg.PGDSN != "" {
		pgStore, err := upstream.NewPGStore(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("open postgres store", slog.Any("error", err))
			os.Exit(1)
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		store = upstream.NewMemStore()
	}

	if cfg.Seed {
		if err := upstream.Seed(ctx, store); err != nil {
			logger.Error("seed demo data", slog.Any("error", err))
			os.Exit(1)
		}
	}

	tokens := upstream.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	srv := upstream.NewServer(logger, store, tokens)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("starting pos api", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
