package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"authgate/internal/auth"
	"authgate/internal/config"
	transporthttp "authgate/internal/http"
	"authgate/internal/kv"
	"authgate/internal/platform/database"
	"authgate/internal/platform/logging"
	"authgate/internal/platform/migrate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	store, cleanup, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	// No safe degraded mode exists without verified signing-key material, so
	// provisioning failure aborts startup.
	provisioner := auth.NewProvisioner(store, cfg.Auth.Domain)
	if err := provisioner.Provision(ctx); err != nil {
		logger.Error("signing key provisioning failed", "error", err)
		os.Exit(1)
	}
	logger.Info("signing key provisioned", "domain", cfg.Auth.Domain)

	settings := auth.Settings{
		Domain:       cfg.Auth.Domain,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURI:  cfg.Auth.RedirectURI,
	}
	provider := auth.NewProvider(settings)
	users := auth.NewDirectory(store)
	sessions := auth.NewSessionManager(store, users)

	router := transporthttp.NewRouter(cfg, store, provider, users, sessions, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("authgate listening", "addr", srv.Addr, "store", cfg.DataStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (kv.Store, func(), error) {
	switch cfg.DataStore {
	case "memory":
		logger.Info("using in-memory store")
		return kv.NewMemoryStore(), nil, nil

	case "redis":
		store, err := kv.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
		return store, func() { _ = store.Close() }, nil

	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { _ = db.Close() }
		if err := migrate.Apply(ctx, db, logger); err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return kv.NewPostgresStore(db), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown data store %q", cfg.DataStore)
	}
}
