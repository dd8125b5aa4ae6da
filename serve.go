package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"flip-lending/auth"
	"flip-lending/config"
	httpLayer "flip-lending/http"
	"flip-lending/repository"
	"flip-lending/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
}

func postgresConfig(c config.PostgresConfig) repository.PostgresConfig {
	return repository.PostgresConfig{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Database,
		SSLMode:  c.SSLMode,
		MaxConns: c.MaxConns,
		MinConns: c.MinConns,
	}
}

// openGateway returns the configured storage backend and a func releasing it.
func openGateway(ctx context.Context, logger *slog.Logger) (repository.Gateway, func(), error) {
	if cfg.Storage.Driver != "postgres" {
		logger.Warn("using in-memory storage; data is lost on restart")
		return repository.NewGatewayMemory(), func() {}, nil
	}

	pgCfg := postgresConfig(cfg.Postgres)
	if cfg.Postgres.AutoMigrate {
		if err := repository.RunMigrations(pgCfg.DSN()); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations applied")
	}

	pool, err := repository.NewPool(ctx, pgCfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to postgres", "host", pgCfg.Host, "database", pgCfg.Database)
	return repository.NewGatewayPostgres(pool), pool.Close, nil
}

func openCache(ctx context.Context, logger *slog.Logger) (repository.CacheRepository, func()) {
	if cfg.Cache.Driver != "redis" {
		return repository.NewMemoryCache(), func() {}
	}

	cache := repository.NewRedisCache(repository.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	// No crítico: el servicio funciona sin cache
	if err := cache.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, analyses will not be cached until it recovers", "addr", cfg.Redis.Addr, "error", err)
	}
	return cache, func() { _ = cache.Close() }
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := cmd.Context()
	logger := slog.Default()

	gateway, closeGateway, err := openGateway(ctx, logger)
	if err != nil {
		return err
	}
	defer closeGateway()

	cache, closeCache := openCache(ctx, logger)
	defer closeCache()

	tokens, err := auth.NewJWTService(auth.JWTConfig{
		Secret:     cfg.Auth.Secret,
		Issuer:     cfg.Auth.Issuer,
		Expiration: cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	dealService := service.NewDealService(gateway, logger)
	analysisService := service.NewAnalysisService(gateway, cache, cfg.Cache.TTL, logger)
	lenderService := service.NewLenderService(gateway, logger)

	metrics := httpLayer.NewMetrics()

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	router := httpLayer.Router{
		Deals:    httpLayer.NewDealHandler(dealService),
		Analysis: httpLayer.NewAnalysisHandler(analysisService, metrics),
		Lenders:  httpLayer.NewLenderHandler(lenderService),
		Health:   httpLayer.HealthHandler(gateway),
		Tokens:   tokens,
		Limiter:  rateLimiter,
		Metrics:  metrics,
		Logger:   logger,
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("🚀 API listening", "addr", cfg.HTTP.Addr, "storage", cfg.Storage.Driver, "cache", cfg.Cache.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}

	logger.Info("server exited")
	return nil
}
