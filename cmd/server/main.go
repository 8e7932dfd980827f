// Package main is the entry point for the stockledger API server.
// Multi-tenant architecture: shared database, tenant_id on every row.
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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"stockledger/internal/core/idempotency"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/auth"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/http/v1/dto"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/storage/memory"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

var version = "dev"

// backend is the storage selected by STORAGE_DRIVER.
type backend struct {
	store       domain.Store
	txm         tx.ReadOnlyManager
	idempotency idempotency.Store
	health      *handlers.HealthHandler
	pool        *postgres.Pool
}

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
		Service:     "stockledger",
		Version:     getEnv("APP_VERSION", ""),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting stockledger server", "version", version)

	if err := dto.SetupValidator(); err != nil {
		log.Fatalw("failed to register validators", "error", err)
	}
	if getEnv("APP_ENV", "development") != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	b, err := openBackend(ctx, getEnv("STORAGE_DRIVER", "postgres"))
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	if b.pool != nil {
		defer b.pool.Close()
	}

	// --- JWT Service ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Store:        b.store,
		TxManager:    b.txm,
		Logger:       log,
		JWTValidator: jwtService,
		Idempotency:  b.idempotency,
		Health:       b.health,
	})

	// --- Background maintenance ---
	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	go runMaintenance(bgCtx, b, getEnvDuration("MAINTENANCE_INTERVAL", 10*time.Minute))

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port, "storage", getEnv("STORAGE_DRIVER", "postgres"))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopBackground()

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func openBackend(ctx context.Context, driver string) (*backend, error) {
	ttl := getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour)

	switch driver {
	case "memory":
		store := memory.New()
		return &backend{
			store:       store,
			txm:         memory.NewTxManager(store),
			idempotency: memory.NewIdempotencyStore(ttl),
			health:      handlers.NewHealthHandler(driver, version, nil, nil),
		}, nil

	case "postgres":
		cfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
		if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
			cfg.MaxConns = int32(maxConns)
		}
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if getEnv("AUTO_MIGRATE", "true") == "true" {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
			logger.Info(ctx, "database schema is up to date")
		}

		txm := postgres.NewTxManager(pool)
		store, err := postgres.NewStore(txm)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &backend{
			store:       store,
			txm:         txm,
			idempotency: postgres.NewIdempotencyStore(pool, ttl),
			health:      handlers.NewHealthHandler(driver, version, pool, func() any { return pool.Stats() }),
			pool:        pool,
		}, nil
	}
	return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (want memory or postgres)", driver)
}

// runMaintenance expires idempotency keys and reports pool usage until ctx ends.
func runMaintenance(ctx context.Context, b *backend, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := b.idempotency.Cleanup(ctx, now)
			if err != nil {
				logger.Warn(ctx, "idempotency cleanup failed", "error", err)
			} else if removed > 0 {
				logger.Debug(ctx, "expired idempotency keys removed", "count", removed)
			}
			if b.pool != nil {
				b.pool.LogStats(ctx)
			}
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
