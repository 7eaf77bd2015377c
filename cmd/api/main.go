// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/payment"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/promotion"
	"github.com/your-org/storefront/internal/domain/warranty"
	"github.com/your-org/storefront/internal/infrastructure/backend"
	"github.com/your-org/storefront/internal/infrastructure/database/memory"
	"github.com/your-org/storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront/internal/infrastructure/database/redis"
	"github.com/your-org/storefront/internal/interfaces/http"
	"github.com/your-org/storefront/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg)
	log.Printf("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	deps := http.Dependencies{
		HealthChecks: map[string]http.HealthChecker{},
	}

	// Connect to Redis. It is required for redis cart storage and optional
	// otherwise, where it only backs rate limiting and cross-process sync.
	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient, err = redis.NewConnection(cfg)
		switch {
		case err == nil:
			defer redisClient.Close()
			deps.RedisClient = redisClient.GetClient()
			deps.HealthChecks["redis"] = redisClient
		case cfg.Cart.StorageDriver == "redis":
			log.Fatalf("Failed to connect to Redis: %v", err)
		default:
			redisClient = nil
			appLogger.WithError(err).Warn("redis unavailable, continuing without rate limiting and cart sync")
		}
	}

	var (
		snapshots cart.SnapshotStore
		ledger    payment.ReconcileLedger
	)

	switch cfg.Cart.StorageDriver {
	case "redis":
		snapshots = redis.NewSnapshotStore(redisClient, cfg.Cart.SnapshotTTL)
		ledger = redis.NewLedger(redisClient, cfg.Cart.LedgerTTL)

	case "postgres":
		db, err := postgres.NewConnection(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		deps.HealthChecks["database"] = db

		// Run database migrations
		migration := postgres.NewMigration(db.GetDB())
		if err := migration.RunAutoMigrations(); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
		if err := migration.CreateIndexes(); err != nil {
			log.Printf("Warning: Index creation failed: %v", err)
		}

		store := postgres.NewSnapshotStore(db.GetDB())
		go purgeStaleSnapshots(ctx, store, cfg.Cart.SnapshotTTL, appLogger)
		snapshots = store
		ledger = postgres.NewLedger(db.GetDB())

	default:
		log.Println("⚠️  Using in-memory cart storage; carts are lost on restart")
		snapshots = memory.NewSnapshotStore()
		ledger = memory.NewLedger()
	}

	// A shared redis ledger is preferred even when snapshots live elsewhere
	if redisClient != nil && cfg.Cart.StorageDriver == "memory" {
		ledger = redis.NewLedger(redisClient, cfg.Cart.LedgerTTL)
	}

	opts := []cart.Option{
		cart.WithPersistTimeout(cfg.Cart.PersistTimeout),
		cart.WithMaxQuantity(cfg.Cart.MaxQuantity),
	}

	var bus *redis.ChangeBus
	if redisClient != nil {
		bus = redis.NewChangeBus(redisClient, cfg.Cart.ChangeChannel, appLogger)
		opts = append(opts, cart.WithNotifier(bus))
	}

	registry := cart.NewRegistry(snapshots, cfg.Cart.KeyPrefix, appLogger, opts...)
	go registry.RunEviction(ctx, cfg.Cart.IdleTTL, time.Minute)

	if bus != nil {
		stopBus, err := bus.Start(ctx, registry.HandleRemoteChange)
		if err != nil {
			appLogger.WithError(err).Warn("cart change bus unavailable, tabs on other instances will not sync")
		} else {
			defer stopBus()
		}
	}

	client := backend.NewClient(cfg.Backend, appLogger)
	deps.Backend = client
	deps.Registry = registry
	deps.Products = product.NewService(client, appLogger)
	attributions := payment.NewAttributions(snapshots, registry, appLogger)
	deps.Checkout = checkout.NewService(client, attributions, appLogger)
	deps.Verifier = payment.NewVerifier(client, ledger, appLogger, payment.WithPayingCarts(attributions))
	deps.Orders = order.NewService(client, deps.Products, appLogger)
	deps.Promotions = promotion.NewService(client, appLogger)
	deps.Warranties = warranty.NewService(client, appLogger)

	log.Println("✅ All systems operational!")

	// Create and start HTTP server
	server := http.NewServer(cfg, appLogger, deps)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("👋 Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Println("✅ Server shutdown completed")
}

// purgeStaleSnapshots deletes abandoned carts once an hour. Redis expires
// them on its own through the key TTL.
func purgeStaleSnapshots(ctx context.Context, store *postgres.SnapshotStore, ttl time.Duration, logger *logrus.Logger) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := store.PurgeStale(ctx, ttl)
			if err != nil {
				logger.WithError(err).Warn("failed to purge stale cart snapshots")
				continue
			}
			if purged > 0 {
				logger.WithField("purged", purged).Info("purged stale cart snapshots")
			}
		}
	}
}
