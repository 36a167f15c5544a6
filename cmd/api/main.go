package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/0xmirasol/ammguard/internal/cache"
	"github.com/0xmirasol/ammguard/internal/config"
	"github.com/0xmirasol/ammguard/internal/engine"
	"github.com/0xmirasol/ammguard/internal/halts"
	"github.com/0xmirasol/ammguard/internal/pool"
	"github.com/0xmirasol/ammguard/internal/server"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It initializes all dependencies and starts the HTTP server with graceful shutdown
func main() {
	// Initialize structured logger with custom formatting
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	// Load and validate configuration from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Load the pair registry and seed the reserve ledger from it
	registry, err := pool.NewRegistry(cfg.PairConfigPath)
	if err != nil {
		logger.WithError(err).Fatal("failed to load pair registry")
	}
	logger.WithField("pairs", registry.Count()).Info("pair registry loaded")

	guards := cfg.Guards()
	ledger := pool.NewLedger(registry, guards)

	// Redis backs the trade cache and the halt store. Both are optional; the
	// engine degrades to pricing + execution without them.
	var tradeCache *cache.RedisCache
	var haltStore *halts.Store
	rclient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   0,
	})
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, trade cache and halts disabled")
	} else {
		tradeCache = cache.NewRedisCacheFromClient(rclient, logger)
		haltStore, err = halts.NewStore(rclient)
		if err != nil {
			logger.WithError(err).Fatal("failed to create halt store")
		}
	}

	// ClickHouse keeps the durable trade history (optional)
	var tradeStore *cache.ClickHouseStore
	if cfg.ClickHouseAddr != "" {
		tradeStore, err = cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		})
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable, trade history disabled")
			tradeStore = nil
		} else {
			defer func() {
				_ = tradeStore.Close()
			}()
		}
	}

	// Assemble the swap engine over the ledger
	eng, err := engine.New(ledger, ledger, guards, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create swap engine")
	}
	eng.WithLimits(engine.TradeLimits{
		MaxAmountInPerSwap: cfg.MaxAmountInPerSwap,
		DailyVolumeCap:     cfg.DailyVolumeCap,
	})
	if haltStore != nil {
		eng.WithHalts(haltStore)
	}
	if tradeCache != nil {
		eng.WithTradeCache(tradeCache)
	}
	if tradeStore != nil {
		eng.WithTradeStore(tradeStore)
	}

	// Create handlers with all dependencies injected
	h := &server.Handlers{
		Engine:  eng,
		Ledger:  ledger,
		Halts:   haltStore,
		DevMode: cfg.DevMode,
		Logger:  logger,
	}
	if tradeCache != nil {
		h.Cache = tradeCache
	}

	// Create HTTP server with configuration and handlers
	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:            cfg.APIAddr,
			DevMode:         cfg.DevMode,
			APIKey:          cfg.APIKey,
			ShutdownTimeout: cfg.ShutdownTimeout,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	// Setup graceful shutdown in a separate goroutine
	go func() {
		<-sigCh // Wait for shutdown signal
		logger.Info("shutting down")
		cancel()                               // Cancel context to stop ongoing operations
		_ = srv.Shutdown(context.Background()) // Gracefully shutdown HTTP server
	}()

	// Start the HTTP server
	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil {
		// "http: Server closed" is expected during graceful shutdown
		if err.Error() == "http: Server closed" {
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}

	// Wait for server to be fully shut down
	if err := srv.WaitClosed(context.Background()); err != nil {
		fmt.Println(err)
	}
}
