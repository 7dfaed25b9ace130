package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forkmarket/market-data/internal/cache"
	"github.com/forkmarket/market-data/internal/config"
	"github.com/forkmarket/market-data/internal/database"
	"github.com/forkmarket/market-data/internal/exchange"
	"github.com/forkmarket/market-data/internal/model"
	"github.com/forkmarket/market-data/internal/server"
	"github.com/forkmarket/market-data/internal/store"
	"github.com/forkmarket/market-data/internal/stream"
	"github.com/forkmarket/market-data/internal/sync"
	"github.com/forkmarket/market-data/internal/trading"
	"github.com/forkmarket/market-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/marketd.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting marketd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"exchange_url", cfg.Exchange.RestURL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create the exchange client
	client := exchange.NewClient(
		cfg.Exchange.RestURL,
		cfg.Exchange.APIKey,
		exchange.WithLogger(logger),
		exchange.WithTimeout(cfg.Exchange.Timeout),
		exchange.WithFetchRate(cfg.Exchange.FetchRate, cfg.Exchange.FetchBurst),
	)

	// Local read store
	st := store.New(pool, logger)

	// Snapshot synchronization
	syncSvc := sync.New(sync.Config{
		BatchSize:          cfg.Sync.BatchSize,
		StalenessThreshold: cfg.Sync.StalenessThreshold,
		RecentTradesLimit:  cfg.Sync.RecentTradesLimit,
	}, sync.NewExchangeFetcher(client), st, st, logger).
		WithEventCache(cache.New[string, model.Event](cfg.Sync.CacheSize, cfg.Sync.CacheTTL, nil))

	// Order submission
	feeCache := cache.New[string, model.FeeSettings](cfg.Sync.CacheSize, cfg.Sync.CacheTTL, nil)
	pipeline := trading.New(trading.Config{
		ReferrerAddress: cfg.Trading.ReferrerAddress,
		ConditionExpiry: cfg.Trading.ConditionExpiry,
	}, st, client, feeCache, logger)

	// Live trade feed
	if cfg.Stream.Enabled {
		feed := stream.NewFeed(stream.Config{
			URL:                cfg.Exchange.WSURL,
			APIKey:             cfg.Exchange.APIKey,
			ReconnectBaseDelay: cfg.Stream.ReconnectBaseDelay,
			ReconnectMaxDelay:  cfg.Stream.ReconnectMaxDelay,
			PingTimeout:        cfg.Stream.PingTimeout,
			WriteTimeout:       cfg.Stream.WriteTimeout,
		}, st, st, logger)
		feed.Start(ctx)
		defer feed.Stop()

		logger.Info("trade feed started", "url", cfg.Exchange.WSURL)
	}

	// HTTP API
	srv := server.New(cfg.Server.Port, st, syncSvc, client, pipeline, pool, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("marketd running",
		"instance_id", cfg.Instance.ID,
		"port", cfg.Server.Port,
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}

	// Let in-flight background refreshes finish writing.
	syncSvc.Wait()

	logger.Info("marketd stopped")
}
