package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fcevalerio/skyhigh-insights/config"
	"github.com/Fcevalerio/skyhigh-insights/internal/bootstrap"
	"github.com/Fcevalerio/skyhigh-insights/internal/cache"
	"github.com/Fcevalerio/skyhigh-insights/internal/repository"
	"github.com/Fcevalerio/skyhigh-insights/internal/service/insights"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open metric store: %v", err)
	}
	defer store.Close()

	resultCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Cache.ResultsTTLSeconds)*time.Second)
	defer resultCache.Close()

	service := insights.NewInsightsService(store, resultCache, insights.WithLogger(logger))

	logger.Info("starting dashboard server", "address", cfg.HTTP.Address, "backend", store.Name())
	if err := bootstrap.Run(ctx, cfg, store, service, logger); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
