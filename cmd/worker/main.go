package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fcevalerio/skyhigh-insights/config"
	"github.com/Fcevalerio/skyhigh-insights/internal/cache"
	"github.com/Fcevalerio/skyhigh-insights/internal/kafka"
	"github.com/Fcevalerio/skyhigh-insights/internal/notify"
	"github.com/Fcevalerio/skyhigh-insights/internal/repository"
	"github.com/Fcevalerio/skyhigh-insights/internal/service/insights"
	kafkaGo "github.com/segmentio/kafka-go"
)

// The worker keeps the result cache honest: a periodic sweep re-warms the
// headline metrics, and dataset-change events trigger targeted invalidation.
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.DatasetEventsTopic)
	defer consumer.Close()

	notifier := notify.NewNotifier(logger)

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.DatasetEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warn("skipping undecodable dataset event", "error", err)
				return nil
			}

			affected, err := service.InvalidateTables(ctx, event.Tables)
			if err != nil {
				logger.Error("cache invalidation failed", "tables", event.Tables, "error", err)
				return nil
			}

			notice := kafka.InvalidationNotice{
				Type:          "cache_invalidated",
				Tables:        event.Tables,
				Metrics:       affected,
				InvalidatedAt: time.Now().UTC(),
			}
			_ = notifier.Notify(ctx, notice)
			if cfg.Kafka.NotificationsTopic != "" {
				if err := producer.Publish(ctx, cfg.Kafka.NotificationsTopic, event.Source, notice); err != nil {
					logger.Error("publish invalidation notice failed", "error", err)
				}
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("consumer stopped", "error", err)
		}
	}()

	warmTicker := time.NewTicker(time.Duration(cfg.Worker.WarmIntervalMinutes) * time.Minute)
	defer warmTicker.Stop()

	if err := service.WarmCache(ctx); err != nil {
		logger.Warn("initial cache warm incomplete", "error", err)
	}

	for {
		select {
		case <-warmTicker.C:
			if err := service.WarmCache(ctx); err != nil {
				logger.Warn("cache warm incomplete", "error", err)
				continue
			}
			logger.Info("cache warmed")
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
