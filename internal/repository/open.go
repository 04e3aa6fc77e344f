package repository

import (
	"context"
	"fmt"

	"github.com/Fcevalerio/skyhigh-insights/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open selects and connects the metric store backend according to the
// configuration flag. A failed connection is reported, never silently
// swapped for the other backend.
func Open(ctx context.Context, cfg *config.Config) (MetricStore, error) {
	if cfg.Data.UseSnapshot {
		store, err := OpenSnapshotStore(cfg.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("open snapshot store: %w", err)
		}
		return store, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPGMetricStore(pool), nil
}
