package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Fcevalerio/skyhigh-insights/internal/domain"
	"github.com/Fcevalerio/skyhigh-insights/internal/metrics"
	"github.com/Fcevalerio/skyhigh-insights/internal/repository"
)

// Metric names, used as cache-key prefixes and instrumentation labels.
const (
	MetricSummary               = "summary"
	MetricTotalRevenue          = "total_revenue"
	MetricRevenueByRoute        = "revenue_by_route"
	MetricFinancialTrends       = "financial_trends"
	MetricLoadFactor            = "load_factor"
	MetricFleetUtilization      = "fleet_utilization"
	MetricFuelEfficiency        = "fuel_efficiency"
	MetricMaintenanceAlerts     = "maintenance_alerts"
	MetricPassengerDemographics = "passenger_demographics"
	MetricHRMetrics             = "hr_metrics"
	MetricRouteNetwork          = "route_network"
	MetricRASM                  = "rasm"
)

type InsightsUseCase interface {
	Summary(ctx context.Context) (*domain.Summary, error)
	TotalRevenue(ctx context.Context) (*domain.RevenueSummary, error)
	RevenueByRoute(ctx context.Context, f domain.Filter) ([]domain.RouteRevenue, error)
	FinancialTrends(ctx context.Context, f domain.Filter) ([]domain.DailyRevenue, error)
	LoadFactor(ctx context.Context, f domain.Filter) ([]domain.FlightLoad, error)
	FleetUtilization(ctx context.Context) ([]domain.AircraftUtilization, error)
	FuelEfficiency(ctx context.Context) ([]domain.ModelFuelEfficiency, error)
	MaintenanceAlerts(ctx context.Context) ([]domain.MaintenanceAlert, error)
	PassengerDemographics(ctx context.Context) ([]domain.GenderDemographics, error)
	HRMetrics(ctx context.Context, f domain.Filter) ([]domain.DepartmentMetrics, error)
	RouteNetwork(ctx context.Context) ([]domain.RouteLink, error)
	RASM(ctx context.Context) (*domain.RASM, error)
}

// Cache is the consumer-side view of the result cache. A nil Cache disables
// memoization; cache errors degrade to direct store reads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// InsightsService is the data access facade: one method per KPI, cache-aside
// memoization, and a single error taxonomy at the boundary.
type InsightsService struct {
	store repository.MetricStore
	cache Cache
	log   *slog.Logger
}

type InsightsServiceOption func(*InsightsService)

func WithLogger(log *slog.Logger) InsightsServiceOption {
	return func(s *InsightsService) {
		s.log = log
	}
}

func NewInsightsService(store repository.MetricStore, cache Cache, opts ...InsightsServiceOption) *InsightsService {
	service := &InsightsService{
		store: store,
		cache: cache,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// cached runs query through the cache-aside path under the given key. Store
// errors are classified into the repository taxonomy; cache failures are
// logged and otherwise ignored.
func cached[T any](ctx context.Context, s *InsightsService, metric, key string, query func(context.Context) (T, error)) (T, error) {
	var result T
	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warn("result cache read failed", "metric", metric, "error", err)
		case data != nil:
			if err := json.Unmarshal(data, &result); err == nil {
				metrics.CacheHits.WithLabelValues(metric).Inc()
				return result, nil
			}
			s.log.Warn("discarding undecodable cache entry", "metric", metric)
		}
		metrics.CacheMisses.WithLabelValues(metric).Inc()
	}

	start := time.Now()
	result, err := query(ctx)
	metrics.QueryDuration.WithLabelValues(metric, s.store.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		err = repository.Classify(err)
		metrics.QueryErrors.WithLabelValues(metric, s.store.Name(), errorType(err)).Inc()
		s.log.Error("metric query failed", "metric", metric, "backend", s.store.Name(), "error", err)
		var zero T
		return zero, fmt.Errorf("%s: %w", metric, err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, payload); err != nil {
				s.log.Warn("result cache write failed", "metric", metric, "error", err)
			}
		}
	}
	return result, nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, repository.ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, repository.ErrBadData):
		return "bad_data"
	default:
		return "other"
	}
}

func cacheKey(metric string, f domain.Filter) string {
	if suffix := f.Key(); suffix != "" {
		return metric + ":" + suffix
	}
	return metric
}

// ensureRows converts an empty result for an entity-enumerating metric into
// a data error: the source tables are never legitimately empty, so no rows
// means the snapshot or store is broken.
func ensureRows[T any](rows []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: store returned no rows", repository.ErrBadData)
	}
	return rows, nil
}

func (s *InsightsService) Summary(ctx context.Context) (*domain.Summary, error) {
	return cached(ctx, s, MetricSummary, MetricSummary, func(ctx context.Context) (*domain.Summary, error) {
		revenue, err := s.store.TotalRevenue(ctx)
		if err != nil {
			return nil, err
		}
		loads, err := s.store.LoadFactor(ctx, domain.Filter{})
		if err != nil {
			return nil, err
		}
		fleet, err := s.store.FleetUtilization(ctx)
		if err != nil {
			return nil, err
		}
		demographics, err := s.store.PassengerDemographics(ctx)
		if err != nil {
			return nil, err
		}

		summary := &domain.Summary{
			TotalRevenue: revenue.TotalRevenue,
			ActiveFleet:  int64(len(fleet)),
		}
		var sum float64
		var n int
		for _, l := range loads {
			if l.LoadFactor != nil {
				sum += *l.LoadFactor
				n++
			}
		}
		if n > 0 {
			avg := sum / float64(n)
			summary.AvgLoadFactor = &avg
		}
		for _, d := range demographics {
			summary.TotalPassengers += d.PassengerCount
		}
		return summary, nil
	})
}

func (s *InsightsService) TotalRevenue(ctx context.Context) (*domain.RevenueSummary, error) {
	return cached(ctx, s, MetricTotalRevenue, MetricTotalRevenue, s.store.TotalRevenue)
}

func (s *InsightsService) RevenueByRoute(ctx context.Context, f domain.Filter) ([]domain.RouteRevenue, error) {
	return cached(ctx, s, MetricRevenueByRoute, cacheKey(MetricRevenueByRoute, f), func(ctx context.Context) ([]domain.RouteRevenue, error) {
		return ensureRows(s.store.RevenueByRoute(ctx, f))
	})
}

func (s *InsightsService) FinancialTrends(ctx context.Context, f domain.Filter) ([]domain.DailyRevenue, error) {
	return cached(ctx, s, MetricFinancialTrends, cacheKey(MetricFinancialTrends, f), func(ctx context.Context) ([]domain.DailyRevenue, error) {
		return s.store.FinancialTrends(ctx, f)
	})
}

func (s *InsightsService) LoadFactor(ctx context.Context, f domain.Filter) ([]domain.FlightLoad, error) {
	return cached(ctx, s, MetricLoadFactor, cacheKey(MetricLoadFactor, f), func(ctx context.Context) ([]domain.FlightLoad, error) {
		return s.store.LoadFactor(ctx, f)
	})
}

func (s *InsightsService) FleetUtilization(ctx context.Context) ([]domain.AircraftUtilization, error) {
	return cached(ctx, s, MetricFleetUtilization, MetricFleetUtilization, func(ctx context.Context) ([]domain.AircraftUtilization, error) {
		return ensureRows(s.store.FleetUtilization(ctx))
	})
}

func (s *InsightsService) FuelEfficiency(ctx context.Context) ([]domain.ModelFuelEfficiency, error) {
	return cached(ctx, s, MetricFuelEfficiency, MetricFuelEfficiency, func(ctx context.Context) ([]domain.ModelFuelEfficiency, error) {
		return ensureRows(s.store.FuelEfficiency(ctx))
	})
}

func (s *InsightsService) MaintenanceAlerts(ctx context.Context) ([]domain.MaintenanceAlert, error) {
	// An empty alert list is healthy, not a data failure.
	return cached(ctx, s, MetricMaintenanceAlerts, MetricMaintenanceAlerts, s.store.MaintenanceAlerts)
}

func (s *InsightsService) PassengerDemographics(ctx context.Context) ([]domain.GenderDemographics, error) {
	return cached(ctx, s, MetricPassengerDemographics, MetricPassengerDemographics, func(ctx context.Context) ([]domain.GenderDemographics, error) {
		return ensureRows(s.store.PassengerDemographics(ctx))
	})
}

func (s *InsightsService) HRMetrics(ctx context.Context, f domain.Filter) ([]domain.DepartmentMetrics, error) {
	return cached(ctx, s, MetricHRMetrics, cacheKey(MetricHRMetrics, f), func(ctx context.Context) ([]domain.DepartmentMetrics, error) {
		return ensureRows(s.store.HRMetrics(ctx, f))
	})
}

func (s *InsightsService) RouteNetwork(ctx context.Context) ([]domain.RouteLink, error) {
	return cached(ctx, s, MetricRouteNetwork, MetricRouteNetwork, func(ctx context.Context) ([]domain.RouteLink, error) {
		return ensureRows(s.store.RouteNetwork(ctx))
	})
}

// RASM derives revenue per available seat mile from two store scalars. When
// no seat miles were flown the value is nil, never zero.
func (s *InsightsService) RASM(ctx context.Context) (*domain.RASM, error) {
	return cached(ctx, s, MetricRASM, MetricRASM, func(ctx context.Context) (*domain.RASM, error) {
		revenue, err := s.store.TotalRevenue(ctx)
		if err != nil {
			return nil, err
		}
		asm, err := s.store.AvailableSeatMiles(ctx)
		if err != nil {
			return nil, err
		}
		result := &domain.RASM{
			TotalRevenue:       revenue.TotalRevenue,
			AvailableSeatMiles: asm,
		}
		if asm > 0 {
			v := revenue.TotalRevenue / asm
			result.Value = &v
		}
		return result, nil
	})
}

// tableMetrics maps each source table to the metrics computed from it, for
// targeted cache invalidation when a dataset-change event arrives.
var tableMetrics = map[string][]string{
	"tickets":     {MetricTotalRevenue, MetricRevenueByRoute, MetricFinancialTrends, MetricLoadFactor, MetricRouteNetwork, MetricRASM, MetricSummary},
	"flights":     {MetricRevenueByRoute, MetricFinancialTrends, MetricLoadFactor, MetricFleetUtilization, MetricRouteNetwork, MetricRASM, MetricSummary},
	"aircraft":    {MetricLoadFactor, MetricFleetUtilization, MetricFuelEfficiency, MetricMaintenanceAlerts, MetricRASM, MetricSummary},
	"airports":    {MetricRevenueByRoute, MetricLoadFactor, MetricRouteNetwork},
	"routes":      {MetricRevenueByRoute, MetricLoadFactor, MetricRouteNetwork, MetricRASM},
	"passengers":  {MetricPassengerDemographics, MetricSummary},
	"employees":   {MetricHRMetrics},
	"departments": {MetricHRMetrics},
}

// MetricsForTables returns the sorted, deduplicated set of metrics that
// depend on any of the given tables. Unknown tables are ignored.
func MetricsForTables(tables []string) []string {
	seen := map[string]struct{}{}
	for _, table := range tables {
		for _, metric := range tableMetrics[table] {
			seen[metric] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for metric := range seen {
		out = append(out, metric)
	}
	sort.Strings(out)
	return out
}

// InvalidateTables drops every cached result derived from the given tables
// and returns the affected metric names.
func (s *InsightsService) InvalidateTables(ctx context.Context, tables []string) ([]string, error) {
	affected := MetricsForTables(tables)
	if s.cache == nil {
		return affected, nil
	}
	for _, metric := range affected {
		if _, err := s.cache.DeletePrefix(ctx, metric); err != nil {
			return affected, fmt.Errorf("invalidate %s: %w", metric, err)
		}
	}
	return affected, nil
}

// WarmCache primes the headline metrics so the first dashboard render after
// a refresh does not pay the query cost. Individual failures are collected
// rather than aborting the sweep.
func (s *InsightsService) WarmCache(ctx context.Context) error {
	warmers := []func(context.Context) error{
		func(ctx context.Context) error { _, err := s.Summary(ctx); return err },
		func(ctx context.Context) error { _, err := s.TotalRevenue(ctx); return err },
		func(ctx context.Context) error { _, err := s.RevenueByRoute(ctx, domain.Filter{}); return err },
		func(ctx context.Context) error { _, err := s.LoadFactor(ctx, domain.Filter{}); return err },
		func(ctx context.Context) error { _, err := s.FleetUtilization(ctx); return err },
		func(ctx context.Context) error { _, err := s.RASM(ctx); return err },
	}
	var errs []error
	for _, warm := range warmers {
		if err := warm(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ InsightsUseCase = (*InsightsService)(nil)
