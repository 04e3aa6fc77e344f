package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Fcevalerio/skyhigh-insights/internal/domain"
)

var (
	// ErrStoreUnavailable marks connectivity failures: the backing store
	// could not be reached or the connection died mid-query.
	ErrStoreUnavailable = errors.New("metric store unavailable")

	// ErrBadData marks data failures: a malformed query result or a result
	// that cannot be produced from the stored data.
	ErrBadData = errors.New("bad metric data")
)

// MetricStore is the data access facade contract. Every operation is a pure
// read of the stored data at call time; implementations hold no state between
// calls beyond their connection pool.
type MetricStore interface {
	// Name identifies the backend ("postgres" or "snapshot") for logs and
	// instrumentation labels.
	Name() string

	Ping(ctx context.Context) error
	Close()

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
	AvailableSeatMiles(ctx context.Context) (float64, error)
}

// connectionErrorFragments are substrings that identify a dead or unreachable
// connection as opposed to a query-shape problem.
var connectionErrorFragments = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
	"i/o timeout",
	"no such host",
	"dial tcp",
	"server closed",
	"unexpected eof",
}

// Classify maps a raw driver error onto the store error taxonomy. Context
// cancellation passes through untouched so callers can tell shutdown apart
// from failure.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrBadData) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range connectionErrorFragments {
		if strings.Contains(msg, fragment) {
			return errors.Join(ErrStoreUnavailable, err)
		}
	}
	return errors.Join(ErrBadData, err)
}
