package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Fcevalerio/skyhigh-insights/internal/domain"
	"github.com/Fcevalerio/skyhigh-insights/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockInsightsUseCase is a mock implementation of insights.InsightsUseCase.
type MockInsightsUseCase struct {
	mock.Mock
}

func (m *MockInsightsUseCase) Summary(ctx context.Context) (*domain.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Summary), args.Error(1)
}

func (m *MockInsightsUseCase) TotalRevenue(ctx context.Context) (*domain.RevenueSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RevenueSummary), args.Error(1)
}

func (m *MockInsightsUseCase) RevenueByRoute(ctx context.Context, f domain.Filter) ([]domain.RouteRevenue, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RouteRevenue), args.Error(1)
}

func (m *MockInsightsUseCase) FinancialTrends(ctx context.Context, f domain.Filter) ([]domain.DailyRevenue, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyRevenue), args.Error(1)
}

func (m *MockInsightsUseCase) LoadFactor(ctx context.Context, f domain.Filter) ([]domain.FlightLoad, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightLoad), args.Error(1)
}

func (m *MockInsightsUseCase) FleetUtilization(ctx context.Context) ([]domain.AircraftUtilization, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AircraftUtilization), args.Error(1)
}

func (m *MockInsightsUseCase) FuelEfficiency(ctx context.Context) ([]domain.ModelFuelEfficiency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ModelFuelEfficiency), args.Error(1)
}

func (m *MockInsightsUseCase) MaintenanceAlerts(ctx context.Context) ([]domain.MaintenanceAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MaintenanceAlert), args.Error(1)
}

func (m *MockInsightsUseCase) PassengerDemographics(ctx context.Context) ([]domain.GenderDemographics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GenderDemographics), args.Error(1)
}

func (m *MockInsightsUseCase) HRMetrics(ctx context.Context, f domain.Filter) ([]domain.DepartmentMetrics, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DepartmentMetrics), args.Error(1)
}

func (m *MockInsightsUseCase) RouteNetwork(ctx context.Context) ([]domain.RouteLink, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RouteLink), args.Error(1)
}

func (m *MockInsightsUseCase) RASM(ctx context.Context) (*domain.RASM, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RASM), args.Error(1)
}

func newTestRouter(service *MockInsightsUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewMetricsHandler(service).Register(router.Group("/api/v1/metrics"))
	return router
}

func TestMetricsHandler_TotalRevenue(t *testing.T) {
	mockService := &MockInsightsUseCase{}
	router := newTestRouter(mockService)

	mockService.On("TotalRevenue", mock.Anything).Return(&domain.RevenueSummary{TotalRevenue: 450, TicketCount: 3, AvgTicketPrice: 150}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/revenue/total", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var body domain.RevenueSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 450.0, body.TotalRevenue)

	mockService.AssertExpectations(t)
}

func TestMetricsHandler_LoadFactor_ParsesFilter(t *testing.T) {
	mockService := &MockInsightsUseCase{}
	router := newTestRouter(mockService)

	mockService.On("LoadFactor", mock.Anything, mock.MatchedBy(func(f domain.Filter) bool {
		return f.RouteID != nil && *f.RouteID == 7 &&
			f.From != nil && f.From.Format("2006-01-02") == "2024-01-01" &&
			f.To != nil
	})).Return([]domain.FlightLoad{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/load-factor?route_id=7&from=2024-01-01&to=2024-01-31", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestMetricsHandler_LoadFactor_RendersNotApplicable(t *testing.T) {
	mockService := &MockInsightsUseCase{}
	router := newTestRouter(mockService)

	mockService.On("LoadFactor", mock.Anything, domain.Filter{}).Return([]domain.FlightLoad{
		{FlightID: 2, SeatCapacity: 0, PassengersBooked: 12, LoadFactor: nil},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/load-factor", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	// null, not 0: consumers must not misread unknown capacity as empty.
	assert.Contains(t, w.Body.String(), `"load_factor":null`)
	mockService.AssertExpectations(t)
}

func TestMetricsHandler_BadDateIsBadRequest(t *testing.T) {
	mockService := &MockInsightsUseCase{}
	router := newTestRouter(mockService)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/load-factor?from=January", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "LoadFactor", mock.Anything, mock.Anything)
}

func TestMetricsHandler_StoreUnavailableIs503(t *testing.T) {
	mockService := &MockInsightsUseCase{}
	router := newTestRouter(mockService)

	mockService.On("Summary", mock.Anything).Return(nil, errors.Join(repository.ErrStoreUnavailable, errors.New("connection refused")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/summary", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "error")
	mockService.AssertExpectations(t)
}

func TestMetricsHandler_BadDataIs422(t *testing.T) {
	mockService := &MockInsightsUseCase{}
	router := newTestRouter(mockService)

	mockService.On("FleetUtilization", mock.Anything).Return(nil, errors.Join(repository.ErrBadData, errors.New("store returned no rows")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/fleet/utilization", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	mockService.AssertExpectations(t)
}
