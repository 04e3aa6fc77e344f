package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Fcevalerio/skyhigh-insights/internal/domain"
	"github.com/Fcevalerio/skyhigh-insights/internal/repository"
	"github.com/Fcevalerio/skyhigh-insights/internal/service/insights"
	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	service insights.InsightsUseCase
}

func NewMetricsHandler(service insights.InsightsUseCase) *MetricsHandler {
	return &MetricsHandler{service: service}
}

func (h *MetricsHandler) Register(router *gin.RouterGroup) {
	router.GET("/summary", h.summary)
	router.GET("/revenue/total", h.totalRevenue)
	router.GET("/revenue/by-route", h.revenueByRoute)
	router.GET("/revenue/trends", h.financialTrends)
	router.GET("/revenue/rasm", h.rasm)
	router.GET("/load-factor", h.loadFactor)
	router.GET("/fleet/utilization", h.fleetUtilization)
	router.GET("/fleet/fuel-efficiency", h.fuelEfficiency)
	router.GET("/fleet/maintenance-alerts", h.maintenanceAlerts)
	router.GET("/passengers/demographics", h.passengerDemographics)
	router.GET("/hr/departments", h.hrMetrics)
	router.GET("/routes/network", h.routeNetwork)
}

// parseFilter binds the optional query parameters shared by the filtered
// metrics: from/to as YYYY-MM-DD, route_id and department_id as integers.
func parseFilter(c *gin.Context) (domain.Filter, error) {
	var f domain.Filter
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("invalid from date, want YYYY-MM-DD")
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, errors.New("invalid to date, want YYYY-MM-DD")
		}
		// Inclusive upper bound: extend to end of day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		f.To = &t
	}
	if v := c.Query("route_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid route_id")
		}
		f.RouteID = &id
	}
	if v := c.Query("department_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid department_id")
		}
		f.DepartmentID = &id
	}
	return f, nil
}

// respondError maps the facade error taxonomy onto HTTP statuses. The
// process stays interactive: the caller may simply re-trigger the request.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, repository.ErrBadData):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *MetricsHandler) summary(c *gin.Context) {
	result, err := h.service.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) totalRevenue(c *gin.Context) {
	result, err := h.service.TotalRevenue(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) revenueByRoute(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.service.RevenueByRoute(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) financialTrends(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.service.FinancialTrends(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) rasm(c *gin.Context) {
	result, err := h.service.RASM(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) loadFactor(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.service.LoadFactor(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) fleetUtilization(c *gin.Context) {
	result, err := h.service.FleetUtilization(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) fuelEfficiency(c *gin.Context) {
	result, err := h.service.FuelEfficiency(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) maintenanceAlerts(c *gin.Context) {
	result, err := h.service.MaintenanceAlerts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) passengerDemographics(c *gin.Context) {
	result, err := h.service.PassengerDemographics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) hrMetrics(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.service.HRMetrics(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MetricsHandler) routeNetwork(c *gin.Context) {
	result, err := h.service.RouteNetwork(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
