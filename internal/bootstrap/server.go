package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Fcevalerio/skyhigh-insights/api"
	"github.com/Fcevalerio/skyhigh-insights/config"
	"github.com/Fcevalerio/skyhigh-insights/internal/middleware"
	"github.com/Fcevalerio/skyhigh-insights/internal/repository"
	"github.com/Fcevalerio/skyhigh-insights/internal/service/insights"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run starts the dashboard HTTP server and blocks until the context is
// canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, store repository.MetricStore, svc insights.InsightsUseCase, log *slog.Logger) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: NewRouter(store, svc, log),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewRouter wires the gin engine: dashboard page at /, JSON metrics under
// /api/v1/metrics, plus health and Prometheus endpoints.
func NewRouter(store repository.MetricStore, svc insights.InsightsUseCase, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(log))

	api.NewDashboardHandler().Register(router.Group("/"))
	api.NewMetricsHandler(svc).Register(router.Group("/api/v1/metrics"))

	router.GET("/healthz", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "backend": store.Name(), "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": store.Name()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
