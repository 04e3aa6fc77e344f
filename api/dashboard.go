package api

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed index.html
var dashboardHTML []byte

// DashboardHandler serves the single-page dashboard. All numbers on the page
// come from the JSON metric routes; this handler owns no business logic.
type DashboardHandler struct{}

func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

func (h *DashboardHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.index)
}

func (h *DashboardHandler) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", dashboardHTML)
}
