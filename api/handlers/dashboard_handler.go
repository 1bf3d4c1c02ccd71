package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mkraemer/weekmaster/internal/service"
)

// DashboardHandler serves the aggregate views.
type DashboardHandler struct {
	views *service.ViewService
}

func NewDashboardHandler(views *service.ViewService) *DashboardHandler {
	return &DashboardHandler{views: views}
}

// Stats handles GET /dashboard/stats.
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.views.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Recent handles GET /dashboard/recent.
func (h *DashboardHandler) Recent(c *gin.Context) {
	rows, err := h.views.RecentTasks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// Priorities handles GET /dashboard/priorities.
func (h *DashboardHandler) Priorities(c *gin.Context) {
	stats, err := h.views.PriorityDistribution(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
