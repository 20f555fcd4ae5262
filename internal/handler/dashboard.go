package handler

import (
	"net/http"

	"spacemarket/internal/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the signed-in user's dashboard
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get handles GET /api/v1/dashboard. Sections that failed to load carry
// their own error and the response is still 200.
func (h *DashboardHandler) Get(c *gin.Context) {
	d, err := h.dashboard.Load(c.Request.Context(), currentUID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
