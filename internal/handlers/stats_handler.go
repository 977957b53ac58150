package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/httpresp"
	"github.com/BruksfildServices01/service-marketplace/internal/middleware"
	ucStats "github.com/BruksfildServices01/service-marketplace/internal/usecase/stats"
)

type StatsHandler struct {
	dashboard *ucStats.GetDashboard
	logger    *zap.Logger
}

func NewStatsHandler(dashboard *ucStats.GetDashboard, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{dashboard: dashboard, logger: logger}
}

func (h *StatsHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboard.Execute(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		respond(c, h.logger, err)
		return
	}
	httpresp.OK(c, d)
}
