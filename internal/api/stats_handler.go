package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"daily-charge/internal/service"
)

// StatsHandler serves the derived metrics and the raw day rows behind them.
type StatsHandler struct {
	svc *service.StatsService
	log *zap.SugaredLogger
}

func NewStatsHandler(svc *service.StatsService, log *zap.SugaredLogger) *StatsHandler {
	return &StatsHandler{svc: svc, log: log}
}

func (h *StatsHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context(), currentUserID(c), time.Now())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *StatsHandler) Days(c *gin.Context) {
	days, err := h.svc.ListDays(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}
