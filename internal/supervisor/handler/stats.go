package handler

import (
	"context"
	"net/http"

	"github.com/xela07ax/superai/internal/domain"
	"go.uber.org/zap"
)

// StatsService Описываем, что нам нужно от репозитория журнала
type StatsService interface {
	GetActivityStats(ctx context.Context) (*domain.ActivityStats, error)
}

type StatsHandler struct {
	service StatsService
	logger  *zap.Logger
}

func NewStatsHandler(s StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{service: s, logger: logger.Named("stats")}
}

// GetStats: GET /v1/stats
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetActivityStats(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch activity stats", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch stats"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
