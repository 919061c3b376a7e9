package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/xela07ax/superai/internal/audit"
	"go.uber.org/zap"
)

// AuditLogProvider описывает контракт для чтения журнала вызовов.
type AuditLogProvider interface {
	FetchLogs(ctx context.Context, agentID, operation string, limit int) ([]audit.Event, error)
}

type AuditHandler struct {
	repo   AuditLogProvider
	logger *zap.Logger
}

func NewAuditHandler(repo AuditLogProvider, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, logger: logger.Named("audit")}
}

// GetLogs возвращает последние вызовы прокси с фильтрацией
// GET /v1/audit?agent_id=...&operation=...&limit=...
func (h *AuditHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Некорректный limit не ошибка: репозиторий подставит значение по умолчанию
	limit, _ := strconv.Atoi(q.Get("limit"))

	logs, err := h.repo.FetchLogs(r.Context(), q.Get("agent_id"), q.Get("operation"), limit)
	if err != nil {
		h.logger.Error("failed to fetch audit logs", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch audit logs"})
		return
	}

	writeJSON(w, http.StatusOK, logs)
}
