package handler

import (
	"context"
	"io"
	"net/http"
)

// AutomationService Описываем, что нам нужно от сервиса
type AutomationService interface {
	HandleJSON(ctx context.Context, body io.Reader) (interface{}, error)
}

type AutomationHandler struct {
	service AutomationService
}

func NewAutomationHandler(s AutomationService) *AutomationHandler {
	return &AutomationHandler{service: s}
}

// Dispatch: POST /functions/v1/relevance-agents
func (h *AutomationHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	envelope, err := h.service.HandleJSON(r.Context(), r.Body)
	if err != nil {
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, envelope)
}
