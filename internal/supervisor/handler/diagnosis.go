package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/xela07ax/superai/internal/domain"
	"github.com/xela07ax/superai/internal/supervisor/service"
)

// DiagnosisService Описываем, что нам нужно от сервиса
type DiagnosisService interface {
	DiagnoseJSON(ctx context.Context, body io.Reader) (*domain.AnalysisResult, error)
}

type DiagnosisHandler struct {
	service DiagnosisService
}

func NewDiagnosisHandler(s DiagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{service: s}
}

// Diagnose: POST /functions/v1/supervisor-diagnose
func (h *DiagnosisHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	result, err := h.service.DiagnoseJSON(r.Context(), r.Body)
	if err != nil {
		writeError(w, err, service.DiagnosisFallback)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
