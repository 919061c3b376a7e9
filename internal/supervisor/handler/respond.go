package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xela07ax/superai/internal/domain"
	"github.com/xela07ax/superai/internal/engine"
)

// ErrorResponse: конверт отказа. Fallback есть только у DiagnosisProxy.
type ErrorResponse struct {
	Error    string `json:"error"`
	Fallback string `json:"fallback,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError отдает любой отказ как 500 {error[, fallback]}.
// Вид ошибки клиент может увидеть только в заголовке X-SuperAI-Error-Kind.
func writeError(w http.ResponseWriter, err error, fallback string) {
	w.Header().Set(engine.HeaderErrorKind, string(domain.KindOf(err)))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:    domain.PublicMessage(err),
		Fallback: fallback,
	})
}
