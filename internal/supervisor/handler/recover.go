package handler

import (
	"fmt"
	"net/http"

	"github.com/xela07ax/superai/internal/engine"
	"go.uber.org/zap"
)

// Recoverer перехватывает панику в прокси-функции и отдает обычный конверт отказа,
// чтобы дашборд получил JSON {error}, а не пустой ответ.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.String("trace_id", engine.TraceID(r.Context())),
					zap.Stack("stack"))
				writeError(w, fmt.Errorf("panic: %v", rec), "")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
