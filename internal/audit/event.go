package audit

import "time"

// Event: запись журнала об одном вызове прокси.
type Event struct {
	ID        string `json:"id"`        // UUID события
	TraceID   string `json:"trace_id"`  // Сквозной ID запроса
	Component string `json:"component"` // diagnosis / automation
	Operation string `json:"operation"` // analysisType или action
	AgentID   string `json:"agent_id"`  // Над каким агентом работали (если известно)

	// Результат
	Status     string    `json:"status"`     // SUCCESS / FAILED
	ErrorKind  string    `json:"error_kind"` // Пусто при успехе
	Error      string    `json:"error"`      // Полный текст ошибки, включая причину
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
}

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)
