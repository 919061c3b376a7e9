package connectors

import (
	"fmt"
	"net/http"
)

// StatusError: апстрим ответил не-2xx. Тело сохраняем для логов, клиенту оно не отдается.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error: %d", e.Service, e.StatusCode)
}

// ServerSide: отказ на стороне апстрима (5xx, 429). Только такие отказы размыкают предохранитель.
func (e *StatusError) ServerSide() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
