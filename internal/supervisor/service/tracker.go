package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/superai/internal/audit"
	"github.com/xela07ax/superai/internal/connectors"
	"github.com/xela07ax/superai/internal/domain"
	"github.com/xela07ax/superai/internal/engine"
	"go.uber.org/zap"
)

const (
	ComponentDiagnosis  = "diagnosis"
	ComponentAutomation = "automation"
)

// operationUnknown: метка метрик для типов/действий вне фиксированного набора.
const operationUnknown = "unknown"

// maxOperationLen ограничивает длину клиентской строки в журнале.
const maxOperationLen = 64

// Tracker сводит в одно место метрики, журнал и лог ошибок для одного вызова.
type Tracker struct {
	auditor audit.Auditor
	metrics *engine.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewTracker(auditor audit.Auditor, metrics *engine.Metrics, logger *zap.Logger) *Tracker {
	return &Tracker{
		auditor: auditor,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Begin открывает учет вызова; возвращенную функцию вызывают с итоговой ошибкой.
// label: значение для метрик (ограниченное множество), operation: как прислал клиент.
func (t *Tracker) Begin(ctx context.Context, component, label, operation, agentID string) func(err error) {
	start := t.now()
	t.metrics.TotalRequests.WithLabelValues(component, label).Inc()

	return func(err error) {
		elapsed := t.now().Sub(start)

		event := audit.Event{
			ID:         uuid.New().String(),
			TraceID:    engine.TraceID(ctx),
			Component:  component,
			Operation:  truncate(operation, maxOperationLen),
			AgentID:    agentID,
			Status:     audit.StatusSuccess,
			Timestamp:  start.UTC(),
			DurationMs: elapsed.Milliseconds(),
		}

		if err != nil {
			kind := domain.KindOf(err)
			event.Status = audit.StatusFailed
			event.ErrorKind = string(kind)
			event.Error = err.Error()

			t.metrics.ErrorTotal.WithLabelValues(component, string(kind)).Inc()
			t.logFailure(event, err)
		}

		t.metrics.RequestDuration.WithLabelValues(component, label, event.Status).Observe(elapsed.Seconds())
		t.auditor.Record(event)
	}
}

// logFailure пишет ошибку целиком, включая статус и тело апстрима.
func (t *Tracker) logFailure(event audit.Event, err error) {
	fields := []zap.Field{
		zap.String("component", event.Component),
		zap.String("operation", event.Operation),
		zap.String("kind", event.ErrorKind),
		zap.String("trace_id", event.TraceID),
		zap.Error(err),
	}

	var sErr *connectors.StatusError
	if errors.As(err, &sErr) {
		fields = append(fields,
			zap.String("upstream", sErr.Service),
			zap.Int("upstream_status", sErr.StatusCode),
			zap.String("upstream_body", sErr.Body))
	}

	t.logger.Error("proxy request failed", fields...)
}

// truncate режет по границе руны: журнал пишется в TEXT и не должен получить битый UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}
