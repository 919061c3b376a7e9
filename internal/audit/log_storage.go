package audit

import (
	"context"

	"go.uber.org/zap"
)

// LogStorage пишет журнал в лог, когда база не настроена.
type LogStorage struct {
	logger *zap.Logger
}

func NewLogStorage(logger *zap.Logger) *LogStorage {
	return &LogStorage{logger: logger.Named("audit-log")}
}

func (s *LogStorage) WriteBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		s.logger.Debug("audit event",
			zap.String("id", e.ID),
			zap.String("trace_id", e.TraceID),
			zap.String("component", e.Component),
			zap.String("operation", e.Operation),
			zap.String("agent_id", e.AgentID),
			zap.String("status", e.Status),
			zap.String("error_kind", e.ErrorKind),
			zap.Int64("duration_ms", e.DurationMs),
		)
	}
	return nil
}
