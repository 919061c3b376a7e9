package service

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/xela07ax/superai/internal/connectors"
	"github.com/xela07ax/superai/internal/domain"
	"github.com/xela07ax/superai/internal/engine"
	"github.com/xela07ax/superai/internal/feed"
	"github.com/xela07ax/superai/internal/infra"
	"go.uber.org/zap"
)

// isoMillis повторяет формат Date.toISOString(), который ждет фронтенд.
const isoMillis = "2006-01-02T15:04:05.000Z"

// DiagnosisFallback: подсказка клиенту при любом отказе DiagnosisProxy.
const DiagnosisFallback = "AI supervisor analysis temporarily unavailable. Using basic diagnostics."

// DiagnosisService превращает описание агента/инцидента в анализ от LLM.
type DiagnosisService struct {
	chat      engine.ChatCompleter
	secrets   infra.SecretProvider
	cfg       infra.GrokConfig
	tracker   *Tracker
	publisher feed.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewDiagnosisService(
	chat engine.ChatCompleter,
	secrets infra.SecretProvider,
	cfg infra.GrokConfig,
	tracker *Tracker,
	publisher feed.Publisher,
	logger *zap.Logger,
) *DiagnosisService {
	return &DiagnosisService{
		chat:      chat,
		secrets:   secrets,
		cfg:       cfg,
		tracker:   tracker,
		publisher: publisher,
		logger:    logger.Named("diagnosis"),
		now:       time.Now,
	}
}

// DiagnoseJSON разбирает тело запроса и выполняет Diagnose.
// Битый JSON: ParseError, учитывается как отдельный вызов.
func (s *DiagnosisService) DiagnoseJSON(ctx context.Context, body io.Reader) (*domain.AnalysisResult, error) {
	var req domain.AnalysisRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		pErr := domain.NewParseError(err)
		s.tracker.Begin(ctx, ComponentDiagnosis, operationUnknown, "", "")(pErr)
		return nil, pErr
	}
	return s.Diagnose(ctx, req)
}

// Diagnose выполняет один запрос к chat-completion апстриму. Повторов нет.
func (s *DiagnosisService) Diagnose(ctx context.Context, req domain.AnalysisRequest) (res *domain.AnalysisResult, err error) {
	req.Normalize()

	label := string(req.AnalysisType)
	if !req.AnalysisType.Known() {
		label = operationUnknown
	}
	agentID := agentNameOf(req)

	done := s.tracker.Begin(ctx, ComponentDiagnosis, label, string(req.AnalysisType), agentID)
	defer func() { done(err) }()

	// 1. Ключ апстрима читаем на каждый вызов
	apiKey, ok := s.secrets.Secret(s.cfg.APIKeyEnv)
	if !ok {
		return nil, domain.NewConfigurationError("Grok API key not configured")
	}

	// 2. Промпт по шаблону
	prompt := BuildPrompt(req)
	if prompt == "" {
		// Текущее поведение: пустой промпт не отклоняется, запрос уходит как есть
		s.logger.Warn("empty prompt for analysis request",
			zap.String("analysis_type", string(req.AnalysisType)),
			zap.Bool("has_agent_data", req.AgentData != nil),
			zap.Bool("has_incident_data", req.IncidentData != nil))
	}

	s.logger.Info("calling Grok API for analysis",
		zap.String("analysis_type", string(req.AnalysisType)),
		zap.String("trace_id", engine.TraceID(ctx)))

	// 3. Единственный исходящий вызов
	analysis, err := s.chat.Complete(ctx, apiKey, connectors.ChatRequest{
		Model: s.cfg.Model,
		Messages: []connectors.ChatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return nil, domain.NewUpstreamError("Grok API error", err)
	}

	s.logger.Info("Grok analysis complete", zap.String("analysis_type", string(req.AnalysisType)))

	res = &domain.AnalysisResult{
		Analysis:     analysis,
		Timestamp:    s.now().UTC().Format(isoMillis),
		Model:        s.cfg.Model,
		AnalysisType: req.AnalysisType,
	}

	s.publisher.Publish(feed.Event{
		Type:      feed.TypeAnalysisCompleted,
		TraceID:   engine.TraceID(ctx),
		AgentID:   agentID,
		Operation: string(req.AnalysisType),
		Summary:   feed.Summarize(analysis),
	})

	return res, nil
}

// agentNameOf достает имя агента для журнала: из инцидента или из метрик.
func agentNameOf(req domain.AnalysisRequest) string {
	if req.IncidentData != nil && req.IncidentData.AgentName.String() != "" {
		return req.IncidentData.AgentName.String()
	}
	if req.AgentData != nil {
		return req.AgentData.Name.String()
	}
	return ""
}
