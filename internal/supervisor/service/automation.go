package service

import (
	"context"
	"encoding/json"
	"io"

	"github.com/xela07ax/superai/internal/connectors"
	"github.com/xela07ax/superai/internal/domain"
	"github.com/xela07ax/superai/internal/engine"
	"github.com/xela07ax/superai/internal/feed"
	"github.com/xela07ax/superai/internal/infra"
	"go.uber.org/zap"
)

// ListAgentsUnsupported: пояснение к пустому списку list-agents.
// У платформы нет эндпоинта списка агентов: пустой список значит "не поддерживается".
const ListAgentsUnsupported = "Agent listing is not supported by the Relevance AI API. Trigger agents directly by their ID."

// AutomationService пересылает одно из трех действий в платформу агентов.
type AutomationService struct {
	platform  engine.AgentPlatform
	secrets   infra.SecretProvider
	cfg       infra.RelevanceConfig
	tracker   *Tracker
	publisher feed.Publisher
	logger    *zap.Logger
}

func NewAutomationService(
	platform engine.AgentPlatform,
	secrets infra.SecretProvider,
	cfg infra.RelevanceConfig,
	tracker *Tracker,
	publisher feed.Publisher,
	logger *zap.Logger,
) *AutomationService {
	if cfg.DefaultMessage == "" {
		cfg.DefaultMessage = infra.DefaultTriggerMessage
	}
	return &AutomationService{
		platform:  platform,
		secrets:   secrets,
		cfg:       cfg,
		tracker:   tracker,
		publisher: publisher,
		logger:    logger.Named("automation"),
	}
}

// HandleJSON разбирает тело запроса и выполняет Handle.
func (s *AutomationService) HandleJSON(ctx context.Context, body io.Reader) (interface{}, error) {
	// Отсутствие токена важнее битого тела
	if _, ok := s.secrets.Secret(s.cfg.AuthTokenEnv); !ok {
		cErr := domain.NewConfigurationError(s.cfg.AuthTokenEnv + " is not configured")
		s.tracker.Begin(ctx, ComponentAutomation, operationUnknown, "", "")(cErr)
		return nil, cErr
	}

	var req domain.AutomationRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		pErr := domain.NewParseError(err)
		s.tracker.Begin(ctx, ComponentAutomation, operationUnknown, "", "")(pErr)
		return nil, pErr
	}
	return s.Handle(ctx, req)
}

// Handle возвращает конверт, зависящий от action:
// ListAgentsResult, TriggerResult или HistoryResult.
func (s *AutomationService) Handle(ctx context.Context, req domain.AutomationRequest) (res interface{}, err error) {
	label := string(req.Action)
	switch req.Action {
	case domain.ActionListAgents, domain.ActionTriggerAgent, domain.ActionAgentHistory:
	default:
		label = operationUnknown
	}

	done := s.tracker.Begin(ctx, ComponentAutomation, label, string(req.Action), req.AgentID)
	defer func() { done(err) }()

	// 1. Токен проверяется до разбора действия
	token, ok := s.secrets.Secret(s.cfg.AuthTokenEnv)
	if !ok {
		return nil, domain.NewConfigurationError(s.cfg.AuthTokenEnv + " is not configured")
	}

	s.logger.Info("relevance-agents request",
		zap.String("action", string(req.Action)),
		zap.String("trace_id", engine.TraceID(ctx)))

	// 2. Диспетчеризация
	switch req.Action {
	case domain.ActionListAgents:
		return s.listAgents(), nil
	case domain.ActionTriggerAgent:
		return s.triggerAgent(ctx, token, req)
	case domain.ActionAgentHistory:
		return s.agentHistory(ctx, token, req)
	default:
		return nil, domain.NewInvalidActionError()
	}
}

// listAgents никогда не ходит в сеть.
func (s *AutomationService) listAgents() *domain.ListAgentsResult {
	return &domain.ListAgentsResult{
		Agents:  []json.RawMessage{},
		Message: ListAgentsUnsupported,
	}
}

func (s *AutomationService) triggerAgent(ctx context.Context, token string, req domain.AutomationRequest) (*domain.TriggerResult, error) {
	if req.AgentID == "" {
		return nil, domain.NewInvalidRequestError("agentId is required")
	}

	message, ok := req.Message()
	if !ok {
		message = s.cfg.DefaultMessage
	}

	result, err := s.platform.TriggerAgent(ctx, token, connectors.TriggerPayload{
		Message:   connectors.ChatMessage{Role: "user", Content: message},
		AgentID:   req.AgentID,
		ProjectID: s.cfg.ProjectID,
	})
	if err != nil {
		return nil, domain.NewUpstreamError("Relevance AI trigger error", err)
	}

	s.publisher.Publish(feed.Event{
		Type:      feed.TypeAgentTriggered,
		TraceID:   engine.TraceID(ctx),
		AgentID:   req.AgentID,
		Operation: string(req.Action),
		Summary:   feed.Summarize(message),
	})

	return &domain.TriggerResult{Result: result}, nil
}

func (s *AutomationService) agentHistory(ctx context.Context, token string, req domain.AutomationRequest) (*domain.HistoryResult, error) {
	if req.ConversationID == "" {
		return nil, domain.NewInvalidRequestError("conversationId is required")
	}

	conversations, err := s.platform.GetConversation(ctx, token, req.ConversationID)
	if err != nil {
		return nil, domain.NewUpstreamError("Relevance AI history error", err)
	}
	return &domain.HistoryResult{Conversations: conversations}, nil
}
