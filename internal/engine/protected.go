package engine

import (
	"context"
	"encoding/json"

	"github.com/xela07ax/superai/internal/connectors"
)

// ChatCompleter: то, что DiagnosisProxy ждет от chat-completion апстрима.
type ChatCompleter interface {
	Complete(ctx context.Context, apiKey string, req connectors.ChatRequest) (string, error)
}

// AgentPlatform: то, что AutomationProxy ждет от платформы агентов.
type AgentPlatform interface {
	TriggerAgent(ctx context.Context, token string, payload connectors.TriggerPayload) (json.RawMessage, error)
	GetConversation(ctx context.Context, token, conversationID string) (json.RawMessage, error)
}

// ProtectedChat оборачивает ChatCompleter в ReliabilityWrapper.
type ProtectedChat struct {
	next ChatCompleter
	rw   *ReliabilityWrapper
}

func NewProtectedChat(next ChatCompleter, rw *ReliabilityWrapper) *ProtectedChat {
	return &ProtectedChat{next: next, rw: rw}
}

func (p *ProtectedChat) Complete(ctx context.Context, apiKey string, req connectors.ChatRequest) (string, error) {
	res, err := p.rw.Call(ctx, func(ctx context.Context) (interface{}, error) {
		return p.next.Complete(ctx, apiKey, req)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

// ProtectedPlatform оборачивает AgentPlatform в ReliabilityWrapper.
type ProtectedPlatform struct {
	next AgentPlatform
	rw   *ReliabilityWrapper
}

func NewProtectedPlatform(next AgentPlatform, rw *ReliabilityWrapper) *ProtectedPlatform {
	return &ProtectedPlatform{next: next, rw: rw}
}

func (p *ProtectedPlatform) TriggerAgent(ctx context.Context, token string, payload connectors.TriggerPayload) (json.RawMessage, error) {
	res, err := p.rw.Call(ctx, func(ctx context.Context) (interface{}, error) {
		return p.next.TriggerAgent(ctx, token, payload)
	})
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}

func (p *ProtectedPlatform) GetConversation(ctx context.Context, token, conversationID string) (json.RawMessage, error) {
	res, err := p.rw.Call(ctx, func(ctx context.Context) (interface{}, error) {
		return p.next.GetConversation(ctx, token, conversationID)
	})
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}
