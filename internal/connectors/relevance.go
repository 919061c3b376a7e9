package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	RelevanceTriggerService = "Relevance AI trigger"
	RelevanceHistoryService = "Relevance AI history"
)

// TriggerPayload: тело запуска агента: сообщение пользователя, агент и проект.
type TriggerPayload struct {
	Message   ChatMessage `json:"message"`
	AgentID   string      `json:"agent_id"`
	ProjectID string      `json:"project"`
}

// RelevanceClient: клиент REST API платформы автоматизации агентов.
type RelevanceClient struct {
	baseURL string
	client  *http.Client
}

func NewRelevanceClient(baseURL string, client *http.Client) *RelevanceClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &RelevanceClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// TriggerAgent ставит задачу агенту. Тело ответа возвращается как есть.
func (c *RelevanceClient) TriggerAgent(ctx context.Context, token string, payload TriggerPayload) (json.RawMessage, error) {
	respBytes, err := doJSON(ctx, c.client, RelevanceTriggerService, http.MethodPost,
		c.baseURL+"/agents/trigger", token, payload)
	if err != nil {
		return nil, err
	}
	return asRawJSON(RelevanceTriggerService, respBytes)
}

// GetConversation возвращает историю разговора агента как есть.
func (c *RelevanceClient) GetConversation(ctx context.Context, token, conversationID string) (json.RawMessage, error) {
	respBytes, err := doJSON(ctx, c.client, RelevanceHistoryService, http.MethodGet,
		c.baseURL+"/agents/conversations/"+url.PathEscape(conversationID), token, nil)
	if err != nil {
		return nil, err
	}
	return asRawJSON(RelevanceHistoryService, respBytes)
}

// asRawJSON не дает встроить в конверт невалидный JSON: ответ либо целиком корректен, либо ошибка.
func asRawJSON(service string, data []byte) (json.RawMessage, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: response is not valid JSON", service)
	}
	return json.RawMessage(data), nil
}
