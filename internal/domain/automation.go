package domain

import "encoding/json"

type AutomationAction string

const (
	ActionListAgents   AutomationAction = "list-agents"
	ActionTriggerAgent AutomationAction = "trigger-agent"
	ActionAgentHistory AutomationAction = "agent-history"
)

// AutomationRequest: тело запроса к AutomationProxy.
type AutomationRequest struct {
	Action         AutomationAction       `json:"action"`
	AgentID        string                 `json:"agentId,omitempty"`
	Params         map[string]interface{} `json:"params,omitempty"`
	ConversationID string                 `json:"conversationId,omitempty"`
}

// Message достает params.message, если он передан непустой строкой.
func (r AutomationRequest) Message() (string, bool) {
	if r.Params == nil {
		return "", false
	}
	msg, ok := r.Params["message"].(string)
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}

// ListAgentsResult: ответ list-agents. Пустой список означает "не поддерживается", а не "агентов нет".
type ListAgentsResult struct {
	Agents  []json.RawMessage `json:"agents"`
	Message string            `json:"message"`
}

type TriggerResult struct {
	Result json.RawMessage `json:"result"`
}

type HistoryResult struct {
	Conversations json.RawMessage `json:"conversations"`
}
