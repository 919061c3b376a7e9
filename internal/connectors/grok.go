package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// GrokService: имя апстрима в логах, метриках и ошибках.
const GrokService = "Grok API"

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest: тело запроса chat-completion (OpenAI-совместимый формат).
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// ChatClient: клиент OpenAI-совместимого chat-completion API (x.ai Grok).
type ChatClient struct {
	baseURL string
	client  *http.Client
}

func NewChatClient(baseURL string, client *http.Client) *ChatClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ChatClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// Complete отправляет один запрос и возвращает текст первого варианта ответа.
// Ключ передается на каждый вызов: он читается из окружения в момент запроса.
func (c *ChatClient) Complete(ctx context.Context, apiKey string, req ChatRequest) (string, error) {
	respBytes, err := doJSON(ctx, c.client, GrokService, http.MethodPost,
		c.baseURL+"/chat/completions", "Bearer "+apiKey, req)
	if err != nil {
		return "", err
	}

	// Минимальная структура, чтобы достать текст
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", GrokService, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices in response", GrokService)
	}
	return chatResp.Choices[0].Message.Content, nil
}
