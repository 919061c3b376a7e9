package feed

import "time"

const (
	TypeAnalysisCompleted = "analysis.completed"
	TypeAgentTriggered    = "agent.triggered"
)

// Event: сообщение ленты супервизора (SupervisorFeed на дашборде).
type Event struct {
	Type      string    `json:"type"`
	TraceID   string    `json:"trace_id"`
	AgentID   string    `json:"agent_id,omitempty"`
	Operation string    `json:"operation"`
	Summary   string    `json:"summary,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// summaryLimit ограничивает длину выдержки из ответа модели.
const summaryLimit = 280

// Summarize обрезает текст до summaryLimit рун.
func Summarize(text string) string {
	r := []rune(text)
	if len(r) <= summaryLimit {
		return text
	}
	return string(r[:summaryLimit]) + "…"
}
