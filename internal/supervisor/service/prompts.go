package service

import (
	"fmt"

	"github.com/xela07ax/superai/internal/domain"
)

// SystemPrompt задает персону супервизора и форму ответа.
const SystemPrompt = `You are SuperAI, an expert AI operations supervisor. You monitor AI agents, diagnose issues, and suggest fixes.

Your analysis should be:
- Technical yet clear
- Actionable and specific
- Risk-aware and cautious
- Focused on automated recovery

Always structure your responses clearly with numbered points.`

const diagnoseTemplate = `Analyze this AI agent incident and provide root-cause diagnosis:

Agent: %s
Status: %s
Error: %s
Metrics: Success Rate %s%%, Latency %sms
Last Issue: %s

Provide:
1. Root cause analysis (2-3 sentences)
2. Specific fix recommendation
3. Risk assessment (low/medium/high)
4. Estimated recovery time`

const suggestFixTemplate = `Generate a specific fix for this AI agent issue:

Agent: %s
Problem: %s
Root Cause: %s

Provide a detailed, actionable fix with:
1. Exact steps to resolve
2. Code/config changes needed
3. Validation approach
4. Rollback plan if fix fails`

const healthCheckTemplate = `Analyze this AI agent's health metrics:

Agent: %s
Success Rate: %s%%
Average Latency: %sms
Total Requests: %s
Last Updated: %s

Identify:
1. Any degradation patterns
2. Performance anomalies
3. Proactive recommendations
4. Priority level (low/medium/high)`

// BuildPrompt выбирает шаблон по типу анализа.
// Неизвестный тип или отсутствие нужного под-объекта дает пустой промпт:
// запрос все равно уходит в апстрим.
func BuildPrompt(req domain.AnalysisRequest) string {
	agent := req.AgentData
	if agent == nil {
		agent = &domain.AgentData{}
	}

	switch {
	case req.AnalysisType == domain.AnalysisDiagnose && req.IncidentData != nil:
		inc := req.IncidentData
		return fmt.Sprintf(diagnoseTemplate,
			inc.AgentName, inc.Status, inc.Error,
			agent.SuccessRate, agent.Latency,
			agent.LastIssue)

	case req.AnalysisType == domain.AnalysisSuggestFix && req.IncidentData != nil:
		inc := req.IncidentData
		return fmt.Sprintf(suggestFixTemplate,
			inc.AgentName, inc.Description,
			orDefault(inc.RootCause, "Unknown"))

	case req.AnalysisType == domain.AnalysisHealthCheck && req.AgentData != nil:
		return fmt.Sprintf(healthCheckTemplate,
			agent.Name, agent.SuccessRate, agent.Latency,
			orDefault(agent.TotalRequests, "N/A"),
			agent.LastUpdated)
	}

	return ""
}

func orDefault(v domain.Scalar, def string) string {
	if v.IsZero() {
		return def
	}
	return v.String()
}
