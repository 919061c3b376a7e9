package domain

type AnalysisType string

const (
	AnalysisDiagnose    AnalysisType = "diagnose"
	AnalysisSuggestFix  AnalysisType = "suggest-fix"
	AnalysisHealthCheck AnalysisType = "health-check"
)

// Known сообщает, входит ли тип в фиксированный набор шаблонов.
func (t AnalysisType) Known() bool {
	switch t {
	case AnalysisDiagnose, AnalysisSuggestFix, AnalysisHealthCheck:
		return true
	}
	return false
}

// AnalysisRequest: тело запроса к DiagnosisProxy.
type AnalysisRequest struct {
	AgentData    *AgentData    `json:"agentData,omitempty"`
	IncidentData *IncidentData `json:"incidentData,omitempty"`
	AnalysisType AnalysisType  `json:"analysisType"`
}

// Normalize проставляет тип анализа по умолчанию (diagnose), если клиент его не указал.
func (r *AnalysisRequest) Normalize() {
	if r.AnalysisType == "" {
		r.AnalysisType = AnalysisDiagnose
	}
}

// AnalysisResult: ответ DiagnosisProxy.
type AnalysisResult struct {
	Analysis     string       `json:"analysis"`
	Timestamp    string       `json:"timestamp"` // ISO-8601, время получения ответа сервисом
	Model        string       `json:"model"`
	AnalysisType AnalysisType `json:"analysisType"`
}
