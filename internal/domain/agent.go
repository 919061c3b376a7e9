package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Scalar: скалярное значение из тела запроса дашборда.
// Фронтенд присылает метрики то строкой, то числом ("84" / 84),
// поэтому храним текстовое представление и признак того, была ли запись строкой.
type Scalar struct {
	text    string
	literal bool // число или bool без кавычек
}

// Text создает строковое значение, как если бы оно пришло в кавычках.
func Text(s string) Scalar { return Scalar{text: s} }

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = Scalar{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Text(str)
		return nil
	}

	// Числа и bool оставляем в исходной записи (84, 84.5, true)
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*s = Scalar{text: buf.String(), literal: true}
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if s.literal {
		return []byte(s.text), nil
	}
	return json.Marshal(s.text)
}

func (s Scalar) String() string { return s.text }

// IsZero повторяет семантику falsy-значений клиента: пустая строка, числовой ноль и false.
// Строки "0" и "false" значением считаются.
func (s Scalar) IsZero() bool {
	if s.text == "" {
		return true
	}
	if !s.literal {
		return false
	}
	if s.text == "false" {
		return true
	}
	f, err := strconv.ParseFloat(s.text, 64)
	return err == nil && f == 0
}

// AgentData: снимок метрик агента, который дашборд прикладывает к запросу анализа.
type AgentData struct {
	Name          Scalar `json:"name"`
	SuccessRate   Scalar `json:"successRate"`
	Latency       Scalar `json:"latency"`
	LastIssue     Scalar `json:"lastIssue"`
	LastUpdated   Scalar `json:"lastUpdated"`
	TotalRequests Scalar `json:"totalRequests"`
}

// IncidentData описывает инцидент, по которому запрашивается диагностика.
type IncidentData struct {
	AgentName   Scalar `json:"agentName"`
	Status      Scalar `json:"status"`
	Error       Scalar `json:"error"`
	Description Scalar `json:"description"`
	RootCause   Scalar `json:"rootCause"`
}
