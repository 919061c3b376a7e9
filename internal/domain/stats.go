package domain

// ActivityStats: сводка по вызовам прокси за последний час (из журнала аудита).
type ActivityStats struct {
	TotalRequests  int64            `json:"total_requests"`
	FailedRequests int64            `json:"failed_requests"`
	FailureRatio   float64          `json:"failure_ratio"`
	P95LatencyMs   float64          `json:"p95_latency_ms"`
	ByOperation    map[string]int64 `json:"by_operation"`
	ErrorsByKind   map[string]int64 `json:"errors_by_kind"`
	HourlyActivity []ActivityPoint  `json:"hourly_activity"`
}

type ActivityPoint struct {
	Bucket string `json:"bucket"` // Начало 5-минутного окна, RFC3339
	Count  int64  `json:"count"`
}
