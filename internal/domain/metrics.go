package domain

// ClassifierMetrics é o snapshot de métricas do classificador exposto em
// GET /v1/metrics/classifier.
type ClassifierMetrics struct {
	TotalRequests       int64   `json:"total_requests"`
	ErrorRate           float64 `json:"error_rate"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
	PromptTokens        int64   `json:"prompt_tokens"`
	CompletionTokens    int64   `json:"completion_tokens"`
	Period              string  `json:"period"`
}
