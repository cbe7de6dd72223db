package models

import "time"

// UsageRecord is one billed interaction with the external services.
type UsageRecord struct {
	ID               string    `json:"id"`
	Endpoint         string    `json:"endpoint"`     // e.g. "translate", "extract", "glossary_build"
	RequestType      string    `json:"request_type"` // "translation", "ocr", "embedding"
	EmbeddingTokens  int       `json:"embedding_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	Cost             float64   `json:"cost"`
	Timestamp        time.Time `json:"timestamp"`
}

// EndpointUsage aggregates usage per endpoint.
type EndpointUsage struct {
	Requests int     `json:"requests"`
	Tokens   int     `json:"tokens"`
	Cost     float64 `json:"cost"`
}

// UsageSummary is the public cost view: running totals without the
// per-endpoint breakdown or the activity log.
type UsageSummary struct {
	TotalRequests int     `json:"total_requests"`
	TotalTokens   int     `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
}

// UsageStats is a consistent point-in-time view of accumulated usage.
type UsageStats struct {
	TotalRequests    int                      `json:"total_requests"`
	EmbeddingTokens  int                      `json:"embedding_tokens"`
	CompletionTokens int                      `json:"completion_tokens"`
	TotalTokens      int                      `json:"total_tokens"`
	EmbeddingCost    float64                  `json:"embedding_cost"`
	CompletionCost   float64                  `json:"completion_cost"`
	TotalCost        float64                  `json:"total_cost"`
	ByEndpoint       map[string]EndpointUsage `json:"endpoint_breakdown"`
	Recent           []UsageRecord            `json:"recent_activity"`
}
