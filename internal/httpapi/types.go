package httpapi

import "github.com/fyrsmithlabs/mentat/internal/learning"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response body for GET /api/v1/stats.
type StatsResponse struct {
	Patterns map[string]learning.PatternStats `json:"patterns"`
}

// EvolutionResponse is the response body for GET /api/v1/evolution.
type EvolutionResponse struct {
	Versions []learning.VersionInfo `json:"versions"`
	Total    int                    `json:"total"`
}

// PatternInfo is one adopted pattern with its positional id.
type PatternInfo struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PatternsResponse is the response body for GET /api/v1/patterns.
type PatternsResponse struct {
	Patterns []PatternInfo `json:"patterns"`
}
