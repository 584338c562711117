package models

import "time"

type InsightType string

const (
	InsightMarketAnalysis InsightType = "MARKET_ANALYSIS"
	InsightEducational    InsightType = "EDUCATIONAL"
	InsightPrediction     InsightType = "PREDICTION"
	InsightTips           InsightType = "TIPS"
)

type AIInsight struct {
	ID         string      `json:"id"`
	Content    string      `json:"content"`
	Type       InsightType `json:"type"`
	Confidence float64     `json:"confidence"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// KeyStatus describes the AI provider key as reported by the provider.
type KeyStatus struct {
	Valid      bool     `json:"isValid"`
	Usage      *float64 `json:"usage,omitempty"`
	Limit      *float64 `json:"limit,omitempty"`
	IsFreeTier *bool    `json:"isFreeTier,omitempty"`
}
