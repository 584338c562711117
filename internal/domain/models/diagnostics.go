package models

import "time"

// ProviderDiagnostics is an operational snapshot of one upstream client.
type ProviderDiagnostics struct {
	Provider   string         `json:"provider"`
	Configured bool           `json:"configured"`
	Disabled   bool           `json:"disabled"`
	Reason     string         `json:"reason,omitempty"`
	RateLimit  RateLimitStats `json:"rateLimit"`
	Cache      CacheStats     `json:"cache"`
	Extra      map[string]any `json:"extra,omitempty"`
}

type RateLimitStats struct {
	InWindow int           `json:"inWindow"`
	MaxCalls int           `json:"maxCalls"`
	Window   time.Duration `json:"window"`
}

type CacheStats struct {
	Size   int      `json:"size"`
	Keys   []string `json:"keys"`
	Hits   int64    `json:"hits"`
	Misses int64    `json:"misses"`
}

// ProbeResult is one provider's entry in the diagnostics report.
type ProbeResult struct {
	ProviderDiagnostics
	Healthy   bool   `json:"healthy"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
}
