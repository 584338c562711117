package models

import "time"

// Dashboard field names, as reported in Degraded.
const (
	FieldMarketOverview = "marketOverview"
	FieldTrendingCoins  = "trendingCoins"
	FieldTopGainers     = "topGainers"
	FieldCoinPrices     = "coinPrices"
	FieldNews           = "news"
	FieldAIInsight      = "aiInsight"
	FieldMeme           = "meme"
)

// DashboardFields lists every field in response order.
var DashboardFields = []string{
	FieldMarketOverview, FieldTrendingCoins, FieldTopGainers, FieldCoinPrices,
	FieldNews, FieldAIInsight, FieldMeme,
}

// Dashboard is one complete snapshot. Every field is populated, either with
// live/cached data or with its fallback.
type Dashboard struct {
	MarketOverview ProviderResult[MarketOverview] `json:"marketOverview"`
	TrendingCoins  ProviderResult[[]Coin]         `json:"trendingCoins"`
	TopGainers     ProviderResult[[]Coin]         `json:"topGainers"`
	CoinPrices     ProviderResult[[]Coin]         `json:"coinPrices"`
	News           ProviderResult[[]NewsItem]     `json:"news"`
	AIInsight      ProviderResult[AIInsight]      `json:"aiInsight"`
	Meme           ProviderResult[Meme]           `json:"meme"`
	GeneratedAt    time.Time                      `json:"generatedAt"`
	Degraded       []string                       `json:"degraded,omitempty"`
}
