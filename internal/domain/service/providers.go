package service

import (
	"context"

	"CoinDash/internal/domain/models"
)

// The Get methods below never fail: on any upstream problem they return the
// provider's fallback data tagged with models.SourceFallback.

type MarketProvider interface {
	GetGlobal(ctx context.Context) models.ProviderResult[models.MarketOverview]
	GetTrending(ctx context.Context) models.ProviderResult[[]models.Coin]
	GetTopGainers(ctx context.Context, limit int) models.ProviderResult[[]models.Coin]
	GetTopCoins(ctx context.Context, limit int, currency string) models.ProviderResult[[]models.Coin]
	GetHistory(ctx context.Context, coinID string, days int, currency string) models.ProviderResult[models.PriceHistory]
}

type NewsProvider interface {
	GetNews(ctx context.Context, q models.NewsQuery) models.ProviderResult[[]models.NewsItem]
	GetTrendingNews(ctx context.Context, limit int) models.ProviderResult[[]models.NewsItem]
}

type InsightProvider interface {
	GetInsight(ctx context.Context, prefs models.Preferences) models.ProviderResult[models.AIInsight]
}

type MemeProvider interface {
	RandomMeme(ctx context.Context) models.ProviderResult[models.Meme]
	MemeByCategory(ctx context.Context, category models.MemeCategory) models.ProviderResult[models.Meme]
	MemeByTags(ctx context.Context, tags []string) models.ProviderResult[models.Meme]
}

// Probe is the diagnostic surface every upstream client exposes. Unlike the
// Get methods, Ping reports failures.
type Probe interface {
	Name() string
	Ping(ctx context.Context) error
	Diagnostics() models.ProviderDiagnostics
}
