package cryptopanic

import (
	"time"

	"CoinDash/internal/domain/models"
)

// FallbackNews is the fixed list served without credentials or on failure.
// Publication times are relative to now.
func FallbackNews(now time.Time) []models.NewsItem {
	return []models.NewsItem{
		{
			ID:          "fallback-1",
			Title:       "Hong Kong Firm Allocates HK$450M for Crypto Ventures",
			URL:         "https://coincu.com/news/hong-kong-firm-allocates-hk450m-for-crypto-ventures/",
			Source:      "coincu.com",
			PublishedAt: now,
			Tags:        []string{"NYLA", "HONG KONG", "VENTURE CAPITAL"},
			DataSource:  models.NewsSourceFallback,
		},
		{
			ID:          "fallback-2",
			Title:       "Elon Musk's lawyer to chair $200M Dogecoin treasury: Report",
			URL:         "https://theholycoins.com/news/elon-musk-lawyer-dogecoin-treasury/",
			Source:      "theholycoins.com",
			PublishedAt: now.Add(-10 * time.Minute),
			Tags:        []string{"DOGE", "BTC", "ELON MUSK"},
			DataSource:  models.NewsSourceFallback,
		},
		{
			ID:          "fallback-3",
			Title:       "Bitcoin ETF Inflows Continue as Institutional Adoption Grows",
			URL:         "https://cryptonews.com/news/bitcoin-etf-inflows-institutional-adoption/",
			Source:      "cryptonews.com",
			PublishedAt: now.Add(-30 * time.Minute),
			Tags:        []string{"BTC", "ETF", "INSTITUTIONAL"},
			DataSource:  models.NewsSourceFallback,
		},
	}
}

func fallbackNews(now time.Time, limit int) []models.NewsItem {
	items := FallbackNews(now)
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
