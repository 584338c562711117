package coingecko

import "CoinDash/internal/domain/models"

// Static market data served when CoinGecko cannot be reached. Values are a
// representative snapshot, not live prices.

func FallbackGlobal() models.MarketOverview {
	return models.MarketOverview{
		TotalMarketCap:     2.3e12,
		TotalVolume24h:     8.5e10,
		MarketCapChange24h: 0,
		VolumeChange24h:    0,
	}
}

var fallbackCoins = []models.Coin{
	{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Image: "https://assets.coingecko.com/coins/images/1/large/bitcoin.png", CurrentPrice: 65000, MarketCap: 1.28e12, MarketCapRank: 1, TotalVolume: 3.0e10, High24h: 65000, Low24h: 65000},
	{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", Image: "https://assets.coingecko.com/coins/images/279/large/ethereum.png", CurrentPrice: 3200, MarketCap: 3.85e11, MarketCapRank: 2, TotalVolume: 1.5e10, High24h: 3200, Low24h: 3200},
	{ID: "tether", Symbol: "USDT", Name: "Tether", Image: "https://assets.coingecko.com/coins/images/325/large/Tether.png", CurrentPrice: 1, MarketCap: 1.1e11, MarketCapRank: 3, TotalVolume: 5.0e10, High24h: 1, Low24h: 1},
	{ID: "binancecoin", Symbol: "BNB", Name: "BNB", Image: "https://assets.coingecko.com/coins/images/825/large/bnb-icon2_2x.png", CurrentPrice: 580, MarketCap: 8.5e10, MarketCapRank: 4, TotalVolume: 1.5e9, High24h: 580, Low24h: 580},
	{ID: "solana", Symbol: "SOL", Name: "Solana", Image: "https://assets.coingecko.com/coins/images/4128/large/solana.png", CurrentPrice: 150, MarketCap: 7.0e10, MarketCapRank: 5, TotalVolume: 2.5e9, High24h: 150, Low24h: 150},
	{ID: "ripple", Symbol: "XRP", Name: "XRP", Image: "https://assets.coingecko.com/coins/images/44/large/xrp-symbol-white-128.png", CurrentPrice: 0.55, MarketCap: 3.1e10, MarketCapRank: 6, TotalVolume: 1.2e9, High24h: 0.55, Low24h: 0.55},
	{ID: "usd-coin", Symbol: "USDC", Name: "USDC", Image: "https://assets.coingecko.com/coins/images/6319/large/usdc.png", CurrentPrice: 1, MarketCap: 3.4e10, MarketCapRank: 7, TotalVolume: 6.0e9, High24h: 1, Low24h: 1},
	{ID: "dogecoin", Symbol: "DOGE", Name: "Dogecoin", Image: "https://assets.coingecko.com/coins/images/5/large/dogecoin.png", CurrentPrice: 0.12, MarketCap: 1.7e10, MarketCapRank: 8, TotalVolume: 8.0e8, High24h: 0.12, Low24h: 0.12},
	{ID: "cardano", Symbol: "ADA", Name: "Cardano", Image: "https://assets.coingecko.com/coins/images/975/large/cardano.png", CurrentPrice: 0.45, MarketCap: 1.6e10, MarketCapRank: 9, TotalVolume: 4.0e8, High24h: 0.45, Low24h: 0.45},
	{ID: "tron", Symbol: "TRX", Name: "TRON", Image: "https://assets.coingecko.com/coins/images/1094/large/tron-logo.png", CurrentPrice: 0.12, MarketCap: 1.05e10, MarketCapRank: 10, TotalVolume: 3.0e8, High24h: 0.12, Low24h: 0.12},
}

// FallbackCoins returns up to limit coins from the static list. Every call
// returns a fresh slice.
func FallbackCoins(limit int) []models.Coin {
	if limit <= 0 || limit > len(fallbackCoins) {
		limit = len(fallbackCoins)
	}
	out := make([]models.Coin, limit)
	copy(out, fallbackCoins[:limit])
	return out
}

func FallbackTrending() []models.Coin { return FallbackCoins(7) }

func FallbackGainers(limit int) []models.Coin { return FallbackCoins(limit) }

// FallbackHistory is an empty series for the requested coin.
func FallbackHistory(coinID string, days int, currency string) models.PriceHistory {
	return models.PriceHistory{
		CoinID:       coinID,
		Currency:     currency,
		Days:         days,
		Prices:       []models.PricePoint{},
		MarketCaps:   []models.PricePoint{},
		TotalVolumes: []models.PricePoint{},
	}
}

// FallbackCoin returns the static entry for id, or a placeholder with only the
// id set.
func FallbackCoin(id string) models.Coin {
	for _, c := range fallbackCoins {
		if c.ID == id {
			return c
		}
	}
	return models.Coin{ID: id}
}
