package models

// Coin is one market listing entry. Percentage changes for 1h and 7d are
// optional upstream and stay nil when absent.
type Coin struct {
	ID                       string     `json:"id"`
	Symbol                   string     `json:"symbol"`
	Name                     string     `json:"name"`
	Image                    string     `json:"image"`
	CurrentPrice             float64    `json:"current_price"`
	MarketCap                float64    `json:"market_cap"`
	MarketCapRank            int        `json:"market_cap_rank"`
	TotalVolume              float64    `json:"total_volume"`
	High24h                  float64    `json:"high_24h"`
	Low24h                   float64    `json:"low_24h"`
	PriceChange24h           float64    `json:"price_change_24h"`
	PriceChangePercentage24h float64    `json:"price_change_percentage_24h"`
	PriceChangePercentage1h  *float64   `json:"price_change_percentage_1h_in_currency,omitempty"`
	PriceChangePercentage7d  *float64   `json:"price_change_percentage_7d_in_currency,omitempty"`
	SparklineIn7d            *Sparkline `json:"sparkline_in_7d,omitempty"`
}

type Sparkline struct {
	Price []float64 `json:"price"`
}

// MarketOverview is the global market snapshot.
type MarketOverview struct {
	TotalMarketCap     float64 `json:"totalMarketCap"`
	TotalVolume24h     float64 `json:"totalVolume24h"`
	MarketCapChange24h float64 `json:"marketCapChange24h"`
	VolumeChange24h    float64 `json:"volumeChange24h"`
}

// PricePoint is a [unix millis, value] pair as returned by market_chart.
type PricePoint [2]float64

// PriceHistory is a coin's historical series.
type PriceHistory struct {
	CoinID       string       `json:"coinId"`
	Currency     string       `json:"currency"`
	Days         int          `json:"days"`
	Prices       []PricePoint `json:"prices"`
	MarketCaps   []PricePoint `json:"market_caps"`
	TotalVolumes []PricePoint `json:"total_volumes"`
}
