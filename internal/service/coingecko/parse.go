package coingecko

import (
	"errors"
	"fmt"
	"strings"

	"CoinDash/internal/domain/models"

	"github.com/tidwall/gjson"
)

var errNotJSON = errors.New("response is not valid JSON")

func parseRoot(body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, errNotJSON
	}
	return gjson.ParseBytes(body), nil
}

func optFloat(r gjson.Result) *float64 {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	v := r.Float()
	return &v
}

func parseSparkline(r gjson.Result) *models.Sparkline {
	prices := r.Get("price")
	if !prices.IsArray() {
		return nil
	}
	s := &models.Sparkline{Price: make([]float64, 0, len(prices.Array()))}
	prices.ForEach(func(_, v gjson.Result) bool {
		s.Price = append(s.Price, v.Float())
		return true
	})
	return s
}

// parseMarketCoin reads one /coins/markets entry.
func parseMarketCoin(r gjson.Result, withSparkline bool) (models.Coin, error) {
	id := r.Get("id").String()
	symbol := r.Get("symbol").String()
	if id == "" || symbol == "" {
		return models.Coin{}, fmt.Errorf("market entry missing id or symbol: %.80s", r.Raw)
	}
	c := models.Coin{
		ID:                       id,
		Symbol:                   strings.ToUpper(symbol),
		Name:                     r.Get("name").String(),
		Image:                    r.Get("image").String(),
		CurrentPrice:             r.Get("current_price").Float(),
		MarketCap:                r.Get("market_cap").Float(),
		MarketCapRank:            int(r.Get("market_cap_rank").Int()),
		TotalVolume:              r.Get("total_volume").Float(),
		High24h:                  r.Get("high_24h").Float(),
		Low24h:                   r.Get("low_24h").Float(),
		PriceChange24h:           r.Get("price_change_24h").Float(),
		PriceChangePercentage24h: r.Get("price_change_percentage_24h").Float(),
		PriceChangePercentage1h:  optFloat(r.Get("price_change_percentage_1h_in_currency")),
		PriceChangePercentage7d:  optFloat(r.Get("price_change_percentage_7d_in_currency")),
	}
	if withSparkline {
		c.SparklineIn7d = parseSparkline(r.Get("sparkline_in_7d"))
	}
	return c, nil
}

func parseMarkets(body []byte, withSparkline bool) ([]models.Coin, error) {
	root, err := parseRoot(body)
	if err != nil {
		return nil, err
	}
	if !root.IsArray() {
		return nil, fmt.Errorf("markets: expected array, got %s", root.Type)
	}
	coins := make([]models.Coin, 0, len(root.Array()))
	for _, item := range root.Array() {
		c, err := parseMarketCoin(item, withSparkline)
		if err != nil {
			return nil, err
		}
		coins = append(coins, c)
	}
	return coins, nil
}

func parseTrendingIDs(body []byte) ([]string, error) {
	root, err := parseRoot(body)
	if err != nil {
		return nil, err
	}
	items := root.Get("coins")
	if !items.IsArray() {
		return nil, errors.New("trending: missing coins array")
	}
	var ids []string
	items.ForEach(func(_, v gjson.Result) bool {
		if id := v.Get("item.id").String(); id != "" {
			ids = append(ids, id)
		}
		return true
	})
	return ids, nil
}

func parseGlobal(body []byte) (models.MarketOverview, error) {
	root, err := parseRoot(body)
	if err != nil {
		return models.MarketOverview{}, err
	}
	data := root.Get("data")
	mcap := data.Get("total_market_cap.usd")
	if !data.IsObject() || !mcap.Exists() {
		return models.MarketOverview{}, errors.New("global: missing data.total_market_cap.usd")
	}
	return models.MarketOverview{
		TotalMarketCap:     mcap.Float(),
		TotalVolume24h:     data.Get("total_volume.usd").Float(),
		MarketCapChange24h: data.Get("market_cap_change_percentage_24h_usd").Float(),
		VolumeChange24h:    data.Get("total_volume.usd_24h_change").Float(),
	}, nil
}

// parseCoinDetail reads /coins/{id}; currency values are taken in USD.
func parseCoinDetail(body []byte) (models.Coin, error) {
	root, err := parseRoot(body)
	if err != nil {
		return models.Coin{}, err
	}
	md := root.Get("market_data")
	if root.Get("id").String() == "" || !md.IsObject() {
		return models.Coin{}, errors.New("coin: missing id or market_data")
	}
	return models.Coin{
		ID:                       root.Get("id").String(),
		Symbol:                   strings.ToUpper(root.Get("symbol").String()),
		Name:                     root.Get("name").String(),
		Image:                    root.Get("image.large").String(),
		CurrentPrice:             md.Get("current_price.usd").Float(),
		MarketCap:                md.Get("market_cap.usd").Float(),
		MarketCapRank:            int(root.Get("market_cap_rank").Int()),
		TotalVolume:              md.Get("total_volume.usd").Float(),
		High24h:                  md.Get("high_24h.usd").Float(),
		Low24h:                   md.Get("low_24h.usd").Float(),
		PriceChange24h:           md.Get("price_change_24h").Float(),
		PriceChangePercentage24h: md.Get("price_change_percentage_24h").Float(),
		PriceChangePercentage1h:  optFloat(md.Get("price_change_percentage_1h_in_currency.usd")),
		PriceChangePercentage7d:  optFloat(md.Get("price_change_percentage_7d_in_currency.usd")),
		SparklineIn7d:            parseSparkline(md.Get("sparkline_7d")),
	}, nil
}

func parseSeries(r gjson.Result) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(r.Array()))
	r.ForEach(func(_, v gjson.Result) bool {
		pair := v.Array()
		if len(pair) == 2 {
			out = append(out, models.PricePoint{pair[0].Float(), pair[1].Float()})
		}
		return true
	})
	return out
}

func parseHistory(body []byte) (models.PriceHistory, error) {
	root, err := parseRoot(body)
	if err != nil {
		return models.PriceHistory{}, err
	}
	if !root.Get("prices").IsArray() {
		return models.PriceHistory{}, errors.New("market_chart: missing prices array")
	}
	return models.PriceHistory{
		Prices:       parseSeries(root.Get("prices")),
		MarketCaps:   parseSeries(root.Get("market_caps")),
		TotalVolumes: parseSeries(root.Get("total_volumes")),
	}, nil
}
