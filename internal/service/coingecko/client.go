package coingecko

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/service/upstream"
	"CoinDash/pkg/cache"
	"CoinDash/pkg/config"
	xhttp "CoinDash/pkg/http"
)

const Name = "coingecko"

const (
	maxPerPage = 250
	maxDays    = 365
)

// Client reads market data from the CoinGecko v3 API. An API key is optional;
// without one the public tier is used.
type Client struct {
	base *upstream.Base
	cfg  config.CoinGecko
}

func New(cfg config.CoinGecko, opts ...upstream.Option) *Client {
	base := upstream.New(upstream.Config{
		Name:        Name,
		Timeout:     cfg.Timeout,
		MaxCalls:    cfg.RateLimit.MaxCalls,
		Window:      cfg.RateLimit.Window,
		StatusKinds: upstream.DefaultStatusKinds,
		Configured:  true,
	}, opts...)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{base: base, cfg: cfg}
}

func (c *Client) Name() string { return Name }

func (c *Client) Diagnostics() models.ProviderDiagnostics {
	d := c.base.Diagnostics()
	d.Extra = map[string]any{"apiKey": c.cfg.APIKey != ""}
	return d
}

func (c *Client) ClearCache() { c.base.ClearCache() }

// Ping checks reachability; it bypasses the cache.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "ping", "/ping", nil)
	return err
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if c.cfg.APIKey != "" {
		h["x-cg-demo-api-key"] = c.cfg.APIKey
	}
	return h
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	var body []byte
	err := c.base.Send(ctx, op, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.cfg.BaseURL + path,
		Headers:     c.headers(),
		QueryParams: params,
	}, &body)
	return body, err
}

// fetchParsed runs one cached GET and converts the body with parse. A parse
// failure is a malformed-response error and is not cached.
func fetchParsed[T any](ctx context.Context, c *Client, op, key, path string, params url.Values, ttl ttlFunc, parse func([]byte) (T, error)) (T, models.DataSource, error) {
	return upstream.Cached(ctx, c.base, op, key, ttl(c.cfg), func(ctx context.Context) (T, error) {
		var zero T
		body, err := c.get(ctx, op, path, params)
		if err != nil {
			return zero, err
		}
		v, err := parse(body)
		if err != nil {
			return zero, upstream.Malformed(Name, op, err)
		}
		return v, nil
	})
}

type ttlFunc func(config.CoinGecko) time.Duration

func marketsTTL(c config.CoinGecko) time.Duration  { return c.TTL.Markets }
func trendingTTL(c config.CoinGecko) time.Duration { return c.TTL.Trending }
func globalTTL(c config.CoinGecko) time.Duration   { return c.TTL.Global }
func coinTTL(c config.CoinGecko) time.Duration     { return c.TTL.Coin }
func historyTTL(c config.CoinGecko) time.Duration  { return c.TTL.History }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func normCurrency(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "usd"
	}
	return s
}

func marketParams(currency, order string, perPage int, sparkline bool) url.Values {
	return url.Values{
		"vs_currency":             {currency},
		"order":                   {order},
		"per_page":                {strconv.Itoa(perPage)},
		"page":                    {"1"},
		"sparkline":               {strconv.FormatBool(sparkline)},
		"price_change_percentage": {"1h,24h,7d"},
	}
}

func (c *Client) topCoins(ctx context.Context, limit int, currency string) ([]models.Coin, models.DataSource, error) {
	limit = clamp(limit, 1, maxPerPage)
	currency = normCurrency(currency)
	key := cache.GenerateKeyWithParams("top_coins", limit, currency)
	return fetchParsed(ctx, c, "top_coins", key, "/coins/markets",
		marketParams(currency, "market_cap_desc", limit, true), marketsTTL,
		func(b []byte) ([]models.Coin, error) { return parseMarkets(b, true) })
}

func (c *Client) topGainers(ctx context.Context, limit int) ([]models.Coin, models.DataSource, error) {
	limit = clamp(limit, 1, maxPerPage)
	key := cache.GenerateKeyWithParams("top_gainers", limit)
	return fetchParsed(ctx, c, "top_gainers", key, "/coins/markets",
		marketParams("usd", "price_change_percentage_24h_desc", limit, false), marketsTTL,
		func(b []byte) ([]models.Coin, error) { return parseMarkets(b, false) })
}

func (c *Client) trending(ctx context.Context) ([]models.Coin, models.DataSource, error) {
	ids, idsSrc, err := fetchParsed(ctx, c, "trending", "trending_coins", "/search/trending", nil, trendingTTL, parseTrendingIDs)
	if err != nil {
		return nil, "", err
	}
	if len(ids) == 0 {
		return []models.Coin{}, idsSrc, nil
	}
	joined := strings.Join(ids, ",")
	params := marketParams("usd", "market_cap_desc", 10, false)
	params.Set("ids", joined)
	coins, src, err := fetchParsed(ctx, c, "trending_markets", cache.GenerateKeyWithParams("trending_detailed", joined),
		"/coins/markets", params, marketsTTL,
		func(b []byte) ([]models.Coin, error) { return parseMarkets(b, false) })
	if err != nil {
		return nil, "", err
	}
	if idsSrc == models.SourceLive {
		src = models.SourceLive
	}
	return coins, src, nil
}

func (c *Client) global(ctx context.Context) (models.MarketOverview, models.DataSource, error) {
	return fetchParsed(ctx, c, "global", "global_data", "/global", nil, globalTTL, parseGlobal)
}

func (c *Client) coin(ctx context.Context, id string) (models.Coin, models.DataSource, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	params := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"market_data":    {"true"},
		"community_data": {"false"},
		"developer_data": {"false"},
		"sparkline":      {"true"},
	}
	return fetchParsed(ctx, c, "coin", cache.GenerateKey("coin", id), "/coins/"+url.PathEscape(id), params, coinTTL, parseCoinDetail)
}

func (c *Client) history(ctx context.Context, id string, days int, currency string) (models.PriceHistory, models.DataSource, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	days = clamp(days, 1, maxDays)
	currency = normCurrency(currency)
	params := url.Values{"vs_currency": {currency}, "days": {strconv.Itoa(days)}}
	key := cache.GenerateKeyWithParams("historical", id, days, currency)
	return fetchParsed(ctx, c, "history", key, "/coins/"+url.PathEscape(id)+"/market_chart", params, historyTTL,
		func(b []byte) (models.PriceHistory, error) {
			h, err := parseHistory(b)
			h.CoinID, h.Days, h.Currency = id, days, currency
			return h, err
		})
}

// Fetch methods return typed *upstream.Error failures.

func (c *Client) FetchTopCoins(ctx context.Context, limit int, currency string) ([]models.Coin, error) {
	v, _, err := c.topCoins(ctx, limit, currency)
	return v, err
}

func (c *Client) FetchTopGainers(ctx context.Context, limit int) ([]models.Coin, error) {
	v, _, err := c.topGainers(ctx, limit)
	return v, err
}

func (c *Client) FetchTrending(ctx context.Context) ([]models.Coin, error) {
	v, _, err := c.trending(ctx)
	return v, err
}

func (c *Client) FetchGlobal(ctx context.Context) (models.MarketOverview, error) {
	v, _, err := c.global(ctx)
	return v, err
}

func (c *Client) FetchCoin(ctx context.Context, id string) (models.Coin, error) {
	v, _, err := c.coin(ctx, id)
	return v, err
}

func (c *Client) FetchHistory(ctx context.Context, id string, days int, currency string) (models.PriceHistory, error) {
	v, _, err := c.history(ctx, id, days, currency)
	return v, err
}

// Get methods never fail; see service.MarketProvider.

func (c *Client) GetTopCoins(ctx context.Context, limit int, currency string) models.ProviderResult[[]models.Coin] {
	v, src, err := c.topCoins(ctx, limit, currency)
	return upstream.Resolve(c.base, "top_coins", v, src, err, func() []models.Coin { return FallbackCoins(limit) })
}

func (c *Client) GetTopGainers(ctx context.Context, limit int) models.ProviderResult[[]models.Coin] {
	v, src, err := c.topGainers(ctx, limit)
	return upstream.Resolve(c.base, "top_gainers", v, src, err, func() []models.Coin { return FallbackGainers(limit) })
}

func (c *Client) GetTrending(ctx context.Context) models.ProviderResult[[]models.Coin] {
	v, src, err := c.trending(ctx)
	return upstream.Resolve(c.base, "trending", v, src, err, FallbackTrending)
}

func (c *Client) GetGlobal(ctx context.Context) models.ProviderResult[models.MarketOverview] {
	v, src, err := c.global(ctx)
	return upstream.Resolve(c.base, "global", v, src, err, FallbackGlobal)
}

func (c *Client) GetCoin(ctx context.Context, id string) models.ProviderResult[models.Coin] {
	v, src, err := c.coin(ctx, id)
	return upstream.Resolve(c.base, "coin", v, src, err, func() models.Coin { return FallbackCoin(id) })
}

func (c *Client) GetHistory(ctx context.Context, id string, days int, currency string) models.ProviderResult[models.PriceHistory] {
	v, src, err := c.history(ctx, id, days, currency)
	return upstream.Resolve(c.base, "history", v, src, err, func() models.PriceHistory {
		return FallbackHistory(strings.ToLower(strings.TrimSpace(id)), clamp(days, 1, maxDays), normCurrency(currency))
	})
}
