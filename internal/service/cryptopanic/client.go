package cryptopanic

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/service/upstream"
	"CoinDash/pkg/cache"
	"CoinDash/pkg/config"
	xhttp "CoinDash/pkg/http"
	applogger "CoinDash/pkg/logger"
	"CoinDash/pkg/util"
)

const Name = "cryptopanic"

const (
	defaultLimit = 10
	userAgent    = "CryptoDashboard/1.0"
)

type post struct {
	ID          int64  `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
	Kind        string `json:"kind"`
	Source      *struct {
		Title  string `json:"title"`
		Domain string `json:"domain"`
	} `json:"source"`
	Instruments []struct {
		Code string `json:"code"`
	} `json:"instruments"`
}

type postsResponse struct {
	Results *[]post `json:"results"`
}

// Client reads news posts from the CryptoPanic developer API. Without an API
// key it serves the fixed fallback list.
type Client struct {
	base *upstream.Base
	cfg  config.CryptoPanic
}

func New(cfg config.CryptoPanic, opts ...upstream.Option) *Client {
	base := upstream.New(upstream.Config{
		Name:        Name,
		Timeout:     cfg.Timeout,
		MaxCalls:    cfg.RateLimit.MaxCalls,
		Window:      cfg.RateLimit.Window,
		StatusKinds: upstream.DefaultStatusKinds,
		Configured:  cfg.APIKey != "",
	}, opts...)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{base: base, cfg: cfg}
}

func (c *Client) Name() string { return Name }

func (c *Client) Diagnostics() models.ProviderDiagnostics { return c.base.Diagnostics() }

func (c *Client) ClearCache() {
	c.base.ClearCache()
	c.base.Logger().Info("news cache cleared")
}

// Ping requests a single post; it bypasses the cache.
func (c *Client) Ping(ctx context.Context) error {
	var resp postsResponse
	return c.base.Send(ctx, "ping", c.request(url.Values{"limit": {"1"}}), &resp)
}

func (c *Client) request(params url.Values) *xhttp.RequestOptions {
	params.Set("auth_token", c.cfg.APIKey)
	params.Set("public", "true")
	return &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.cfg.BaseURL + "/posts/",
		Headers:     map[string]string{"User-Agent": userAgent, "Accept": "application/json"},
		QueryParams: params,
	}
}

func normalizeList(in []string, upper bool) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if upper {
			v = strings.ToUpper(v)
		} else {
			v = strings.ToLower(v)
		}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func normalizeQuery(q models.NewsQuery) models.NewsQuery {
	q.Currencies = normalizeList(q.Currencies, true)
	q.Regions = normalizeList(q.Regions, false)
	q.Kind = strings.ToLower(strings.TrimSpace(q.Kind))
	if q.Limit < 0 {
		q.Limit = 0
	}
	return q
}

func queryParams(q models.NewsQuery) url.Values {
	v := url.Values{}
	if q.Filter != "" {
		v.Set("filter", string(q.Filter))
	}
	if len(q.Currencies) > 0 {
		v.Set("currencies", strings.Join(q.Currencies, ","))
	}
	if len(q.Regions) > 0 {
		v.Set("regions", strings.Join(q.Regions, ","))
	}
	if q.Kind != "" {
		v.Set("kind", q.Kind)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func queryKey(q models.NewsQuery) string {
	return cache.GenerateKeyWithParams("news", q.Filter, strings.Join(q.Currencies, ","),
		strings.Join(q.Regions, ","), q.Kind, q.Limit)
}

func (c *Client) transform(p post) models.NewsItem {
	source := ""
	if p.Source != nil {
		source = p.Source.Title
	}
	if source == "" {
		source = sourceFromSlug(p.Slug)
	}

	var tags []string
	if len(p.Instruments) > 0 {
		for _, in := range p.Instruments {
			if in.Code != "" && len(tags) < maxTags {
				tags = append(tags, strings.ToUpper(in.Code))
			}
		}
	} else {
		tags = extractTags(p.Title, p.Description)
	}
	if tags == nil {
		tags = []string{}
	}

	return models.NewsItem{
		ID:          strconv.FormatInt(p.ID, 10),
		Title:       p.Title,
		URL:         "https://cryptopanic.com/news/" + p.Slug + "/",
		Source:      source,
		PublishedAt: util.ParseTimeDefault(p.PublishedAt, c.base.Clock().Now()),
		Tags:        tags,
		Summary:     p.Description,
		DataSource:  models.NewsSourceCryptoPanic,
	}
}

func (c *Client) news(ctx context.Context, q models.NewsQuery) ([]models.NewsItem, models.DataSource, error) {
	q = normalizeQuery(q)
	if q.Filter != "" && !q.Filter.Valid() {
		return nil, "", upstream.Malformed(Name, "news", errors.New("unknown filter "+string(q.Filter)))
	}
	return upstream.Cached(ctx, c.base, "news", queryKey(q), c.cfg.TTL, func(ctx context.Context) ([]models.NewsItem, error) {
		var resp postsResponse
		if err := c.base.Send(ctx, "news", c.request(queryParams(q)), &resp); err != nil {
			return nil, err
		}
		if resp.Results == nil {
			return nil, upstream.Malformed(Name, "news", errors.New("response has no results array"))
		}
		items := make([]models.NewsItem, 0, len(*resp.Results))
		for _, p := range *resp.Results {
			items = append(items, c.transform(p))
		}
		if q.Limit > 0 && len(items) > q.Limit {
			items = items[:q.Limit]
		}
		c.base.Logger().Debug("fetched news", applogger.Int("count", len(items)))
		return items, nil
	})
}

// FetchNews returns posts matching q or a typed *upstream.Error.
func (c *Client) FetchNews(ctx context.Context, q models.NewsQuery) ([]models.NewsItem, error) {
	v, _, err := c.news(ctx, q)
	return v, err
}

// GetNews never fails: without credentials or on any upstream error it
// returns the fallback list.
func (c *Client) GetNews(ctx context.Context, q models.NewsQuery) models.ProviderResult[[]models.NewsItem] {
	v, src, err := c.news(ctx, q)
	return upstream.Resolve(c.base, "news", v, src, err, func() []models.NewsItem {
		return fallbackNews(c.base.Clock().Now(), q.Limit)
	})
}

func (c *Client) GetTrendingNews(ctx context.Context, limit int) models.ProviderResult[[]models.NewsItem] {
	return c.GetNews(ctx, models.NewsQuery{Filter: models.NewsHot, Limit: orDefault(limit)})
}

func (c *Client) GetNewsByCurrencies(ctx context.Context, currencies []string, limit int) models.ProviderResult[[]models.NewsItem] {
	return c.GetNews(ctx, models.NewsQuery{Currencies: currencies, Limit: orDefault(limit)})
}

// GetNewsByFilter covers the bullish, bearish, important, rising and other
// listing filters.
func (c *Client) GetNewsByFilter(ctx context.Context, filter models.NewsFilter, limit int) models.ProviderResult[[]models.NewsItem] {
	return c.GetNews(ctx, models.NewsQuery{Filter: filter, Limit: orDefault(limit)})
}

func orDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}
