package openrouter

import (
	"context"
	"errors"
	"strings"
	"time"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/service/upstream"
	pkgcache "CoinDash/pkg/cache"
	"CoinDash/pkg/config"
	xhttp "CoinDash/pkg/http"
	applogger "CoinDash/pkg/logger"
	"CoinDash/pkg/util"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const Name = "openrouter"

const (
	successConfidence  = 0.85
	fallbackConfidence = 0.5
	fallbackContent    = "The crypto market continues to show dynamic movements with Bitcoin maintaining its position as the leading cryptocurrency. Market sentiment appears mixed as investors navigate regulatory developments and technological advancements."
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// Client produces the daily market commentary through OpenRouter chat
// completions. One insight is generated per UTC day and preference
// signature; the optional store keeps it across restarts.
type Client struct {
	base  *upstream.Base
	cfg   config.OpenRouter
	store pkgcache.Service
}

// New builds a client. store may be nil.
func New(cfg config.OpenRouter, store pkgcache.Service, opts ...upstream.Option) *Client {
	base := upstream.New(upstream.Config{
		Name:        Name,
		Timeout:     cfg.Timeout,
		MaxCalls:    cfg.RateLimit.MaxCalls,
		Window:      cfg.RateLimit.Window,
		StatusKinds: upstream.DefaultStatusKinds,
		Configured:  cfg.APIKey != "",
	}, opts...)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{base: base, cfg: cfg, store: store}
}

func (c *Client) Name() string { return Name }

func (c *Client) Diagnostics() models.ProviderDiagnostics {
	d := c.base.Diagnostics()
	d.Extra = map[string]any{"model": c.cfg.Model, "store": c.store != nil}
	return d
}

func (c *Client) ClearCache() { c.base.ClearCache() }

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
		"HTTP-Referer":  c.cfg.Referer,
		"X-Title":       c.cfg.Title,
		"Content-Type":  "application/json",
	}
}

// InsightKey is the cache key for prefs on the UTC day of now.
func InsightKey(now time.Time, prefs models.Preferences) string {
	return "ai_insight:" + util.DayKey(now) + ":" + prefs.Signature()
}

func insightTTL(now time.Time) time.Duration {
	ttl := util.UntilEndOfDay(now)
	if ttl > 24*time.Hour {
		ttl = 24 * time.Hour
	}
	return ttl
}

func (c *Client) insight(ctx context.Context, prefs models.Preferences) (models.AIInsight, models.DataSource, error) {
	now := c.base.Clock().Now()
	key := InsightKey(now, prefs)
	ttl := insightTTL(now)

	return upstream.Cached(ctx, c.base, "insight", key, ttl, func(ctx context.Context) (models.AIInsight, error) {
		if in, ok := c.loadStored(ctx, key); ok {
			return in, nil
		}
		in, err := c.generate(ctx, prefs)
		if err != nil {
			return models.AIInsight{}, err
		}
		c.saveStored(ctx, key, in, ttl)
		return in, nil
	})
}

func (c *Client) generate(ctx context.Context, prefs models.Preferences) (models.AIInsight, error) {
	req := completionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(prefs)},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	var body []byte
	err := c.base.Send(ctx, "insight", &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.cfg.BaseURL + "/chat/completions",
		Headers: c.headers(),
		Body:    req,
	}, &body)
	if err != nil {
		return models.AIInsight{}, err
	}
	if !gjson.ValidBytes(body) {
		return models.AIInsight{}, upstream.Malformed(Name, "insight", errors.New("response is not valid JSON"))
	}
	content := strings.TrimSpace(gjson.GetBytes(body, "choices.0.message.content").String())
	if content == "" {
		return models.AIInsight{}, upstream.Malformed(Name, "insight", errors.New("no content generated"))
	}
	return models.AIInsight{
		ID:         "insight_" + uuid.NewString(),
		Content:    content,
		Type:       models.InsightMarketAnalysis,
		Confidence: successConfidence,
		CreatedAt:  c.base.Clock().Now(),
	}, nil
}

func (c *Client) loadStored(ctx context.Context, key string) (models.AIInsight, bool) {
	if c.store == nil {
		return models.AIInsight{}, false
	}
	in, err := pkgcache.GetTyped[models.AIInsight](ctx, c.store, pkgcache.BoundedKey(key))
	if err != nil {
		if !errors.Is(err, pkgcache.ErrCacheMiss) {
			c.base.Logger().Warn("insight store read failed", applogger.String("key", key), applogger.Error(err))
		}
		return models.AIInsight{}, false
	}
	return in, true
}

func (c *Client) saveStored(ctx context.Context, key string, in models.AIInsight, ttl time.Duration) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, pkgcache.BoundedKey(key), in, ttl); err != nil {
		c.base.Logger().Warn("insight store write failed", applogger.String("key", key), applogger.Error(err))
	}
}

// FallbackInsight is the generic commentary served when no insight can be
// generated.
func FallbackInsight(now time.Time) models.AIInsight {
	return models.AIInsight{
		ID:         "fallback_" + util.DayKey(now),
		Content:    fallbackContent,
		Type:       models.InsightMarketAnalysis,
		Confidence: fallbackConfidence,
		CreatedAt:  now,
	}
}

// FetchInsight returns the day's insight for prefs or a typed *upstream.Error.
func (c *Client) FetchInsight(ctx context.Context, prefs models.Preferences) (models.AIInsight, error) {
	v, _, err := c.insight(ctx, prefs)
	return v, err
}

func (c *Client) GetInsight(ctx context.Context, prefs models.Preferences) models.ProviderResult[models.AIInsight] {
	v, src, err := c.insight(ctx, prefs)
	return upstream.Resolve(c.base, "insight", v, src, err, func() models.AIInsight {
		return FallbackInsight(c.base.Clock().Now())
	})
}

// KeyStatus asks OpenRouter about the configured key. It is not cached.
func (c *Client) KeyStatus(ctx context.Context) (models.KeyStatus, error) {
	var body []byte
	err := c.base.Send(ctx, "key_status", &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.cfg.BaseURL + "/key",
		Headers: c.headers(),
	}, &body)
	if err != nil {
		return models.KeyStatus{Valid: false}, err
	}
	data := gjson.GetBytes(body, "data")
	if !data.IsObject() {
		return models.KeyStatus{Valid: false}, upstream.Malformed(Name, "key_status", errors.New("missing data object"))
	}
	st := models.KeyStatus{Valid: true}
	if v := data.Get("usage"); v.Exists() && v.Type == gjson.Number {
		f := v.Float()
		st.Usage = &f
	}
	if v := data.Get("limit"); v.Exists() && v.Type == gjson.Number {
		f := v.Float()
		st.Limit = &f
	}
	if v := data.Get("is_free_tier"); v.IsBool() {
		b := v.Bool()
		st.IsFreeTier = &b
	}
	return st, nil
}

// Ping is KeyStatus without the payload.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.KeyStatus(ctx)
	return err
}
