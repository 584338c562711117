package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinDash/internal/domain/models"
	domrepo "CoinDash/internal/domain/repository"
	domsvc "CoinDash/internal/domain/service"
	"CoinDash/internal/service/coingecko"
	"CoinDash/internal/service/cryptopanic"
	"CoinDash/internal/service/meme"
	"CoinDash/internal/service/openrouter"
	applogger "CoinDash/pkg/logger"
	"CoinDash/pkg/metrics"
	"CoinDash/pkg/util"
)

type DashboardConfig struct {
	// Timeout bounds one snapshot; fields still running get their fallback.
	Timeout     time.Duration
	CoinLimit   int
	GainerLimit int
	NewsLimit   int
	Currency    string
}

func (c DashboardConfig) withDefaults() DashboardConfig {
	if c.Timeout <= 0 {
		c.Timeout = 12 * time.Second
	}
	if c.CoinLimit <= 0 {
		c.CoinLimit = 10
	}
	if c.GainerLimit <= 0 {
		c.GainerLimit = 3
	}
	if c.NewsLimit <= 0 {
		c.NewsLimit = 5
	}
	if c.Currency == "" {
		c.Currency = "usd"
	}
	return c
}

// Fallbacks supplies the data a field gets when its provider panicked or did
// not answer in time.
type Fallbacks struct {
	Global   func() models.MarketOverview
	Trending func() []models.Coin
	Gainers  func(limit int) []models.Coin
	Coins    func(limit int) []models.Coin
	News     func(now time.Time, limit int) []models.NewsItem
	Insight  func(now time.Time) models.AIInsight
	Meme     func() models.Meme
}

func DefaultFallbacks() Fallbacks {
	return Fallbacks{
		Global:   coingecko.FallbackGlobal,
		Trending: coingecko.FallbackTrending,
		Gainers:  coingecko.FallbackGainers,
		Coins:    coingecko.FallbackCoins,
		News: func(now time.Time, limit int) []models.NewsItem {
			items := cryptopanic.FallbackNews(now)
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}
			return items
		},
		Insight: openrouter.FallbackInsight,
		Meme:    meme.FallbackMeme,
	}
}

type DashboardOption func(*DashboardAggregator)

func WithDashboardLogger(l *applogger.Logger) DashboardOption {
	return func(a *DashboardAggregator) { a.log = applogger.OrNop(l) }
}

func WithDashboardMetrics(m domrepo.Metrics) DashboardOption {
	return func(a *DashboardAggregator) {
		if m != nil {
			a.metrics = m
		}
	}
}

func WithDashboardClock(c util.Clock) DashboardOption {
	return func(a *DashboardAggregator) { a.clock = util.ClockOrSystem(c) }
}

// WithFallbacks overrides fallbacks; unset entries keep their defaults.
func WithFallbacks(f Fallbacks) DashboardOption {
	return func(a *DashboardAggregator) {
		def := DefaultFallbacks()
		if f.Global == nil {
			f.Global = def.Global
		}
		if f.Trending == nil {
			f.Trending = def.Trending
		}
		if f.Gainers == nil {
			f.Gainers = def.Gainers
		}
		if f.Coins == nil {
			f.Coins = def.Coins
		}
		if f.News == nil {
			f.News = def.News
		}
		if f.Insight == nil {
			f.Insight = def.Insight
		}
		if f.Meme == nil {
			f.Meme = def.Meme
		}
		a.fallbacks = f
	}
}

// DashboardAggregator fans out to every provider and assembles a complete
// snapshot.
type DashboardAggregator struct {
	market    domsvc.MarketProvider
	news      domsvc.NewsProvider
	insight   domsvc.InsightProvider
	memes     domsvc.MemeProvider
	cfg       DashboardConfig
	fallbacks Fallbacks
	log       *applogger.Logger
	metrics   domrepo.Metrics
	clock     util.Clock
}

func NewDashboardAggregator(
	market domsvc.MarketProvider,
	news domsvc.NewsProvider,
	insight domsvc.InsightProvider,
	memes domsvc.MemeProvider,
	cfg DashboardConfig,
	opts ...DashboardOption,
) *DashboardAggregator {
	a := &DashboardAggregator{
		market:    market,
		news:      news,
		insight:   insight,
		memes:     memes,
		cfg:       cfg.withDefaults(),
		fallbacks: DefaultFallbacks(),
		log:       applogger.Nop(),
		metrics:   metrics.Nop{},
		clock:     util.SystemClock,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type outcome[T any] struct {
	res models.ProviderResult[T]
	err error
}

func launch[T any](ctx context.Context, fn func(context.Context) models.ProviderResult[T]) <-chan outcome[T] {
	ch := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome[T]{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		ch <- outcome[T]{res: fn(ctx)}
	}()
	return ch
}

// await returns the field's result, or its fallback when the provider
// panicked or done closed first.
func await[T any](a *DashboardAggregator, field string, ch <-chan outcome[T], done <-chan struct{}, fallback func() T) models.ProviderResult[T] {
	var o outcome[T]
	select {
	case o = <-ch:
	case <-done:
		select {
		case o = <-ch:
		default:
			o.err = fmt.Errorf("%s: no answer before dashboard deadline", field)
		}
	}
	if o.err == nil {
		return o.res
	}
	a.log.Warn("dashboard field failed", applogger.String("field", field), applogger.Error(o.err))
	return models.FallbackResult(fallback(), o.err, a.clock.Now())
}

// Snapshot never fails. Provider calls run detached from ctx: a caller that
// goes away only stops the wait, not the calls.
func (a *DashboardAggregator) Snapshot(ctx context.Context, prefs models.Preferences) models.Dashboard {
	start := a.clock.Now()
	cfg := a.cfg
	fb := a.fallbacks

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Timeout)
	defer cancel()

	// done closes at the deadline or when the caller leaves.
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() { cancel() })
	defer stop()
	go func() {
		<-pctx.Done()
		close(done)
	}()

	globalCh := launch(pctx, a.market.GetGlobal)
	trendingCh := launch(pctx, a.market.GetTrending)
	gainersCh := launch(pctx, func(c context.Context) models.ProviderResult[[]models.Coin] {
		return a.market.GetTopGainers(c, cfg.GainerLimit)
	})
	coinsCh := launch(pctx, func(c context.Context) models.ProviderResult[[]models.Coin] {
		return a.market.GetTopCoins(c, cfg.CoinLimit, cfg.Currency)
	})
	newsCh := launch(pctx, func(c context.Context) models.ProviderResult[[]models.NewsItem] {
		return a.news.GetTrendingNews(c, cfg.NewsLimit)
	})
	insightCh := launch(pctx, func(c context.Context) models.ProviderResult[models.AIInsight] {
		return a.insight.GetInsight(c, prefs)
	})
	memeCh := launch(pctx, a.memes.RandomMeme)

	now := func() time.Time { return a.clock.Now() }
	d := models.Dashboard{
		MarketOverview: await(a, models.FieldMarketOverview, globalCh, done, fb.Global),
		TrendingCoins:  await(a, models.FieldTrendingCoins, trendingCh, done, fb.Trending),
		TopGainers: await(a, models.FieldTopGainers, gainersCh, done, func() []models.Coin {
			return fb.Gainers(cfg.GainerLimit)
		}),
		CoinPrices: await(a, models.FieldCoinPrices, coinsCh, done, func() []models.Coin {
			return fb.Coins(cfg.CoinLimit)
		}),
		News: await(a, models.FieldNews, newsCh, done, func() []models.NewsItem {
			return fb.News(now(), cfg.NewsLimit)
		}),
		AIInsight: await(a, models.FieldAIInsight, insightCh, done, func() models.AIInsight {
			return fb.Insight(now())
		}),
		Meme: await(a, models.FieldMeme, memeCh, done, fb.Meme),
	}
	d.GeneratedAt = a.clock.Now()
	d.Degraded = degradedFields(d)

	a.metrics.RecordLatency("dashboard_snapshot", d.GeneratedAt.Sub(start).Seconds())
	if len(d.Degraded) > 0 {
		a.log.Info("dashboard served with fallbacks", applogger.Strings("degraded", d.Degraded))
	}
	return d
}

func degradedFields(d models.Dashboard) []string {
	flags := map[string]bool{
		models.FieldMarketOverview: d.MarketOverview.IsFallback(),
		models.FieldTrendingCoins:  d.TrendingCoins.IsFallback(),
		models.FieldTopGainers:     d.TopGainers.IsFallback(),
		models.FieldCoinPrices:     d.CoinPrices.IsFallback(),
		models.FieldNews:           d.News.IsFallback(),
		models.FieldAIInsight:      d.AIInsight.IsFallback(),
		models.FieldMeme:           d.Meme.IsFallback(),
	}
	var out []string
	for _, f := range models.DashboardFields {
		if flags[f] {
			out = append(out, f)
		}
	}
	return out
}
