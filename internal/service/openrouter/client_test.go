package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/service/upstream"
	pkgcache "CoinDash/pkg/cache"
	"CoinDash/pkg/config"
	"CoinDash/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var morning = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

type fakeRouter struct {
	srv    *httptest.Server
	hits   int32
	status int32
	last   completionRequest
	auth   string
}

func newFakeRouter(t *testing.T) *fakeRouter {
	t.Helper()
	f := &fakeRouter{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := atomic.LoadInt32(&f.status); s != 0 {
			w.WriteHeader(int(s))
			return
		}
		switch r.URL.Path {
		case "/chat/completions":
			atomic.AddInt32(&f.hits, 1)
			f.auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&f.last)
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  BTC looks steady.  "}}]}`))
		case "/key":
			_, _ = w.Write([]byte(`{"data":{"usage":1.5,"limit":null,"is_free_tier":true}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newTestClient(t *testing.T, baseURL, key string, clk util.Clock, store pkgcache.Service) *Client {
	t.Helper()
	cfg := config.Default().OpenRouter
	cfg.BaseURL = baseURL
	cfg.APIKey = key
	cfg.Timeout = 2 * time.Second
	return New(cfg, store, upstream.WithClock(clk))
}

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, basePrompt, BuildPrompt(models.Preferences{}))

	p := BuildPrompt(models.Preferences{
		CryptoInterests:    []string{"BTC", "ETH"},
		InvestorType:       models.InvestorNFTCollector,
		ContentPreferences: []models.ContentPreference{models.ContentMarketNews, models.ContentTechnicalAnalysis},
	})
	assert.Contains(t, p, " The user is particularly interested in: BTC, ETH.")
	assert.Contains(t, p, " They identify as a nft collector.")
	assert.Contains(t, p, " They prefer content focused on: market news, technical analysis.")
}

func TestInsightGeneratedOncePerDay(t *testing.T) {
	f := newFakeRouter(t)
	clk := util.NewManualClock(morning)
	c := newTestClient(t, f.srv.URL, "sk-test", clk, nil)
	ctx := context.Background()

	prefs := models.Preferences{CryptoInterests: []string{"BTC", "ETH"}}
	first := c.GetInsight(ctx, prefs)
	require.False(t, first.IsFallback(), first.Error)
	assert.Equal(t, "BTC looks steady.", first.Data.Content)
	assert.Equal(t, 0.85, first.Data.Confidence)
	assert.Equal(t, models.InsightMarketAnalysis, first.Data.Type)

	clk.Advance(10 * time.Hour)
	same := c.GetInsight(ctx, models.Preferences{CryptoInterests: []string{"eth", "btc"}})
	assert.Equal(t, models.SourceCache, same.Source)
	assert.Equal(t, first.Data.ID, same.Data.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.hits))

	clk.Advance(5 * time.Hour)
	next := c.GetInsight(ctx, prefs)
	assert.Equal(t, models.SourceLive, next.Source)
	assert.NotEqual(t, first.Data.ID, next.Data.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.hits))
}

func TestInsightRequestShape(t *testing.T) {
	f := newFakeRouter(t)
	c := newTestClient(t, f.srv.URL, "sk-test", util.NewManualClock(morning), nil)

	_, err := c.FetchInsight(context.Background(), models.Preferences{InvestorType: models.InvestorDayTrader})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", f.auth)
	assert.Equal(t, "google/gemini-2.5-flash-image-preview:free", f.last.Model)
	assert.Equal(t, 150, f.last.MaxTokens)
	assert.Equal(t, 0.7, f.last.Temperature)
	require.Len(t, f.last.Messages, 2)
	assert.Equal(t, "system", f.last.Messages[0].Role)
	assert.Contains(t, f.last.Messages[1].Content, "day trader")
}

func TestInsightSurvivesRestartThroughStore(t *testing.T) {
	f := newFakeRouter(t)
	store := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	defer store.Close()
	clk := util.NewManualClock(morning)

	first, err := newTestClient(t, f.srv.URL, "sk-test", clk, store).FetchInsight(context.Background(), models.Preferences{})
	require.NoError(t, err)

	second, err := newTestClient(t, f.srv.URL, "sk-test", clk, store).FetchInsight(context.Background(), models.Preferences{})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.hits))
}

func TestInsightFallbacks(t *testing.T) {
	cases := map[string]struct {
		status int32
		kind   upstream.Kind
	}{
		"unauthorized":   {http.StatusUnauthorized, upstream.KindAuth},
		"no credits":     {http.StatusPaymentRequired, upstream.KindAuth},
		"rate limited":   {http.StatusTooManyRequests, upstream.KindRateLimited},
		"upstream error": {http.StatusInternalServerError, upstream.KindTransient},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFakeRouter(t)
			atomic.StoreInt32(&f.status, tc.status)
			c := newTestClient(t, f.srv.URL, "sk-test", util.NewManualClock(morning), nil)

			_, err := c.FetchInsight(context.Background(), models.Preferences{})
			assert.Equal(t, tc.kind, upstream.KindOf(err))

			r := c.GetInsight(context.Background(), models.Preferences{})
			assert.True(t, r.IsFallback())
			assert.Equal(t, fallbackContent, r.Data.Content)
			assert.Equal(t, 0.5, r.Data.Confidence)
			assert.Equal(t, tc.kind == upstream.KindAuth, c.Diagnostics().Disabled)
		})
	}
}

func TestInsightWithoutKey(t *testing.T) {
	f := newFakeRouter(t)
	c := newTestClient(t, f.srv.URL, "", util.NewManualClock(morning), nil)

	r := c.GetInsight(context.Background(), models.Preferences{})
	assert.True(t, r.IsFallback())
	assert.Zero(t, atomic.LoadInt32(&f.hits))

	st, err := c.KeyStatus(context.Background())
	assert.True(t, upstream.IsKind(err, upstream.KindUnconfigured))
	assert.False(t, st.Valid)
}

func TestEmptyCompletionIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, "sk-test", util.NewManualClock(morning), nil)

	_, err := c.FetchInsight(context.Background(), models.Preferences{})
	assert.True(t, upstream.IsKind(err, upstream.KindMalformed))
}

func TestKeyStatus(t *testing.T) {
	f := newFakeRouter(t)
	c := newTestClient(t, f.srv.URL, "sk-test", util.NewManualClock(morning), nil)

	st, err := c.KeyStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Valid)
	require.NotNil(t, st.Usage)
	assert.Equal(t, 1.5, *st.Usage)
	assert.Nil(t, st.Limit)
	require.NotNil(t, st.IsFreeTier)
	assert.True(t, *st.IsFreeTier)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestInsightKey(t *testing.T) {
	assert.Equal(t, "ai_insight:2025-06-10:default", InsightKey(morning, models.Preferences{}))
	assert.Equal(t, 15*time.Hour, insightTTL(morning))
}
