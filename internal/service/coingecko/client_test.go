package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/service/upstream"
	"CoinDash/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsBody = `[
  {"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png","current_price":65000.5,
   "market_cap":1.2e12,"market_cap_rank":1,"total_volume":3e10,"high_24h":66000,"low_24h":64000,
   "price_change_24h":120.5,"price_change_percentage_24h":0.2,
   "price_change_percentage_1h_in_currency":0.05,"price_change_percentage_7d_in_currency":null,
   "sparkline_in_7d":{"price":[1,2,3]}},
  {"id":"ethereum","symbol":"eth","name":"Ethereum","image":"","current_price":3200,
   "market_cap":3.8e11,"market_cap_rank":2,"total_volume":1e10,"high_24h":3300,"low_24h":3100,
   "price_change_24h":-10,"price_change_percentage_24h":-0.3}
]`

type fakeGecko struct {
	srv    *httptest.Server
	hits   map[string]*int32
	status int32
}

func newFakeGecko(t *testing.T) *fakeGecko {
	t.Helper()
	f := &fakeGecko{hits: map[string]*int32{}}
	for _, p := range []string{"/coins/markets", "/search/trending", "/global", "/coins/bitcoin/market_chart", "/coins/bitcoin", "/ping"} {
		f.hits[p] = new(int32)
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n, ok := f.hits[r.URL.Path]; ok {
			atomic.AddInt32(n, 1)
		}
		if s := atomic.LoadInt32(&f.status); s != 0 {
			w.WriteHeader(int(s))
			return
		}
		switch r.URL.Path {
		case "/coins/markets":
			_, _ = w.Write([]byte(marketsBody))
		case "/search/trending":
			_, _ = w.Write([]byte(`{"coins":[{"item":{"id":"bitcoin"}},{"item":{"id":"ethereum"}}]}`))
		case "/global":
			_, _ = w.Write([]byte(`{"data":{"total_market_cap":{"usd":2.5e12},"total_volume":{"usd":9e10,"usd_24h_change":4.2},"market_cap_change_percentage_24h_usd":1.5}}`))
		case "/coins/bitcoin/market_chart":
			_, _ = w.Write([]byte(`{"prices":[[1700000000000,65000],[1700003600000,65100]],"market_caps":[[1700000000000,1.2e12]],"total_volumes":[]}`))
		case "/coins/bitcoin":
			_, _ = w.Write([]byte(`{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":{"large":"https://img/large.png"},"market_cap_rank":1,
				"market_data":{"current_price":{"usd":65000},"market_cap":{"usd":1.2e12},"total_volume":{"usd":3e10},
				"high_24h":{"usd":66000},"low_24h":{"usd":64000},"price_change_24h":100,"price_change_percentage_24h":0.1,
				"price_change_percentage_7d_in_currency":{"usd":3.3}}}`))
		case "/ping":
			_, _ = w.Write([]byte(`{"gecko_says":"(V3) To the Moon!"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGecko) count(path string) int32 { return atomic.LoadInt32(f.hits[path]) }

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := config.Default().CoinGecko
	cfg.BaseURL = baseURL
	cfg.Timeout = 2 * time.Second
	return New(cfg)
}

func TestTopCoinsTransform(t *testing.T) {
	f := newFakeGecko(t)
	c := newTestClient(t, f.srv.URL)

	coins, err := c.FetchTopCoins(context.Background(), 2, "USD")
	require.NoError(t, err)
	require.Len(t, coins, 2)

	btc := coins[0]
	assert.Equal(t, "BTC", btc.Symbol)
	assert.Equal(t, 65000.5, btc.CurrentPrice)
	require.NotNil(t, btc.PriceChangePercentage1h)
	assert.Equal(t, 0.05, *btc.PriceChangePercentage1h)
	assert.Nil(t, btc.PriceChangePercentage7d)
	require.NotNil(t, btc.SparklineIn7d)
	assert.Equal(t, []float64{1, 2, 3}, btc.SparklineIn7d.Price)

	assert.Nil(t, coins[1].PriceChangePercentage1h)
	assert.Nil(t, coins[1].SparklineIn7d)
}

func TestRepeatCallHitsUpstreamOnce(t *testing.T) {
	f := newFakeGecko(t)
	c := newTestClient(t, f.srv.URL)

	first := c.GetTopCoins(context.Background(), 10, "usd")
	second := c.GetTopCoins(context.Background(), 10, "usd")

	assert.Equal(t, models.SourceLive, first.Source)
	assert.Equal(t, models.SourceCache, second.Source)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, int32(1), f.count("/coins/markets"))
}

func TestTrendingResolvesMarketData(t *testing.T) {
	f := newFakeGecko(t)
	c := newTestClient(t, f.srv.URL)

	r := c.GetTrending(context.Background())
	require.False(t, r.IsFallback(), r.Error)
	assert.Len(t, r.Data, 2)
	assert.Equal(t, int32(1), f.count("/search/trending"))
	assert.Equal(t, int32(1), f.count("/coins/markets"))
}

func TestGlobalAndHistory(t *testing.T) {
	f := newFakeGecko(t)
	c := newTestClient(t, f.srv.URL)

	g, err := c.FetchGlobal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2.5e12, g.TotalMarketCap)
	assert.Equal(t, 4.2, g.VolumeChange24h)
	assert.Equal(t, 1.5, g.MarketCapChange24h)

	h, err := c.FetchHistory(context.Background(), "bitcoin", 7, "")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", h.CoinID)
	assert.Equal(t, "usd", h.Currency)
	assert.Len(t, h.Prices, 2)
	assert.Len(t, h.MarketCaps, 1)
	assert.Empty(t, h.TotalVolumes)
}

func TestCoinDetail(t *testing.T) {
	f := newFakeGecko(t)
	c := newTestClient(t, f.srv.URL)

	coin, err := c.FetchCoin(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "BTC", coin.Symbol)
	assert.Equal(t, "https://img/large.png", coin.Image)
	assert.Nil(t, coin.PriceChangePercentage1h)
	require.NotNil(t, coin.PriceChangePercentage7d)
	assert.Equal(t, 3.3, *coin.PriceChangePercentage7d)
}

func TestUpstreamFailureYieldsFallbackShape(t *testing.T) {
	for _, status := range []int32{http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusTooManyRequests} {
		f := newFakeGecko(t)
		atomic.StoreInt32(&f.status, status)
		c := newTestClient(t, f.srv.URL)
		ctx := context.Background()

		_, err := c.FetchGlobal(ctx)
		require.Error(t, err)
		assert.NotEqual(t, upstream.KindAuth, upstream.KindOf(err))

		g := c.GetGlobal(ctx)
		assert.True(t, g.IsFallback())
		assert.NotZero(t, g.Data.TotalMarketCap)

		coins := c.GetTopCoins(ctx, 5, "usd")
		assert.True(t, coins.IsFallback())
		assert.Len(t, coins.Data, 5)
		for _, coin := range coins.Data {
			assert.NotEmpty(t, coin.ID)
			assert.NotEmpty(t, coin.Symbol)
		}

		h := c.GetHistory(ctx, "bitcoin", 30, "eur")
		assert.True(t, h.IsFallback())
		assert.Equal(t, "eur", h.Data.Currency)
		assert.NotNil(t, h.Data.Prices)
	}
}

func TestMalformedBodyYieldsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.FetchTopCoins(context.Background(), 3, "usd")
	assert.True(t, upstream.IsKind(err, upstream.KindMalformed))

	r := c.GetGlobal(context.Background())
	assert.True(t, r.IsFallback())
	assert.Zero(t, c.Diagnostics().Cache.Size)
}

func TestTimeoutYieldsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()
	cfg := config.Default().CoinGecko
	cfg.BaseURL = srv.URL
	cfg.Timeout = 50 * time.Millisecond
	c := New(cfg)

	_, err := c.FetchGlobal(context.Background())
	assert.True(t, upstream.IsKind(err, upstream.KindTransient))
	assert.True(t, c.GetGlobal(context.Background()).IsFallback())
}

func TestForbiddenDisablesClient(t *testing.T) {
	f := newFakeGecko(t)
	atomic.StoreInt32(&f.status, http.StatusForbidden)
	c := newTestClient(t, f.srv.URL)

	assert.True(t, c.GetGlobal(context.Background()).IsFallback())
	assert.True(t, c.GetTopCoins(context.Background(), 3, "usd").IsFallback())
	assert.Equal(t, int32(1), f.count("/global"))
	assert.Zero(t, f.count("/coins/markets"))
	assert.True(t, c.Diagnostics().Disabled)
}

func TestAPIKeyHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("x-cg-demo-api-key")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	cfg := config.Default().CoinGecko
	cfg.BaseURL = srv.URL
	cfg.APIKey = "demo-key"
	require.NoError(t, New(cfg).Ping(context.Background()))
	assert.Equal(t, "demo-key", got)
}
