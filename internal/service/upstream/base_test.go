package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"CoinDash/internal/domain/models"
	xhttp "CoinDash/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBase(configured bool) *Base {
	return New(Config{
		Name:       "test",
		Timeout:    2 * time.Second,
		MaxCalls:   100,
		Window:     time.Minute,
		Configured: configured,
	})
}

func statusServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSendDecodesJSON(t *testing.T) {
	var hits int32
	srv := statusServer(t, http.StatusOK, `{"value":42}`, &hits)
	b := newTestBase(true)

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, b.Send(context.Background(), "get", &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: srv.URL}, &out))
	assert.Equal(t, 42, out.Value)
	assert.Equal(t, 1, b.Diagnostics().RateLimit.InWindow)
}

func TestSendClassifiesStatus(t *testing.T) {
	cases := []struct {
		status int
		kind   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusInternalServerError, KindTransient},
		{http.StatusBadGateway, KindTransient},
	}
	for _, tc := range cases {
		var hits int32
		srv := statusServer(t, tc.status, `{}`, &hits)
		b := newTestBase(true)
		err := b.Send(context.Background(), "get", &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: srv.URL}, nil)
		require.Error(t, err)
		assert.Equal(t, tc.kind, KindOf(err), "status %d", tc.status)
		assert.Nil(t, b.Disabled())
	}
}

func TestSendMalformedBody(t *testing.T) {
	var hits int32
	srv := statusServer(t, http.StatusOK, `{not json`, &hits)
	b := newTestBase(true)
	var out map[string]any
	err := b.Send(context.Background(), "get", &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: srv.URL}, &out)
	assert.True(t, IsKind(err, KindMalformed))
}

func TestAuthFailureDisablesProvider(t *testing.T) {
	var hits int32
	srv := statusServer(t, http.StatusUnauthorized, `{"error":"bad key"}`, &hits)
	b := newTestBase(true)
	req := &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: srv.URL}

	err := b.Send(context.Background(), "get", req, nil)
	require.True(t, IsKind(err, KindAuth))
	require.NotNil(t, b.Disabled())

	err = b.Send(context.Background(), "get", req, nil)
	assert.True(t, IsKind(err, KindAuth))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	d := b.Diagnostics()
	assert.True(t, d.Disabled)
	assert.NotEmpty(t, d.Reason)
}

func TestUnconfiguredNeverCallsUpstream(t *testing.T) {
	var hits int32
	srv := statusServer(t, http.StatusOK, `{}`, &hits)
	b := newTestBase(false)

	err := b.Send(context.Background(), "get", &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: srv.URL}, nil)
	assert.True(t, IsKind(err, KindUnconfigured))

	_, _, err = Cached(context.Background(), b, "get", "k", time.Minute, func(ctx context.Context) (int, error) {
		t.Fatal("fetch must not run")
		return 0, nil
	})
	assert.True(t, IsKind(err, KindUnconfigured))
	assert.Zero(t, atomic.LoadInt32(&hits))
	assert.Zero(t, b.Diagnostics().RateLimit.InWindow)
}

func TestCachedServesSecondCallFromCache(t *testing.T) {
	b := newTestBase(true)
	var calls int32
	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "fresh", nil
	}

	v, src, err := Cached(context.Background(), b, "get", "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, models.SourceLive, src)

	v, src, err = Cached(context.Background(), b, "get", "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
	assert.Equal(t, models.SourceCache, src)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCachedDoesNotStoreFailures(t *testing.T) {
	b := newTestBase(true)
	boom := &Error{Provider: "test", Op: "get", Kind: KindTransient, Err: errors.New("boom")}
	_, _, err := Cached(context.Background(), b, "get", "k", time.Minute, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, b.Cache().Len())
}

func TestCachedCollapsesConcurrentMisses(t *testing.T) {
	b := newTestBase(true)
	var calls int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := Cached(context.Background(), b, "get", "shared", time.Minute, fetch)
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestCachedCallerCancelKeepsFetchRunning(t *testing.T) {
	b := newTestBase(true)
	release := make(chan struct{})
	done := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		defer close(done)
		<-release
		return 1, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, _, err := Cached(ctx, b, "get", "slow", time.Minute, fetch)
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		assert.True(t, IsKind(err, KindTransient))
	case <-time.After(time.Second):
		t.Fatal("caller was not released on cancellation")
	}

	close(release)
	<-done
	require.Eventually(t, func() bool { return b.Cache().Len() == 1 }, time.Second, time.Millisecond)
}

func TestResolveSubstitutesFallback(t *testing.T) {
	b := newTestBase(true)

	r := Resolve(b, "get", 3, models.SourceLive, nil, func() int { return -1 })
	assert.Equal(t, 3, r.Data)
	assert.Equal(t, models.SourceLive, r.Source)
	assert.Empty(t, r.Error)

	r = Resolve(b, "get", 0, "", Unconfigured("test", "get"), func() int { return -1 })
	assert.Equal(t, -1, r.Data)
	assert.True(t, r.IsFallback())
	assert.Contains(t, r.Error, "unconfigured")
}

func TestClearCache(t *testing.T) {
	b := newTestBase(true)
	_, _, err := Cached(context.Background(), b, "get", "k", time.Minute, func(ctx context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, b.Diagnostics().Cache.Keys)
	b.ClearCache()
	assert.Zero(t, b.Diagnostics().Cache.Size)
}
