package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/service/upstream"
	"CoinDash/pkg/config"
	"CoinDash/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func listing(sub string, scores ...int) string {
	var children []string
	for i, s := range scores {
		children = append(children, fmt.Sprintf(
			`{"data":{"id":"%s%d","title":"HODL meme %d","url":"https://i.redd.it/%s%d.jpg","author":"u%d","subreddit":"%s","score":%d,"is_video":false,"thumbnail":"https://thumb","post_hint":"image","preview":{"images":[{"source":{"url":"https://preview.redd.it/x.jpg?width=640&amp;s=abc"}}]}}}`,
			sub, i, i, sub, i, i, sub, s))
	}
	children = append(children,
		`{"data":{"id":"vid","title":"video","url":"https://v.redd.it/x","is_video":true,"thumbnail":"https://thumb"}}`,
		`{"data":{"id":"nsfw","title":"nsfw","url":"https://i.redd.it/n.jpg","is_video":false,"thumbnail":"nsfw"}}`,
		`{"data":{"id":"self","title":"text post","url":"https://www.reddit.com/r/x/comments/1","is_video":false,"thumbnail":"self"}}`,
	)
	return `{"kind":"Listing","data":{"children":[` + strings.Join(children, ",") + `]}}`
}

type fakeReddit struct {
	srv        *httptest.Server
	auths      int32
	listings   int32
	authStatus int32
	authDelay  time.Duration
	expiresIn  int
	mu         sync.Mutex
	authHeader string
	form       string
}

func newFakeReddit(t *testing.T) *fakeReddit {
	t.Helper()
	f := &fakeReddit{expiresIn: 3600}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/access_token":
			n := atomic.AddInt32(&f.auths, 1)
			_ = r.ParseForm()
			f.mu.Lock()
			f.authHeader = r.Header.Get("Authorization")
			f.form = r.PostForm.Encode()
			f.mu.Unlock()
			time.Sleep(f.authDelay)
			if s := atomic.LoadInt32(&f.authStatus); s != 0 {
				w.WriteHeader(int(s))
				return
			}
			fmt.Fprintf(w, `{"access_token":"tok-%d","token_type":"bearer","expires_in":%d}`, n, f.expiresIn)
		case strings.HasPrefix(r.URL.Path, "/r/") && strings.HasSuffix(r.URL.Path, "/hot.json"):
			atomic.AddInt32(&f.listings, 1)
			if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			sub := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/r/"), "/hot.json")
			switch sub {
			case "bitcoinmemes":
				_, _ = w.Write([]byte(listing(sub, 50, 5)))
			case "cryptomemes":
				_, _ = w.Write([]byte(listing(sub, 30)))
			default:
				_, _ = w.Write([]byte(listing(sub, 10, 20)))
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func newTestClient(t *testing.T, f *fakeReddit, clk util.Clock, id, secret string) *Client {
	t.Helper()
	cfg := config.Default().Reddit
	cfg.AuthURL = f.srv.URL + "/api/v1/access_token"
	cfg.APIURL = f.srv.URL
	cfg.ClientID = id
	cfg.ClientSecret = secret
	cfg.Timeout = 2 * time.Second
	return New(cfg, upstream.WithClock(clk))
}

func TestFetchSubredditFiltersImagePosts(t *testing.T) {
	f := newFakeReddit(t)
	c := newTestClient(t, f, util.NewManualClock(epoch), "id", "secret")

	posts, err := c.FetchSubreddit(context.Background(), "cryptocurrencymemes", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "https://i.redd.it/cryptocurrencymemes0.jpg", posts[0].URL)
	assert.Equal(t, "https://preview.redd.it/x.jpg?width=640&amp;s=abc", posts[0].PreviewURL)

	f.mu.Lock()
	assert.Equal(t, "Basic aWQ6c2VjcmV0", f.authHeader)
	assert.Equal(t, "grant_type=client_credentials", f.form)
	f.mu.Unlock()

	st := c.Status()
	assert.True(t, st.Authenticated)
	assert.Equal(t, Authenticated, st.State)
	require.NotNil(t, st.TokenExpiry)
	assert.Equal(t, epoch.Add(time.Hour), *st.TokenExpiry)
}

func TestReauthenticatesOncePerExpiry(t *testing.T) {
	f := newFakeReddit(t)
	f.expiresIn = 60
	clk := util.NewManualClock(epoch)
	c := newTestClient(t, f, clk, "id", "secret")
	ctx := context.Background()

	_, err := c.FetchSubreddit(ctx, "a", 5)
	require.NoError(t, err)
	_, err = c.FetchSubreddit(ctx, "b", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.auths))

	clk.Advance(61 * time.Second)
	assert.False(t, c.Status().Authenticated)
	_, err = c.FetchSubreddit(ctx, "c", 5)
	require.NoError(t, err)
	_, err = c.FetchSubreddit(ctx, "d", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.auths))
}

func TestConcurrentCallersShareOneAuthentication(t *testing.T) {
	f := newFakeReddit(t)
	f.authDelay = 50 * time.Millisecond
	c := newTestClient(t, f, util.NewManualClock(epoch), "id", "secret")

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.FetchSubreddit(context.Background(), fmt.Sprintf("sub%d", i), 5)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.auths))
}

func TestAuthRejectionDisablesClient(t *testing.T) {
	f := newFakeReddit(t)
	atomic.StoreInt32(&f.authStatus, http.StatusUnauthorized)
	c := newTestClient(t, f, util.NewManualClock(epoch), "id", "bad")

	_, err := c.FetchMemes(context.Background(), 5)
	assert.True(t, upstream.IsKind(err, upstream.KindAuth))
	_, err = c.FetchMemes(context.Background(), 5)
	assert.True(t, upstream.IsKind(err, upstream.KindAuth))

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.auths))
	assert.Zero(t, atomic.LoadInt32(&f.listings))
	st := c.Status()
	assert.True(t, st.Disabled)
	assert.Equal(t, Unauthenticated, st.State)
}

func TestAuthOutageRetriesLater(t *testing.T) {
	f := newFakeReddit(t)
	atomic.StoreInt32(&f.authStatus, http.StatusServiceUnavailable)
	c := newTestClient(t, f, util.NewManualClock(epoch), "id", "secret")

	_, err := c.FetchSubreddit(context.Background(), "a", 5)
	assert.True(t, upstream.IsKind(err, upstream.KindTransient))
	assert.Equal(t, Unauthenticated, c.Status().State)

	atomic.StoreInt32(&f.authStatus, 0)
	_, err = c.FetchSubreddit(context.Background(), "a", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.auths))
}

func TestUnconfiguredNeverCallsReddit(t *testing.T) {
	f := newFakeReddit(t)
	c := newTestClient(t, f, util.NewManualClock(epoch), "", "")

	_, err := c.FetchMemes(context.Background(), 5)
	assert.True(t, upstream.IsKind(err, upstream.KindUnconfigured))
	assert.False(t, c.Status().Configured)
	assert.Zero(t, atomic.LoadInt32(&f.auths))
}

func TestFetchMemesUsesPickedCommunity(t *testing.T) {
	f := newFakeReddit(t)
	c := newTestClient(t, f, util.NewManualClock(epoch), "id", "secret")
	c.pick = func(n int) int { return 1 }

	posts, err := c.FetchMemes(context.Background(), 5)
	require.NoError(t, err)
	require.NotEmpty(t, posts)
	assert.Equal(t, "bitcoinmemes", posts[0].Subreddit)
}

func TestFetchTrendingSortsByScore(t *testing.T) {
	f := newFakeReddit(t)
	c := newTestClient(t, f, util.NewManualClock(epoch), "id", "secret")

	posts, err := c.FetchTrending(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, posts, 4)
	var scores []int
	for _, p := range posts {
		scores = append(scores, p.Score)
	}
	assert.Equal(t, []int{50, 30, 20, 10}, scores)
}

func TestIsImagePost(t *testing.T) {
	cases := []struct {
		url, hint, thumb string
		video            bool
		want             bool
	}{
		{"https://i.imgur.com/a.png", "", "https://t", false, true},
		{"https://www.reddit.com/gallery/abc", "", "https://t", false, true},
		{"https://example.com/page", "image", "https://t", false, true},
		{"https://example.com/page", "link", "https://t", false, false},
		{"https://i.redd.it/a.gif", "", "default", false, false},
		{"https://i.redd.it/a.gif", "image", "https://t", true, false},
		{"", "image", "https://t", false, false},
	}
	for _, tc := range cases {
		p := postFor(tc.url, tc.hint, tc.thumb, tc.video)
		assert.Equal(t, tc.want, IsImagePost(p), tc.url)
	}
}

func postFor(url, hint, thumb string, video bool) models.RedditPost {
	return models.RedditPost{URL: url, PostHint: hint, Thumbnail: thumb, IsVideo: video}
}
