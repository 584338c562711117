package reddit

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/service/upstream"
	"CoinDash/pkg/cache"
	"CoinDash/pkg/config"
	xhttp "CoinDash/pkg/http"
	applogger "CoinDash/pkg/logger"

	"github.com/tidwall/gjson"
)

const Name = "reddit"

const defaultLimit = 10

// Client reads hot image posts from a fixed set of meme communities through
// the Reddit OAuth API.
type Client struct {
	base *upstream.Base
	cfg  config.Reddit
	// pick chooses the community for FetchMemes.
	pick func(n int) int

	authMu sync.Mutex

	mu     sync.RWMutex
	state  AuthState
	token  string
	expiry time.Time
}

func New(cfg config.Reddit, opts ...upstream.Option) *Client {
	base := upstream.New(upstream.Config{
		Name:        Name,
		Timeout:     cfg.Timeout,
		MaxCalls:    cfg.RateLimit.MaxCalls,
		Window:      cfg.RateLimit.Window,
		StatusKinds: upstream.DefaultStatusKinds,
		Configured:  cfg.ClientID != "" && cfg.ClientSecret != "",
	}, opts...)
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &Client{base: base, cfg: cfg, pick: rand.IntN, state: Unauthenticated}
}

func (c *Client) Name() string { return Name }

func (c *Client) Diagnostics() models.ProviderDiagnostics {
	d := c.base.Diagnostics()
	st := c.Status()
	d.Extra = map[string]any{"state": st.State, "subreddits": c.cfg.Subreddits}
	return d
}

func (c *Client) ClearCache() { c.base.ClearCache() }

// Ping makes sure a token can be obtained.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.accessToken(ctx)
	return err
}

// IsImagePost keeps non-video posts with an image hint or an image-like URL
// and a usable thumbnail.
func IsImagePost(p models.RedditPost) bool {
	if p.IsVideo || p.URL == "" || p.Thumbnail == "nsfw" || p.Thumbnail == "default" {
		return false
	}
	if p.PostHint == "image" {
		return true
	}
	for _, marker := range []string{".jpg", ".png", ".gif", ".jpeg", "i.redd.it", "imgur.com", "reddit.com/gallery"} {
		if strings.Contains(p.URL, marker) {
			return true
		}
	}
	return false
}

func parseListing(body []byte) ([]models.RedditPost, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("listing is not valid JSON")
	}
	children := gjson.GetBytes(body, "data.children")
	if !children.IsArray() {
		return nil, errors.New("listing has no data.children")
	}
	posts := make([]models.RedditPost, 0, len(children.Array()))
	children.ForEach(func(_, child gjson.Result) bool {
		d := child.Get("data")
		if !d.IsObject() {
			return true
		}
		posts = append(posts, models.RedditPost{
			ID:         d.Get("id").String(),
			Title:      d.Get("title").String(),
			URL:        d.Get("url").String(),
			Author:     d.Get("author").String(),
			Subreddit:  d.Get("subreddit").String(),
			Score:      int(d.Get("score").Int()),
			CreatedUTC: d.Get("created_utc").Float(),
			Permalink:  d.Get("permalink").String(),
			IsVideo:    d.Get("is_video").Bool(),
			Thumbnail:  d.Get("thumbnail").String(),
			PostHint:   d.Get("post_hint").String(),
			PreviewURL: d.Get("preview.images.0.source.url").String(),
		})
		return true
	})
	return posts, nil
}

func normLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func (c *Client) hot(ctx context.Context, sub string, limit int) ([]models.RedditPost, error) {
	sub = strings.ToLower(strings.TrimSpace(sub))
	limit = normLimit(limit)
	key := cache.GenerateKeyWithParams("hot", sub, limit)
	posts, _, err := upstream.Cached(ctx, c.base, "hot", key, c.cfg.TTL, func(ctx context.Context) ([]models.RedditPost, error) {
		tok, err := c.accessToken(ctx)
		if err != nil {
			return nil, err
		}
		var body []byte
		err = c.base.Send(ctx, "hot", &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    c.cfg.APIURL + "/r/" + url.PathEscape(sub) + "/hot.json",
			Headers: map[string]string{
				"Authorization": "Bearer " + tok,
				"User-Agent":    c.cfg.UserAgent,
			},
			QueryParams: url.Values{"limit": {strconv.Itoa(limit)}},
		}, &body)
		if err != nil {
			return nil, err
		}
		all, err := parseListing(body)
		if err != nil {
			return nil, upstream.Malformed(Name, "hot", err)
		}
		images := make([]models.RedditPost, 0, len(all))
		for _, p := range all {
			if IsImagePost(p) {
				images = append(images, p)
			}
		}
		if len(images) > limit {
			images = images[:limit]
		}
		c.base.Logger().Debug("fetched posts", applogger.String("subreddit", sub), applogger.Int("count", len(images)))
		return images, nil
	})
	return posts, err
}

// FetchSubreddit returns image posts from one community.
func (c *Client) FetchSubreddit(ctx context.Context, sub string, limit int) ([]models.RedditPost, error) {
	return c.hot(ctx, sub, limit)
}

// FetchMemes returns image posts from one randomly chosen community.
func (c *Client) FetchMemes(ctx context.Context, limit int) ([]models.RedditPost, error) {
	if len(c.cfg.Subreddits) == 0 {
		return nil, upstream.Unconfigured(Name, "hot")
	}
	sub := c.cfg.Subreddits[c.pick(len(c.cfg.Subreddits))]
	return c.hot(ctx, sub, limit)
}

// FetchTrending merges every community and keeps the highest scored posts.
// It fails only when every community failed.
func (c *Client) FetchTrending(ctx context.Context, limit int) ([]models.RedditPost, error) {
	limit = normLimit(limit)
	subs := c.cfg.Subreddits
	if len(subs) == 0 {
		return nil, upstream.Unconfigured(Name, "trending")
	}
	per := (limit + len(subs) - 1) / len(subs)

	var all []models.RedditPost
	var lastErr error
	ok := 0
	for _, sub := range subs {
		posts, err := c.hot(ctx, sub, per)
		if err != nil {
			lastErr = err
			continue
		}
		ok++
		all = append(all, posts...)
	}
	if ok == 0 {
		return nil, lastErr
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
