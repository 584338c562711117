package meme

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/domain/repository"
	"CoinDash/internal/service/upstream"
	applogger "CoinDash/pkg/logger"
	"CoinDash/pkg/metrics"
	"CoinDash/pkg/util"
)

const (
	Name        = "meme"
	redditLimit = 5
)

var errEmpty = errors.New("no image posts")

// PostSource supplies candidate image posts.
type PostSource interface {
	FetchMemes(ctx context.Context, limit int) ([]models.RedditPost, error)
}

// Service picks memes, preferring live Reddit posts over the curated
// collection.
type Service struct {
	posts   PostSource
	curated []models.Meme
	clock   util.Clock
	log     *applogger.Logger
	metrics repository.Metrics
	pick    func(n int) int

	mu        sync.Mutex
	lastFetch time.Time
}

type Option func(*Service)

func WithLogger(l *applogger.Logger) Option {
	return func(s *Service) { s.log = applogger.OrNop(l) }
}

func WithClock(c util.Clock) Option {
	return func(s *Service) { s.clock = util.ClockOrSystem(c) }
}

func WithMetrics(m repository.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService builds the meme service. posts may be nil.
func NewService(posts PostSource, opts ...Option) *Service {
	s := &Service{
		posts:   posts,
		curated: curatedMemes(),
		clock:   util.SystemClock,
		log:     applogger.Nop(),
		metrics: metrics.Nop{},
		pick:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(applogger.Provider(Name))
	s.log.Info("meme collection ready", applogger.Int("curated", len(s.curated)))
	return s
}

func (s *Service) randomOf(memes []models.Meme) models.Meme {
	return memes[s.pick(len(memes))]
}

func (s *Service) fromReddit(ctx context.Context) (models.Meme, error) {
	if s.posts == nil {
		return models.Meme{}, upstream.Unconfigured("reddit", "memes")
	}
	posts, err := s.posts.FetchMemes(ctx, redditLimit)
	if err != nil {
		return models.Meme{}, err
	}
	if len(posts) == 0 {
		return models.Meme{}, upstream.Malformed("reddit", "memes", errEmpty)
	}
	s.mu.Lock()
	s.lastFetch = s.clock.Now()
	s.mu.Unlock()
	return FromRedditPost(posts[s.pick(len(posts))]), nil
}

// RandomMeme tries Reddit first and falls back to a random curated meme. The
// result is tagged fallback whenever Reddit did not supply it.
func (s *Service) RandomMeme(ctx context.Context) models.ProviderResult[models.Meme] {
	now := s.clock.Now()
	m, err := s.fromReddit(ctx)
	if err == nil {
		s.log.Debug("serving reddit meme", applogger.String("meme_id", m.ID))
		return models.NewResult(m, models.SourceLive, now)
	}
	if upstream.IsKind(err, upstream.KindUnconfigured) {
		s.log.Debug("reddit unavailable, serving curated meme")
	} else {
		s.log.Warn("reddit meme fetch failed, serving curated meme", applogger.Error(err))
	}
	s.metrics.RecordFallback(Name, "random")
	if len(s.curated) == 0 {
		return models.FallbackResult(FallbackMeme(), err, now)
	}
	return models.FallbackResult(s.randomOf(s.curated), err, now)
}

// MemeByCategory picks a curated meme in category, or a random meme when
// the category is unknown or empty.
func (s *Service) MemeByCategory(ctx context.Context, category models.MemeCategory) models.ProviderResult[models.Meme] {
	category = models.MemeCategory(strings.ToUpper(strings.TrimSpace(string(category))))
	var matches []models.Meme
	for _, m := range s.curated {
		if m.Category == category {
			matches = append(matches, m)
		}
	}
	if len(matches) == 0 {
		s.log.Warn("no memes for category, serving random meme", applogger.String("category", string(category)))
		return s.RandomMeme(ctx)
	}
	return models.NewResult(s.randomOf(matches), models.SourceCache, s.clock.Now())
}

// MemeByTags picks a curated meme carrying any of tags, or a random meme when
// none match.
func (s *Service) MemeByTags(ctx context.Context, tags []string) models.ProviderResult[models.Meme] {
	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			want[t] = struct{}{}
		}
	}
	var matches []models.Meme
	for _, m := range s.curated {
		for _, t := range m.Tags {
			if _, ok := want[t]; ok {
				matches = append(matches, m)
				break
			}
		}
	}
	if len(matches) == 0 {
		s.log.Warn("no memes for tags, serving random meme", applogger.Strings("tags", tags))
		return s.RandomMeme(ctx)
	}
	return models.NewResult(s.randomOf(matches), models.SourceCache, s.clock.Now())
}

// Stats describes the curated collection.
type Stats struct {
	Size       int                   `json:"size"`
	LastFetch  *time.Time            `json:"lastFetch,omitempty"`
	Categories []models.MemeCategory `json:"categories"`
}

func (s *Service) Stats() Stats {
	seen := map[models.MemeCategory]struct{}{}
	for _, m := range s.curated {
		if m.Category != "" {
			seen[m.Category] = struct{}{}
		}
	}
	cats := make([]models.MemeCategory, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	st := Stats{Size: len(s.curated), Categories: cats}
	s.mu.Lock()
	if !s.lastFetch.IsZero() {
		t := s.lastFetch
		st.LastFetch = &t
	}
	s.mu.Unlock()
	return st
}
