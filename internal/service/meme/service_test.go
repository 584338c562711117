package meme

import (
	"context"
	"errors"
	"testing"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/service/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPosts struct {
	posts []models.RedditPost
	err   error
	calls int
}

func (s *stubPosts) FetchMemes(ctx context.Context, limit int) ([]models.RedditPost, error) {
	s.calls++
	return s.posts, s.err
}

func first(int) int { return 0 }

func newTestService(src PostSource) *Service {
	s := NewService(src)
	s.pick = first
	return s
}

func TestCuratedCollection(t *testing.T) {
	memes := curatedMemes()
	require.Len(t, memes, 15)
	ids := map[string]bool{}
	for _, m := range memes {
		assert.False(t, ids[m.ID], "duplicate id %s", m.ID)
		ids[m.ID] = true
		assert.Equal(t, curatedSource, m.Source)
		assert.True(t, m.Category.Valid())
		assert.NotEmpty(t, m.URL)
		assert.NotEmpty(t, m.Tags)
	}
}

func TestRandomMemePrefersReddit(t *testing.T) {
	src := &stubPosts{posts: []models.RedditPost{{
		ID: "abc", Title: "HODL to the moon", URL: "https://i.redd.it/a.jpg",
		PreviewURL: "https://preview.redd.it/a.jpg?w=1&amp;s=2", Author: "satoshi", Subreddit: "bitcoinmemes", Score: 42,
	}}}
	s := newTestService(src)

	r := s.RandomMeme(context.Background())
	assert.Equal(t, models.SourceLive, r.Source)
	assert.Equal(t, "reddit-abc", r.Data.ID)
	assert.Equal(t, "https://preview.redd.it/a.jpg?w=1&s=2", r.Data.URL)
	assert.Equal(t, "r/bitcoinmemes by u/satoshi", r.Data.Source)
	assert.Equal(t, "Reddit meme with 42 upvotes", r.Data.Description)
	assert.Equal(t, []string{"HODL", "MOON", "BITCOINMEMES"}, r.Data.Tags)
	assert.Equal(t, models.MemeHODL, r.Data.Category)
	assert.NotNil(t, s.Stats().LastFetch)
}

func TestRandomMemeFallsBackToCurated(t *testing.T) {
	cases := map[string]PostSource{
		"no source":    nil,
		"unconfigured": &stubPosts{err: upstream.Unconfigured("reddit", "hot")},
		"failure":      &stubPosts{err: errors.New("boom")},
		"empty":        &stubPosts{},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestService(src)
			r := s.RandomMeme(context.Background())
			assert.True(t, r.IsFallback())
			assert.Equal(t, "hodl-1", r.Data.ID)
			assert.NotEmpty(t, r.Error)
			assert.Nil(t, s.Stats().LastFetch)
		})
	}
}

func TestMemeByCategory(t *testing.T) {
	s := newTestService(nil)

	r := s.MemeByCategory(context.Background(), "dump")
	assert.Equal(t, models.SourceCache, r.Source)
	assert.Equal(t, models.MemeDump, r.Data.Category)

	unknown := s.MemeByCategory(context.Background(), "SIDEWAYS")
	assert.True(t, unknown.IsFallback())
	assert.NotEmpty(t, unknown.Data.ID)
}

func TestMemeByTags(t *testing.T) {
	s := newTestService(nil)
	s.pick = func(n int) int { return n - 1 }

	r := s.MemeByTags(context.Background(), []string{"btc"})
	assert.Equal(t, "satoshi-1", r.Data.ID)

	none := s.MemeByTags(context.Background(), []string{"NOPE"})
	assert.True(t, none.IsFallback())
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		title string
		tags  []string
		want  models.MemeCategory
	}{
		{"Just hold it", nil, models.MemeHODL},
		{"Wen lambo", nil, models.MemePump},
		{"Paper hands everywhere", []string{"PAPER"}, models.MemeDump},
		{"fomo got me", []string{"FOMO"}, models.MemeFOMO},
		{"more fud", []string{"FUD"}, models.MemeFUD},
		{"a cat", nil, models.MemeGeneral},
		{"diamond moon", []string{"DIAMOND", "MOON"}, models.MemeHODL},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Categorize(tc.title, tc.tags), tc.title)
	}
}

func TestStats(t *testing.T) {
	st := newTestService(nil).Stats()
	assert.Equal(t, 15, st.Size)
	assert.Equal(t, []models.MemeCategory{models.MemeDump, models.MemeFOMO, models.MemeFUD, models.MemeGeneral, models.MemeHODL, models.MemePump}, st.Categories)
}

func TestFallbackMeme(t *testing.T) {
	m := FallbackMeme()
	assert.Equal(t, "fallback-1", m.ID)
	assert.Equal(t, models.MemeGeneral, m.Category)
	assert.Equal(t, []string{"CRYPTO", "LIFE", "FUN"}, m.Tags)
}
