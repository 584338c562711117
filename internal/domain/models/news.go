package models

import "time"

// NewsFilter is the upstream listing filter.
type NewsFilter string

const (
	NewsHot       NewsFilter = "hot"
	NewsRising    NewsFilter = "rising"
	NewsBullish   NewsFilter = "bullish"
	NewsBearish   NewsFilter = "bearish"
	NewsImportant NewsFilter = "important"
	NewsSaved     NewsFilter = "saved"
	NewsLol       NewsFilter = "lol"
)

func (f NewsFilter) Valid() bool {
	switch f {
	case NewsHot, NewsRising, NewsBullish, NewsBearish, NewsImportant, NewsSaved, NewsLol:
		return true
	}
	return false
}

// NewsQuery selects posts. Zero values mean "not set".
type NewsQuery struct {
	Filter     NewsFilter
	Currencies []string
	Regions    []string
	Kind       string // news | media
	Limit      int
}

// Values marker for items that did not come from the news provider.
const (
	NewsSourceCryptoPanic = "cryptopanic"
	NewsSourceFallback    = "fallback"
)

type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
	Tags        []string  `json:"tags"`
	Summary     string    `json:"summary,omitempty"`
	DataSource  string    `json:"dataSource"`
}
