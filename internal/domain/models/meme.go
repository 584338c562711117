package models

type MemeCategory string

const (
	MemeHODL    MemeCategory = "HODL"
	MemePump    MemeCategory = "PUMP"
	MemeDump    MemeCategory = "DUMP"
	MemeFOMO    MemeCategory = "FOMO"
	MemeFUD     MemeCategory = "FUD"
	MemeGeneral MemeCategory = "GENERAL"
)

func (c MemeCategory) Valid() bool {
	switch c {
	case MemeHODL, MemePump, MemeDump, MemeFOMO, MemeFUD, MemeGeneral:
		return true
	}
	return false
}

type Meme struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	URL         string       `json:"url"`
	Source      string       `json:"source"`
	Tags        []string     `json:"tags"`
	Description string       `json:"description,omitempty"`
	Category    MemeCategory `json:"category,omitempty"`
}

// RedditPost is the subset of a listing child the meme pipeline reads.
type RedditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Permalink  string  `json:"permalink"`
	IsVideo    bool    `json:"is_video"`
	Thumbnail  string  `json:"thumbnail"`
	PostHint   string  `json:"post_hint,omitempty"`
	PreviewURL string  `json:"preview_url,omitempty"`
}
