package meme

import (
	"fmt"
	"strings"

	"CoinDash/internal/domain/models"
)

var titleTags = []string{
	"BTC", "ETH", "HODL", "MOON", "PUMP", "DUMP", "FOMO", "FUD",
	"DIAMOND", "PAPER", "WHALE", "BULL", "BEAR", "LAMBO", "SATOSHI",
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FromRedditPost converts an image post into a meme.
func FromRedditPost(p models.RedditPost) models.Meme {
	img := p.URL
	if p.PreviewURL != "" {
		img = p.PreviewURL
	}
	img = strings.ReplaceAll(img, "&amp;", "&")

	upper := strings.ToUpper(p.Title)
	tags := make([]string, 0, 4)
	for _, t := range titleTags {
		if strings.Contains(upper, t) {
			tags = append(tags, t)
		}
	}
	if p.Subreddit != "" {
		tags = append(tags, strings.ToUpper(p.Subreddit))
	}

	return models.Meme{
		ID:          "reddit-" + p.ID,
		Title:       p.Title,
		URL:         img,
		Source:      fmt.Sprintf("r/%s by u/%s", p.Subreddit, p.Author),
		Tags:        tags,
		Description: fmt.Sprintf("Reddit meme with %d upvotes", p.Score),
		Category:    Categorize(p.Title, tags),
	}
}

// Categorize applies the first matching rule: HODL, PUMP, DUMP, FOMO, FUD,
// otherwise GENERAL.
func Categorize(title string, tags []string) models.MemeCategory {
	t := strings.ToUpper(title)
	switch {
	case hasTag(tags, "HODL") || strings.Contains(t, "HOLD") || strings.Contains(t, "DIAMOND"):
		return models.MemeHODL
	case hasTag(tags, "PUMP") || strings.Contains(t, "MOON") || strings.Contains(t, "LAMBO"):
		return models.MemePump
	case hasTag(tags, "DUMP") || strings.Contains(t, "BEAR") || strings.Contains(t, "PAPER"):
		return models.MemeDump
	case hasTag(tags, "FOMO") || strings.Contains(t, "FOMO"):
		return models.MemeFOMO
	case hasTag(tags, "FUD") || strings.Contains(t, "FUD"):
		return models.MemeFUD
	}
	return models.MemeGeneral
}
