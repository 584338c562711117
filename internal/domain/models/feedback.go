package models

import "time"

type ContentType string

const (
	ContentTypeNews      ContentType = "NEWS"
	ContentTypeChart     ContentType = "CHART"
	ContentTypeAIInsight ContentType = "AI_INSIGHT"
	ContentTypeMeme      ContentType = "MEME"
)

type FeedbackRating string

const (
	ThumbsUp   FeedbackRating = "THUMBS_UP"
	ThumbsDown FeedbackRating = "THUMBS_DOWN"
)

// Feedback is published as an event; it is never read back by this service.
type Feedback struct {
	ID          string         `json:"id"`
	ClientID    string         `json:"clientId,omitempty"`
	ContentType ContentType    `json:"contentType"`
	ContentID   string         `json:"contentId"`
	Rating      FeedbackRating `json:"rating"`
	CreatedAt   time.Time      `json:"createdAt"`
}
