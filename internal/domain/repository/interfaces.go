package repository

import (
	"context"

	"CoinDash/internal/domain/models"
)

// FeedbackPublisher ships feedback events to downstream consumers.
type FeedbackPublisher interface {
	Publish(ctx context.Context, f *models.Feedback) error
	PublishBatch(ctx context.Context, items []*models.Feedback) error
	Close() error
}

type Metrics interface {
	RecordUpstreamCall(provider, op, result string, seconds float64)
	RecordCacheLookup(provider string, hit bool)
	RecordFallback(provider, op string)
	RecordLimiterWait(provider string, seconds float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
