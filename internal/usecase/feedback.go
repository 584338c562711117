package usecase

import (
	"context"
	"fmt"

	"CoinDash/internal/domain/models"
	applogger "CoinDash/pkg/logger"
	"CoinDash/pkg/util"

	"github.com/google/uuid"
)

// FeedbackSink accepts feedback events for delivery.
type FeedbackSink interface {
	Process(ctx context.Context, f *models.Feedback) error
}

// FeedbackService turns validated requests into feedback events.
type FeedbackService struct {
	sink  FeedbackSink
	clock util.Clock
	log   *applogger.Logger
	newID func() string
}

func NewFeedbackService(sink FeedbackSink, clock util.Clock, l *applogger.Logger) *FeedbackService {
	return &FeedbackService{
		sink:  sink,
		clock: util.ClockOrSystem(clock),
		log:   applogger.OrNop(l),
		newID: uuid.NewString,
	}
}

func (s *FeedbackService) Submit(ctx context.Context, clientID string, req models.FeedbackRequest) (*models.Feedback, error) {
	f := &models.Feedback{
		ID:          s.newID(),
		ClientID:    clientID,
		ContentType: models.ContentType(req.ContentType),
		ContentID:   req.ContentID,
		Rating:      models.FeedbackRating(req.Rating),
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.sink.Process(ctx, f); err != nil {
		return nil, fmt.Errorf("submit feedback: %w", err)
	}
	s.log.Info("feedback submitted",
		applogger.String("content_type", string(f.ContentType)),
		applogger.String("content_id", f.ContentID),
		applogger.String("rating", string(f.Rating)),
	)
	return f, nil
}
