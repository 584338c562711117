package repository

import (
	"context"
	"fmt"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/domain/repository"
	pkgkafka "CoinDash/pkg/kafka"
	applogger "CoinDash/pkg/logger"
)

// Producer is the subset of *pkgkafka.Producer the publisher uses.
type Producer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaFeedbackPublisher implements FeedbackPublisher for Kafka. Events are
// keyed by content id so ratings of one item stay ordered.
type KafkaFeedbackPublisher struct {
	producer Producer
	topic    string
}

// NewKafkaFeedbackPublisher creates Kafka publisher.
func NewKafkaFeedbackPublisher(producer Producer, topic string) repository.FeedbackPublisher {
	return &KafkaFeedbackPublisher{producer: producer, topic: topic}
}

// FeedbackEvent names the event header of every feedback message.
const FeedbackEvent = "dashboard.feedback"

func feedbackKey(f *models.Feedback) []byte {
	return []byte(string(f.ContentType) + ":" + f.ContentID)
}

func feedbackMessage(f *models.Feedback) pkgkafka.Message {
	return pkgkafka.Message{
		Key:     feedbackKey(f),
		Value:   f,
		Headers: map[string]string{"event": FeedbackEvent, "content_type": string(f.ContentType)},
	}
}

func (p *KafkaFeedbackPublisher) Publish(ctx context.Context, f *models.Feedback) error {
	if f == nil {
		return fmt.Errorf("feedback nil")
	}
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{feedbackMessage(f)})
}

func (p *KafkaFeedbackPublisher) PublishBatch(ctx context.Context, items []*models.Feedback) error {
	if len(items) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(items))
	for _, f := range items {
		if f == nil {
			continue
		}
		msgs = append(msgs, feedbackMessage(f))
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaFeedbackPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// LogFeedbackPublisher records feedback in the log only. It is used when no
// Kafka brokers are configured.
type LogFeedbackPublisher struct {
	log *applogger.Logger
}

func NewLogFeedbackPublisher(l *applogger.Logger) repository.FeedbackPublisher {
	return &LogFeedbackPublisher{log: applogger.OrNop(l)}
}

func (p *LogFeedbackPublisher) Publish(_ context.Context, f *models.Feedback) error {
	if f == nil {
		return fmt.Errorf("feedback nil")
	}
	p.log.Info("feedback received",
		applogger.String("feedback_id", f.ID),
		applogger.String("content_type", string(f.ContentType)),
		applogger.String("content_id", f.ContentID),
		applogger.String("rating", string(f.Rating)),
	)
	return nil
}

func (p *LogFeedbackPublisher) PublishBatch(ctx context.Context, items []*models.Feedback) error {
	for _, f := range items {
		if err := p.Publish(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (p *LogFeedbackPublisher) Close() error { return nil }
