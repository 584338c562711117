package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinDash/internal/domain/models"
	domrepo "CoinDash/internal/domain/repository"
	applogger "CoinDash/pkg/logger"
	"CoinDash/pkg/util"
)

// ErrThrottled is returned when a client submits feedback faster than the
// pipeline allows.
var ErrThrottled = fmt.Errorf("feedback throttled")

// FeedbackPipeline sits between the HTTP handler and the publisher.
// It validates and throttles events, and buffers them while the publisher is
// unavailable. It runs once: Start after Stop does nothing.
type FeedbackPipeline struct {
	pub      domrepo.FeedbackPublisher
	metrics  domrepo.Metrics
	log      *applogger.Logger
	clock    util.Clock
	maxRPS   int
	bufSize  int
	bufCh    chan *models.Feedback
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-client last accepted time
}

type PipelineOption func(*FeedbackPipeline)

// WithMaxRPS sets the max events per second per client.
func WithMaxRPS(n int) PipelineOption {
	return func(p *FeedbackPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *FeedbackPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *FeedbackPipeline) { p.log = applogger.OrNop(l) }
}

// WithClock drives throttling and flush backoff.
func WithClock(c util.Clock) PipelineOption {
	return func(p *FeedbackPipeline) { p.clock = util.ClockOrSystem(c) }
}

// NewFeedbackPipeline creates a new pipeline.
func NewFeedbackPipeline(pub domrepo.FeedbackPublisher, metrics domrepo.Metrics, opts ...PipelineOption) *FeedbackPipeline {
	p := &FeedbackPipeline{
		pub:      pub,
		metrics:  metrics,
		log:      applogger.Nop(),
		clock:    util.SystemClock,
		maxRPS:   5,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Feedback, p.bufSize)
	return p
}

// Start launches background flushing of buffered events.
func (p *FeedbackPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case f := <-p.bufCh:
				if err := p.pub.Publish(ctx, f); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("feedback_flush")
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- f:
					default:
						p.metrics.RecordError("feedback_buffer_drop")
						p.log.Warn("feedback dropped", applogger.String("feedback_id", f.ID))
					}
					select {
					case <-p.clock.After(backoff):
					case <-p.stopCh:
						return
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops background flushing and publishes whatever is still buffered
// once, best effort. Only the first call after Start has an effect.
func (p *FeedbackPipeline) Stop(ctx context.Context) {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh

	var rest []*models.Feedback
drain:
	for {
		select {
		case f := <-p.bufCh:
			rest = append(rest, f)
		default:
			break drain
		}
	}
	if len(rest) > 0 {
		if err := p.pub.PublishBatch(ctx, rest); err != nil {
			p.log.Error("flushing buffered feedback failed", applogger.Int("count", len(rest)), applogger.Error(err))
		}
	}
}

// Buffered reports how many events wait for the publisher.
func (p *FeedbackPipeline) Buffered() int { return len(p.bufCh) }

// Process validates, throttles and forwards f. A downstream failure buffers
// the event and is not reported to the caller; the event is accepted.
func (p *FeedbackPipeline) Process(ctx context.Context, f *models.Feedback) error {
	start := p.clock.Now()
	if err := validateFeedback(f); err != nil {
		p.metrics.RecordError("feedback_validate")
		return err
	}
	if !p.allow(f.ClientID, start) {
		p.metrics.RecordError("feedback_throttle")
		return ErrThrottled
	}

	if err := p.pub.Publish(ctx, f); err != nil {
		p.metrics.RecordError("feedback_publish")
		p.log.Warn("feedback publish failed, buffering", applogger.Error(err))
		select {
		case p.bufCh <- f:
		default:
			p.metrics.RecordError("feedback_buffer_full")
			return fmt.Errorf("feedback downstream: %w", err)
		}
		return nil
	}
	p.metrics.RecordLatency("feedback_publish", p.clock.Now().Sub(start).Seconds())
	return nil
}

func validateFeedback(f *models.Feedback) error {
	if f == nil {
		return fmt.Errorf("feedback nil")
	}
	if f.ID == "" {
		return fmt.Errorf("feedback id empty")
	}
	if f.ContentID == "" {
		return fmt.Errorf("content id empty")
	}
	switch f.ContentType {
	case models.ContentTypeNews, models.ContentTypeChart, models.ContentTypeAIInsight, models.ContentTypeMeme:
	default:
		return fmt.Errorf("content type %q invalid", f.ContentType)
	}
	switch f.Rating {
	case models.ThumbsUp, models.ThumbsDown:
	default:
		return fmt.Errorf("rating %q invalid", f.Rating)
	}
	return nil
}

func (p *FeedbackPipeline) allow(client string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[client]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[client] = now
	if len(p.lastSeen) > 10000 {
		for k, t := range p.lastSeen {
			if now.Sub(t) > time.Minute {
				delete(p.lastSeen, k)
			}
		}
	}
	return true
}
