package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"CoinDash/internal/domain/models"
	"CoinDash/pkg/metrics"
	"CoinDash/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	failing bool
	got     []*models.Feedback
	batches int
}

func (p *fakePublisher) setFailing(v bool) {
	p.mu.Lock()
	p.failing = v
	p.mu.Unlock()
}

func (p *fakePublisher) Publish(_ context.Context, f *models.Feedback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failing {
		return errors.New("broker unavailable")
	}
	p.got = append(p.got, f)
	return nil
}

func (p *fakePublisher) PublishBatch(_ context.Context, items []*models.Feedback) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches++
	p.got = append(p.got, items...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func feedback(id, client string) *models.Feedback {
	return &models.Feedback{
		ID: id, ClientID: client, ContentType: models.ContentTypeNews,
		ContentID: "n-1", Rating: models.ThumbsUp, CreatedAt: time.Now(),
	}
}

func TestProcessPublishes(t *testing.T) {
	pub := &fakePublisher{}
	p := NewFeedbackPipeline(pub, metrics.Nop{})

	require.NoError(t, p.Process(context.Background(), feedback("1", "a")))
	assert.Equal(t, 1, pub.count())
}

func TestProcessRejectsInvalid(t *testing.T) {
	p := NewFeedbackPipeline(&fakePublisher{}, metrics.Nop{})
	bad := []*models.Feedback{
		nil,
		{ContentType: models.ContentTypeNews, ContentID: "x", Rating: models.ThumbsUp},
		{ID: "1", ContentType: models.ContentTypeNews, Rating: models.ThumbsUp},
		{ID: "1", ContentType: "PODCAST", ContentID: "x", Rating: models.ThumbsUp},
		{ID: "1", ContentType: models.ContentTypeMeme, ContentID: "x", Rating: "MEH"},
	}
	for _, f := range bad {
		assert.Error(t, p.Process(context.Background(), f))
	}
}

func TestProcessThrottlesPerClient(t *testing.T) {
	pub := &fakePublisher{}
	p := NewFeedbackPipeline(pub, metrics.Nop{}, WithMaxRPS(1))

	require.NoError(t, p.Process(context.Background(), feedback("1", "a")))
	assert.ErrorIs(t, p.Process(context.Background(), feedback("2", "a")), ErrThrottled)
	require.NoError(t, p.Process(context.Background(), feedback("3", "b")))
	assert.Equal(t, 2, pub.count())
}

func TestThrottleFollowsClock(t *testing.T) {
	clk := util.NewManualClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	pub := &fakePublisher{}
	p := NewFeedbackPipeline(pub, metrics.Nop{}, WithMaxRPS(2), WithClock(clk))

	require.NoError(t, p.Process(context.Background(), feedback("1", "a")))
	clk.Advance(499 * time.Millisecond)
	assert.ErrorIs(t, p.Process(context.Background(), feedback("2", "a")), ErrThrottled)
	clk.Advance(time.Millisecond)
	require.NoError(t, p.Process(context.Background(), feedback("3", "a")))
	assert.Equal(t, 2, pub.count())
}

func TestBufferedUntilPublisherRecovers(t *testing.T) {
	pub := &fakePublisher{failing: true}
	p := NewFeedbackPipeline(pub, metrics.Nop{}, WithMaxRPS(1000))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, p.Process(ctx, feedback("1", "a")))
	require.NoError(t, p.Process(ctx, feedback("2", "b")))
	assert.Equal(t, 2, p.Buffered())

	pub.setFailing(false)
	p.Start(ctx)
	assert.Eventually(t, func() bool { return pub.count() == 2 }, 5*time.Second, 10*time.Millisecond)
	p.Stop(ctx)
}

func TestBufferFullReportsError(t *testing.T) {
	pub := &fakePublisher{failing: true}
	p := NewFeedbackPipeline(pub, metrics.Nop{}, WithMaxRPS(1000), WithBufferSize(1))

	require.NoError(t, p.Process(context.Background(), feedback("1", "a")))
	assert.Error(t, p.Process(context.Background(), feedback("2", "b")))
}

func TestStopFlushesBuffer(t *testing.T) {
	pub := &fakePublisher{failing: true}
	p := NewFeedbackPipeline(pub, metrics.Nop{}, WithMaxRPS(1000))
	ctx := context.Background()

	require.NoError(t, p.Process(ctx, feedback("1", "a")))
	p.Start(ctx)
	p.Stop(ctx)

	assert.Equal(t, 1, pub.count())
	assert.Equal(t, 0, p.Buffered())
}

func TestRestartAfterStopIsNoop(t *testing.T) {
	pub := &fakePublisher{}
	p := NewFeedbackPipeline(pub, metrics.Nop{})
	ctx := context.Background()

	p.Start(ctx)
	p.Stop(ctx)
	assert.NotPanics(t, func() {
		p.Start(ctx)
		p.Stop(ctx)
		p.Stop(ctx)
	})

	// Process still publishes directly after the pipeline stopped.
	require.NoError(t, p.Process(ctx, feedback("1", "a")))
	assert.Equal(t, 1, pub.count())
}
