package upstream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CoinDash/internal/domain/models"
	"CoinDash/internal/domain/repository"
	"CoinDash/internal/service/cache"
	"CoinDash/internal/service/ratelimit"
	xhttp "CoinDash/pkg/http"
	applogger "CoinDash/pkg/logger"
	"CoinDash/pkg/metrics"
	"CoinDash/pkg/util"

	"golang.org/x/sync/singleflight"
)

// Config describes one upstream.
type Config struct {
	Name        string
	Timeout     time.Duration
	MaxCalls    int
	Window      time.Duration
	StatusKinds StatusKinds
	// Configured is false when required credentials are missing. Such a
	// provider never touches the network.
	Configured bool
}

// Option configures a Base.
type Option func(*Base)

func WithLogger(l *applogger.Logger) Option {
	return func(b *Base) { b.log = applogger.OrNop(l) }
}

func WithMetrics(m repository.Metrics) Option {
	return func(b *Base) {
		if m != nil {
			b.metrics = m
		}
	}
}

// WithClock drives the limiter, the cache and result timestamps.
func WithClock(c util.Clock) Option {
	return func(b *Base) { b.clock = util.ClockOrSystem(c) }
}

// WithHTTPClient replaces the default client built from Config.Timeout.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(b *Base) { b.client = c }
}

// Base is the shared machinery of a provider client: one rate limiter, one
// TTL cache and one HTTP client, plus the auth-disable latch.
type Base struct {
	name       string
	timeout    time.Duration
	kinds      StatusKinds
	configured bool

	limiter *ratelimit.Limiter
	cache   *cache.TTLCache
	client  *xhttp.Client
	group   singleflight.Group
	log     *applogger.Logger
	metrics repository.Metrics
	clock   util.Clock

	mu       sync.Mutex
	disabled *Error
}

// New builds a Base. cfg.MaxCalls and cfg.Window must be positive.
func New(cfg Config, opts ...Option) *Base {
	b := &Base{
		name:       cfg.Name,
		timeout:    cfg.Timeout,
		kinds:      cfg.StatusKinds,
		configured: cfg.Configured,
		log:        applogger.Nop(),
		metrics:    metrics.Nop{},
		clock:      util.SystemClock,
	}
	if b.timeout <= 0 {
		b.timeout = 10 * time.Second
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(applogger.Provider(b.name))
	if b.client == nil {
		b.client = xhttp.NewClient(xhttp.WithTimeout(b.timeout))
	}
	b.limiter = ratelimit.New(cfg.MaxCalls, cfg.Window,
		ratelimit.WithClock(b.clock),
		ratelimit.WithWaitHook(func(d time.Duration) {
			b.metrics.RecordLimiterWait(b.name, d.Seconds())
			b.log.Warn("rate limit reached, waiting", applogger.Duration("wait_ms", d))
		}),
	)
	b.cache = cache.NewTTLCache(cache.WithClock(b.clock))
	if !b.configured {
		b.log.Warn("credentials not configured, serving fallback data")
	}
	return b
}

func (b *Base) Name() string                { return b.name }
func (b *Base) Configured() bool            { return b.configured }
func (b *Base) Clock() util.Clock           { return b.clock }
func (b *Base) Logger() *applogger.Logger   { return b.log }
func (b *Base) Metrics() repository.Metrics { return b.metrics }
func (b *Base) Cache() *cache.TTLCache      { return b.cache }

// Disabled returns the auth failure that switched the provider to
// fallback-only mode, or nil.
func (b *Base) Disabled() *Error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disabled
}

// Disable latches the provider into fallback-only mode for the rest of the
// process. Only the first call is logged.
func (b *Base) Disable(err *Error) {
	b.mu.Lock()
	first := b.disabled == nil
	if first {
		b.disabled = err
	}
	b.mu.Unlock()
	if first {
		b.metrics.RecordError(b.name + "_auth_disabled")
		b.log.Error("upstream rejected credentials, switching to fallback-only mode",
			applogger.String("op", err.Op),
			applogger.Int("status", err.Status),
			applogger.Error(err.Err),
		)
	}
}

// Guard returns the error a call would fail with before touching the network.
func (b *Base) Guard(op string) error {
	if !b.configured {
		return Unconfigured(b.name, op)
	}
	if d := b.Disabled(); d != nil {
		return &Error{Provider: b.name, Op: op, Kind: KindAuth, Status: d.Status, Err: fmt.Errorf("disabled after %s: %w", d.Op, d.Err)}
	}
	return nil
}

// Send acquires a limiter slot and performs one request bounded by the
// provider timeout. dest follows xhttp.Client.SendAndParse.
func (b *Base) Send(ctx context.Context, op string, req *xhttp.RequestOptions, dest interface{}) error {
	if err := b.Guard(op); err != nil {
		return err
	}
	return b.SendUnguarded(ctx, op, req, dest)
}

// SendUnguarded is Send without the configured/disabled check, for calls that
// establish credentials themselves.
func (b *Base) SendUnguarded(ctx context.Context, op string, req *xhttp.RequestOptions, dest interface{}) error {
	if err := b.limiter.Acquire(ctx); err != nil {
		return &Error{Provider: b.name, Op: op, Kind: KindTransient, Err: fmt.Errorf("waiting for rate limit: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	err := b.client.SendAndParse(ctx, req, dest)
	elapsed := time.Since(start)
	if err == nil {
		b.metrics.RecordUpstreamCall(b.name, op, "ok", elapsed.Seconds())
		return nil
	}

	ue := Classify(b.name, op, b.kinds, err)
	b.metrics.RecordUpstreamCall(b.name, op, string(ue.Kind), elapsed.Seconds())
	fields := []applogger.Field{
		applogger.String("op", op),
		applogger.String("kind", string(ue.Kind)),
		applogger.Int("status", ue.Status),
		applogger.Duration("duration_ms", elapsed),
		applogger.Error(ue.Err),
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.RetryAfter() > 0 {
		fields = append(fields, applogger.Duration("retry_after_ms", se.RetryAfter()))
	}
	b.log.Warn("upstream request failed", fields...)
	if ue.Kind == KindAuth {
		b.Disable(ue)
	}
	return ue
}

// Cached serves key from the cache, or runs fetch once for all concurrent
// callers of the same key and stores the result for ttl. fetch runs on a
// context detached from ctx; a caller giving up does not cancel it.
func Cached[T any](ctx context.Context, b *Base, op, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, models.DataSource, error) {
	var zero T
	if v, ok := cache.GetAs[T](b.cache, key); ok {
		b.metrics.RecordCacheLookup(b.name, true)
		return v, models.SourceCache, nil
	}
	b.metrics.RecordCacheLookup(b.name, false)

	if err := b.Guard(op); err != nil {
		return zero, "", err
	}

	detached := context.WithoutCancel(ctx)
	ch := b.group.DoChan(key, func() (interface{}, error) {
		if v, ok := cache.GetAs[T](b.cache, key); ok {
			return v, nil
		}
		v, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		b.cache.Set(key, v, ttl)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, "", &Error{Provider: b.name, Op: op, Kind: KindTransient, Err: ctx.Err()}
	case r := <-ch:
		if r.Err != nil {
			return zero, "", r.Err
		}
		return r.Val.(T), models.SourceLive, nil
	}
}

// Resolve converts a Fetch outcome into a ProviderResult, substituting the
// fallback on any error.
func Resolve[T any](b *Base, op string, v T, src models.DataSource, err error, fallback func() T) models.ProviderResult[T] {
	now := b.clock.Now()
	if err == nil {
		return models.NewResult(v, src, now)
	}
	b.metrics.RecordFallback(b.name, op)
	if IsKind(err, KindUnconfigured) {
		b.log.Debug("serving fallback", applogger.String("op", op))
	} else {
		b.log.Warn("serving fallback", applogger.String("op", op), applogger.Error(err))
	}
	return models.FallbackResult(fallback(), err, now)
}

// ClearCache drops every cached response.
func (b *Base) ClearCache() {
	b.cache.Clear()
}

// Diagnostics snapshots limiter, cache and latch state.
func (b *Base) Diagnostics() models.ProviderDiagnostics {
	ls := b.limiter.Stats()
	cs := b.cache.Stats()
	d := models.ProviderDiagnostics{
		Provider:   b.name,
		Configured: b.configured,
		RateLimit:  models.RateLimitStats{InWindow: ls.InWindow, MaxCalls: ls.MaxCalls, Window: ls.Window},
		Cache:      models.CacheStats{Size: cs.Size, Keys: cs.Keys, Hits: cs.Hits, Misses: cs.Misses},
	}
	if dis := b.Disabled(); dis != nil {
		d.Disabled = true
		d.Reason = dis.Error()
	}
	return d
}
