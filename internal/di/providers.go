package di

import (
	"fmt"

	"CoinDash/internal/domain/repository"
	domsvc "CoinDash/internal/domain/service"
	"CoinDash/internal/handler/api"
	mid "CoinDash/internal/middleware"
	internalrepo "CoinDash/internal/repository"
	"CoinDash/internal/service/coingecko"
	"CoinDash/internal/service/cryptopanic"
	"CoinDash/internal/service/meme"
	"CoinDash/internal/service/openrouter"
	"CoinDash/internal/service/reddit"
	"CoinDash/internal/service/upstream"
	"CoinDash/internal/usecase"
	pkgcache "CoinDash/pkg/cache"
	"CoinDash/pkg/config"
	xhttp "CoinDash/pkg/http"
	pkgkafka "CoinDash/pkg/kafka"
	applogger "CoinDash/pkg/logger"
	"CoinDash/pkg/metrics"
	"CoinDash/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are
// configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(cfg.Kafka.AutoCreate),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

const serviceName = "coindash"

// ProvideLogger creates the application logger. Error logs are aggregated
// and shipped to Kafka when a log topic and brokers are configured.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: serviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Log.Topic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval: cfg.Log.FlushInterval,
			Topic:        cfg.Log.Topic,
			Publisher:    producer,
			Service:      serviceName,
			IncludeWarn:  cfg.Log.CollectWarn,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideInsightStore returns the second-tier store for daily insights:
// Redis behind a small memory layer when enabled, memory only otherwise.
func ProvideInsightStore(cfg *config.Config, l *applogger.Logger) pkgcache.Service {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(256))
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisAddr(cfg.Redis.Addr),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
	)
	if err != nil {
		l.Warn("redis unavailable, insights kept in memory only", applogger.Error(err))
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(256))
	}
	return pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(256),
		pkgcache.WithLayeredMemoryTTL(cfg.Redis.MemoryTTL),
	)
}

func upstreamOpts(l *applogger.Logger, m repository.Metrics) []upstream.Option {
	return []upstream.Option{upstream.WithLogger(l), upstream.WithMetrics(m)}
}

func ProvideCoinGecko(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *coingecko.Client {
	return coingecko.New(cfg.CoinGecko, upstreamOpts(l, m)...)
}

func ProvideCryptoPanic(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *cryptopanic.Client {
	return cryptopanic.New(cfg.CryptoPanic, upstreamOpts(l, m)...)
}

func ProvideOpenRouter(cfg *config.Config, store pkgcache.Service, l *applogger.Logger, m repository.Metrics) *openrouter.Client {
	return openrouter.New(cfg.OpenRouter, store, upstreamOpts(l, m)...)
}

func ProvideReddit(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *reddit.Client {
	return reddit.New(cfg.Reddit, upstreamOpts(l, m)...)
}

func ProvideMemeService(rd *reddit.Client, l *applogger.Logger, m repository.Metrics) *meme.Service {
	return meme.NewService(rd, meme.WithLogger(l), meme.WithMetrics(m))
}

// ProvideFeedbackPublisher publishes to Kafka when a producer exists and
// only logs events otherwise.
func ProvideFeedbackPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.FeedbackPublisher {
	if producer == nil {
		return internalrepo.NewLogFeedbackPublisher(l)
	}
	return internalrepo.NewKafkaFeedbackPublisher(producer, cfg.Kafka.FeedbackTopic)
}

func ProvideFeedbackPipeline(pub repository.FeedbackPublisher, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *mid.FeedbackPipeline {
	return mid.NewFeedbackPipeline(pub, m,
		mid.WithMaxRPS(cfg.Kafka.Pipeline.MaxRPS),
		mid.WithBufferSize(cfg.Kafka.Pipeline.BufferSize),
		mid.WithLogger(l),
	)
}

func ProvideFeedbackService(pipe *mid.FeedbackPipeline, l *applogger.Logger) *usecase.FeedbackService {
	return usecase.NewFeedbackService(pipe, nil, l)
}

func ProvideDashboardAggregator(
	cg *coingecko.Client,
	cp *cryptopanic.Client,
	or *openrouter.Client,
	memes *meme.Service,
	cfg *config.Config,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.DashboardAggregator {
	return usecase.NewDashboardAggregator(cg, cp, or, memes,
		usecase.DashboardConfig{
			Timeout:     cfg.Dashboard.Timeout,
			CoinLimit:   cfg.Dashboard.CoinLimit,
			GainerLimit: cfg.Dashboard.GainerLimit,
			NewsLimit:   cfg.Dashboard.NewsLimit,
		},
		usecase.WithDashboardLogger(l),
		usecase.WithDashboardMetrics(m),
	)
}

// ProvideHTTPHandler registers dashboard and diagnostics routes.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	agg *usecase.DashboardAggregator,
	feedback *usecase.FeedbackService,
	cg *coingecko.Client,
	cp *cryptopanic.Client,
	or *openrouter.Client,
	rd *reddit.Client,
	memes *meme.Service,
) xhttp.Handler {
	dash := api.NewDashboardEchoHandler(l, api.DashboardDeps{
		Aggregator:     agg,
		Market:         cg,
		News:           cp,
		Insight:        or,
		Memes:          memes,
		Feedback:       feedback,
		StreamInterval: cfg.Dashboard.StreamInterval,
	})
	probes := []domsvc.Probe{cg, cp, or, rd}
	diag := api.NewDiagnosticsEchoHandler(l, cfg.Environment, probes, []string{coingecko.Name}, rd, or)
	return xhttp.Handlers{dash, diag}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	pipe *mid.FeedbackPipeline,
	pub repository.FeedbackPublisher,
	producer *pkgkafka.Producer,
	store pkgcache.Service,
) *server.App {
	return server.New(cfg, l, handler, pipe, pub, producer, store)
}
