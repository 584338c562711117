package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CoinDash/internal/domain/repository"
	mid "CoinDash/internal/middleware"
	pkgcache "CoinDash/pkg/cache"
	"CoinDash/pkg/config"
	xhttp "CoinDash/pkg/http"
	pkgkafka "CoinDash/pkg/kafka"
	applogger "CoinDash/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	pipeline    *mid.FeedbackPipeline
	publisher   repository.FeedbackPublisher
	producer    *pkgkafka.Producer
	store       pkgcache.Service
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	pipeline *mid.FeedbackPipeline,
	publisher repository.FeedbackPublisher,
	producer *pkgkafka.Producer,
	store pkgcache.Service,
) *App {
	return &App{
		cfg:         cfg,
		log:         applogger.OrNop(l),
		httpHandler: handler,
		pipeline:    pipeline,
		publisher:   publisher,
		producer:    producer,
		store:       store,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		xhttp.WithClientRateLimit(a.cfg.Server.ClientRPS, a.cfg.Server.ClientBurst),
	)

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
		a.log.Info("feedback pipeline started", applogger.Bool("kafka", a.producer != nil))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests before draining feedback.
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.pipeline != nil {
		a.pipeline.Stop(shutdownCtx)
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("insight store close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	// Flush aggregated error logs while the producer is still open; the
	// Kafka publisher owns the producer and closes it.
	a.log.RemoveCollector()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("feedback publisher close error", applogger.Error(err))
		}
	}
	return nil
}
