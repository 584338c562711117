//go:build wireinject
// +build wireinject

package di

import (
	"CoinDash/pkg/config"
	"CoinDash/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideInsightStore,

		// Upstream clients
		ProvideCoinGecko,
		ProvideCryptoPanic,
		ProvideOpenRouter,
		ProvideReddit,
		ProvideMemeService,

		// Feedback path
		ProvideFeedbackPublisher,
		ProvideFeedbackPipeline,
		ProvideFeedbackService,

		// Use cases and HTTP
		ProvideDashboardAggregator,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
