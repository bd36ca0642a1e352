//go:build wireinject
// +build wireinject

package di

import (
	"TipsEngine/pkg/config"
	"TipsEngine/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,
		ProvideModelRegistry,

		// Infrastructure clients
		ProvideSQLClient,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideSQLStore,
		ProvideCachedRatings,
		ProvideHistory,
		ProvideEventPublisher,
		ProvideLocker,

		// Use cases
		ProvideStatisticsEngine,
		ProvideRatingService,
		ProvideMatchFinishedHandler,
		ProvideQueue,

		// Transport
		ProvideLimiter,
		ProvideStatisticsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
