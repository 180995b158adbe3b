//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"MarketSim/pkg/config"
	"MarketSim/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Market core
		ProvidePriceBook,
		ProvideIndexes,
		ProvideEventLedger,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideClickHouseClient,
		ProvideRedisCache,

		// Sinks and stores
		ProvideTickRecorder,
		ProvidePriceStream,
		ProvideTickPipeline,
		ProvidePortfolioStore,

		// Use cases
		ProvidePortfolioService,
		ProvideRateLimiter,
		ProvideCommandRouter,
		ProvideRandomWalker,
		ProvideReportScheduler,

		// Transports
		ProvideBot,
		ProvideHealthChecks,
		ProvideMarketHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
