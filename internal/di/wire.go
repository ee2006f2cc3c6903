//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Ingest side
		ProvideCandleStorage,
		ProvideCandlePublisher,
		ProvideKafkaCandlesHandler,
		ProvideMarketStream,
		ProvideBackfiller,
		ProvideCandleProcessor,
		ProvideCandleCollector,

		// Decision engine
		ProvideCandleStore,
		ProvideSignalStore,
		ProvideBundleProvider,
		ProvidePipeline,
		ProvideNotifier,
		ProvideOutcomeModel,
		ProvideSignalGenerator,
		ProvideSignalEvaluator,
		ProvideSignalsUseCase,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
