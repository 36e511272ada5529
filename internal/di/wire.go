//go:build wireinject
// +build wireinject

package di

import (
	"PipForge/pkg/config"
	"PipForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,
		ProvideTrainingQueue,

		// Repositories
		ProvideSignalStore,
		ProvideWeightStore,
		ProvideTrainingLog,
		ProvideOutcomePublisher,
		ProvideTickStream,

		// Domain services
		ProvideScorer,
		ProvideOptimizer,

		// Use cases
		ProvideSignalScorer,
		ProvideOutcomeRecorder,
		ProvideOutcomeMonitor,
		ProvideOutcomesHandler,
		ProvideTickCollector,
		ProvideRetrainer,
		ProvideScheduler,

		// HTTP surface and application server
		ProvideSignalsHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
