//go:build wireinject
// +build wireinject

package di

import (
	"github.com/MetaStark/vision-IoS-sub013/pkg/config"
	"github.com/MetaStark/vision-IoS-sub013/pkg/server"

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
		ProvideRedisClient,

		// Repositories
		ProvideVectorStore,
		ProvideVectorCache,

		// Domain services
		ProvideRegistry,
		ProvideSnapshotProvider,
		ProvideSafetyProvider,
		ProvideSigner,
		ProvideAssembler,

		// Pipeline and use cases
		ProvidePublishPipeline,
		ProvideSynthesizer,
		ProvideAuditQueue,
		ProvideScheduler,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
