package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/adapters/storage"
	"github.com/linkguard/linkguard/internal/config"
	"github.com/linkguard/linkguard/internal/core"
	"github.com/linkguard/linkguard/internal/factory"
	"github.com/linkguard/linkguard/internal/logging"
	"github.com/linkguard/linkguard/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStorageFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewServerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewGatewayFactory); err != nil {
		return nil, err
	}

	// Register storage backend
	if err := container.Provide(func(f *factory.StorageFactory) (storage.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}

	// Register analysis service, with the store as its scan event sink
	if err := container.Provide(func(store storage.Store, logger *zap.Logger) *core.AnalysisService {
		return core.NewAnalysisService(store, logger)
	}); err != nil {
		return nil, err
	}

	// Register HTTP API server
	if err := container.Provide(func(f *factory.ServerFactory) (ports.APIServer, error) {
		return f.CreateServer()
	}); err != nil {
		return nil, err
	}

	// Register SMTP gateway
	if err := container.Provide(func(f *factory.GatewayFactory) (ports.MessageGateway, error) {
		return f.CreateGateway()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
