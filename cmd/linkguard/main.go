package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/adapters/storage"
	"github.com/linkguard/linkguard/internal/config"
	"github.com/linkguard/linkguard/internal/di"
	"github.com/linkguard/linkguard/internal/factory"
	"github.com/linkguard/linkguard/internal/ports"
)

func main() {
	// Load a local .env when present; ignored in containerized deploys
	_ = godotenv.Load()

	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	store storage.Store,
	apiServer ports.APIServer,
	gatewayFactory *factory.GatewayFactory,
) error {
	defer logger.Sync()

	if err := di.SeedBootstrapAdmin(context.Background(), cfg, store, logger); err != nil {
		logger.Fatal("Failed to seed bootstrap admin", zap.Error(err))
		return err
	}

	// Start the SMTP gateway when enabled
	var gateway ports.MessageGateway
	if gatewayFactory.IsGatewayEnabled() {
		gw, err := gatewayFactory.CreateGateway()
		if err != nil {
			logger.Fatal("Failed to create SMTP gateway", zap.Error(err))
			return err
		}
		if err := gw.Start(); err != nil {
			logger.Fatal("Failed to start SMTP gateway", zap.Error(err))
			return err
		}
		gateway = gw
	}

	// Start the HTTP API server; it blocks, so run it in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP API server failed", zap.Error(err))
		}
	}

	if err := apiServer.Stop(); err != nil {
		logger.Error("Failed to stop HTTP API server", zap.Error(err))
	}
	if gateway != nil {
		if err := gateway.Stop(); err != nil {
			logger.Error("Failed to stop SMTP gateway", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close storage", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
