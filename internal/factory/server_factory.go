package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/adapters/httpapi"
	"github.com/linkguard/linkguard/internal/adapters/storage"
	"github.com/linkguard/linkguard/internal/auth"
	"github.com/linkguard/linkguard/internal/config"
	"github.com/linkguard/linkguard/internal/core"
	"github.com/linkguard/linkguard/internal/ports"
)

// ServerFactory creates the HTTP API server based on configuration
type ServerFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AnalysisService
	store   storage.Store
}

// NewServerFactory creates a new server factory
func NewServerFactory(cfg *config.Config, logger *zap.Logger, service *core.AnalysisService, store storage.Store) *ServerFactory {
	return &ServerFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
		store:   store,
	}
}

// CreateServer creates the HTTP API server from the configuration
func (f *ServerFactory) CreateServer() (ports.APIServer, error) {
	authCfg := f.cfg.GetAuth()

	tokens, err := auth.NewTokenService(authCfg.JWTSecret, authCfg.JWTExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	hasher := auth.NewAPIKeyHasher(authCfg.APIKeyPepper)

	return httpapi.NewServer(
		f.cfg.GetServer(),
		f.cfg.GetRateLimit(),
		f.service,
		f.store,
		hasher,
		tokens,
		f.logger,
	), nil
}
