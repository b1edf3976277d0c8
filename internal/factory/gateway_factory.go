package factory

import (
	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/adapters/smtpgw"
	"github.com/linkguard/linkguard/internal/config"
	"github.com/linkguard/linkguard/internal/core"
	"github.com/linkguard/linkguard/internal/ports"
	"github.com/linkguard/linkguard/internal/trustlist"
	"github.com/linkguard/linkguard/internal/utils"
)

// GatewayFactory creates the inbound SMTP gateway based on configuration
type GatewayFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.AnalysisService
}

// NewGatewayFactory creates a new gateway factory
func NewGatewayFactory(cfg *config.Config, logger *zap.Logger, service *core.AnalysisService) *GatewayFactory {
	return &GatewayFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// IsGatewayEnabled returns whether the SMTP gateway should run
func (f *GatewayFactory) IsGatewayEnabled() bool {
	return f.cfg.GetBool("gateway.enabled")
}

// CreateGateway creates the SMTP gateway from the configuration
func (f *GatewayFactory) CreateGateway() (ports.MessageGateway, error) {
	gwCfg := f.cfg.GetGateway()

	extractor := utils.NewLinkExtractor(f.logger, gwCfg.MaxLinks)
	trusted := trustlist.NewChecker(gwCfg.TrustedDomains, f.logger)

	return smtpgw.NewGateway(gwCfg, f.service, extractor, trusted, f.logger), nil
}
