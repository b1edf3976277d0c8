package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/adapters/storage"
	"github.com/linkguard/linkguard/internal/auth"
	"github.com/linkguard/linkguard/internal/config"
	"github.com/linkguard/linkguard/internal/core"
)

// Server is the HTTP front end. It exposes the analysis endpoints to
// tenants and the management endpoints to operators.
type Server struct {
	service *core.AnalysisService
	store   storage.Store
	hasher  *auth.APIKeyHasher
	tokens  *auth.TokenService
	limiter *RateLimiter
	logger  *zap.Logger

	corsOrigins     []string
	shutdownTimeout time.Duration
	httpServer      *http.Server
}

// NewServer wires the HTTP server. Test hooks are only honored when
// enabled in the server configuration.
func NewServer(
	cfg config.ServerConfig,
	rateCfg config.RateLimitConfig,
	service *core.AnalysisService,
	store storage.Store,
	hasher *auth.APIKeyHasher,
	tokens *auth.TokenService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		service:         service,
		store:           store,
		hasher:          hasher,
		tokens:          tokens,
		limiter:         NewRateLimiter(rateCfg.MaxRequests, rateCfg.Window),
		logger:          logger,
		corsOrigins:     cfg.CORSAllowedOrigins,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	if cfg.TestHooks {
		logger.Warn("Test hooks enabled, do not run this in production")
		service.SetCategoryOverride(TestHookOverride)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/analyze-url", s.requireAPIKey(s.rateLimit(s.handleAnalyzeURL)))
	mux.HandleFunc("POST /api/analyze-email", s.requireAPIKey(s.rateLimit(s.handleAnalyzeEmail)))

	mux.HandleFunc("POST /api/admin/login", s.handleAdminLogin)
	mux.HandleFunc("GET /api/admin/orgs", s.requireAdmin(s.handleListOrgs))
	mux.HandleFunc("POST /api/admin/orgs", s.requireAdmin(s.handleCreateOrg))
	mux.HandleFunc("POST /api/admin/orgs/{id}/keys", s.requireAdmin(s.handleMintAPIKey))
	mux.HandleFunc("POST /api/admin/api-keys/{id}/revoke", s.requireAdmin(s.handleRevokeAPIKey))
	mux.HandleFunc("GET /api/admin/stats", s.requireAdmin(s.handleStats))

	return s.requestLogging(s.cors(mux))
}

// Start serves requests until Stop is called. It blocks.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP API server", zap.String("address", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop() error {
	s.logger.Info("Stopping HTTP API server")
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
