package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/adapters/storage"
)

type contextKey string

const (
	orgContextKey   contextKey = "org_context"
	adminContextKey contextKey = "admin_context"
)

// OrgContext identifies the tenant behind an authenticated API request.
type OrgContext struct {
	OrgID    int64
	APIKeyID int64
}

// AdminContext identifies the operator behind an admin request.
type AdminContext struct {
	AdminUserID int64
}

func orgFromContext(ctx context.Context) (OrgContext, bool) {
	org, ok := ctx.Value(orgContextKey).(OrgContext)
	return org, ok
}

func adminFromContext(ctx context.Context) (AdminContext, bool) {
	admin, ok := ctx.Value(adminContextKey).(AdminContext)
	return admin, ok
}

// requestLogging assigns each request an ID and logs its outcome.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("Request handled",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// cors applies the configured allowed origins and answers preflights.
func (s *Server) cors(next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(s.corsOrigins))
	for _, origin := range s.corsOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAPIKey authenticates the X-API-Key header against the stored
// key hashes and attaches the tenant context.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawKey := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if rawKey == "" {
			writeError(w, http.StatusUnauthorized, "Missing API key")
			return
		}

		key, err := s.store.GetAPIKeyByHash(r.Context(), s.hasher.Hash(rawKey))
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.logger.Error("Failed to look up API key", zap.Error(err))
			}
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		if !key.Active || key.RevokedAt != nil {
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}

		ctx := context.WithValue(r.Context(), orgContextKey, OrgContext{
			OrgID:    key.OrgID,
			APIKeyID: key.ID,
		})
		next(w, r.WithContext(ctx))
	}
}

// rateLimit applies the per-API-key fixed window. Must run after
// requireAPIKey.
func (s *Server) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		org, ok := orgFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Missing API key")
			return
		}

		allowed, retryAfter := s.limiter.Allow(org.APIKeyID)
		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retryAfter.Seconds())))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// requireAdmin validates the bearer token and checks the admin account
// is still active.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		adminID, err := s.tokens.ValidateAdminToken(strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		admin, err := s.store.GetAdminUser(r.Context(), adminID)
		if err != nil || !admin.Active {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey, AdminContext{AdminUserID: admin.ID})
		next(w, r.WithContext(ctx))
	}
}
