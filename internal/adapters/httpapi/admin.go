package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/linkguard/linkguard/internal/adapters/storage"
	"github.com/linkguard/linkguard/internal/auth"
	"github.com/linkguard/linkguard/internal/core"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.store.GetAdminUserByEmail(r.Context(), req.Email)
	if err != nil || !user.Active || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		// Same response whether the account is missing, disabled or the
		// password is wrong.
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.IssueAdminToken(user.ID)
	if err != nil {
		s.logger.Error("Failed to issue admin token")
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
}

type orgResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func toOrgResponse(org storage.Organization) orgResponse {
	return orgResponse{
		ID:        org.ID,
		Name:      org.Name,
		CreatedAt: org.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListOrgs(w http.ResponseWriter, r *http.Request) {
	orgs, err := s.store.ListOrganizations(r.Context())
	if err != nil {
		s.logger.Error("Failed to list organizations")
		writeError(w, http.StatusInternalServerError, "Failed to list organizations")
		return
	}

	out := make([]orgResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, toOrgResponse(org))
	}
	writeJSON(w, http.StatusOK, out)
}

type createOrgRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateOrg(w http.ResponseWriter, r *http.Request) {
	var req createOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	org, err := s.store.CreateOrganization(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "Organization already exists")
			return
		}
		s.logger.Error("Failed to create organization")
		writeError(w, http.StatusInternalServerError, "Failed to create organization")
		return
	}

	writeJSON(w, http.StatusCreated, toOrgResponse(org))
}

type mintKeyResponse struct {
	ID        int64  `json:"id"`
	OrgID     int64  `json:"org_id"`
	Key       string `json:"key"`
	KeyPrefix string `json:"key_prefix"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleMintAPIKey(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid organization id")
		return
	}

	if _, err := s.store.GetOrganization(r.Context(), orgID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Organization not found")
			return
		}
		s.logger.Error("Failed to load organization")
		writeError(w, http.StatusInternalServerError, "Failed to load organization")
		return
	}

	rawKey, prefix, err := auth.GenerateAPIKey()
	if err != nil {
		s.logger.Error("Failed to generate API key")
		writeError(w, http.StatusInternalServerError, "Failed to generate API key")
		return
	}

	key, err := s.store.CreateAPIKey(r.Context(), storage.APIKey{
		OrgID:     orgID,
		KeyHash:   s.hasher.Hash(rawKey),
		KeyPrefix: prefix,
		Active:    true,
	})
	if err != nil {
		s.logger.Error("Failed to store API key")
		writeError(w, http.StatusInternalServerError, "Failed to store API key")
		return
	}

	// The plaintext key appears in this response and nowhere else.
	writeJSON(w, http.StatusCreated, mintKeyResponse{
		ID:        key.ID,
		OrgID:     key.OrgID,
		Key:       rawKey,
		KeyPrefix: key.KeyPrefix,
		CreatedAt: key.CreatedAt.UTC().Format(time.RFC3339),
	})
}

type revokeKeyResponse struct {
	ID        int64  `json:"id"`
	OrgID     int64  `json:"org_id"`
	KeyPrefix string `json:"key_prefix"`
	Active    bool   `json:"active"`
	RevokedAt string `json:"revoked_at"`
}

func (s *Server) handleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid API key id")
		return
	}

	key, err := s.store.RevokeAPIKey(r.Context(), keyID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "API key not found")
			return
		}
		s.logger.Error("Failed to revoke API key")
		writeError(w, http.StatusInternalServerError, "Failed to revoke API key")
		return
	}

	resp := revokeKeyResponse{
		ID:        key.ID,
		OrgID:     key.OrgID,
		KeyPrefix: key.KeyPrefix,
		Active:    key.Active,
	}
	if key.RevokedAt != nil {
		resp.RevokedAt = key.RevokedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	TotalScans       int64                 `json:"total_scans"`
	RiskDistribution map[string]int64      `json:"risk_distribution"`
	TopRiskyDomains  []domainCountResponse `json:"top_risky_domains"`
	DailyTrend       []dayCountResponse    `json:"daily_trend"`
}

type domainCountResponse struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

type dayCountResponse struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var filter storage.StatsFilter

	q := r.URL.Query()
	if raw := q.Get("org_id"); raw != "" {
		orgID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid org_id")
			return
		}
		filter.OrgID = orgID
	}
	if raw := q.Get("from"); raw != "" {
		from, err := parseStatsTime(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid from timestamp")
			return
		}
		filter.From = from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := parseStatsTime(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid to timestamp")
			return
		}
		filter.To = to
	}

	stats, err := s.store.Stats(r.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to compute stats")
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	dist := make(map[string]int64, len(stats.RiskDistribution))
	for _, cat := range []core.RiskCategory{core.RiskSafe, core.RiskSuspicious, core.RiskDangerous} {
		dist[string(cat)] = stats.RiskDistribution[cat]
	}

	domains := make([]domainCountResponse, 0, len(stats.TopRiskyDomains))
	for _, d := range stats.TopRiskyDomains {
		domains = append(domains, domainCountResponse{Domain: d.Domain, Count: d.Count})
	}
	trend := make([]dayCountResponse, 0, len(stats.DailyTrend))
	for _, d := range stats.DailyTrend {
		trend = append(trend, dayCountResponse{Day: d.Day, Count: d.Count})
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalScans:       stats.TotalScans,
		RiskDistribution: dist,
		TopRiskyDomains:  domains,
		DailyTrend:       trend,
	})
}

// parseStatsTime accepts RFC 3339 timestamps or bare YYYY-MM-DD dates.
func parseStatsTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
