package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/linkguard/linkguard/internal/core"
)

// testHookParam is the query parameter honored when the server runs
// with test hooks enabled. It forces a link's category so end-to-end
// checks can exercise every verdict band without crafted URLs.
const testHookParam = "linkguard_test"

// TestHookOverride maps the test-hook query parameter of a link onto a
// forced category. Wired into the analysis service only when
// server.test_hooks is set; production containers never install it.
func TestHookOverride(rawURL string) (core.RiskCategory, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(parsed.Query().Get(testHookParam)) {
	case "danger", "dangerous":
		return core.RiskDangerous, true
	case "suspicious":
		return core.RiskSuspicious, true
	case "safe":
		return core.RiskSafe, true
	}
	return "", false
}

type analyzeURLRequest struct {
	URL string `json:"url"`
}

type urlVerdictResponse struct {
	URL           string   `json:"url"`
	OrgID         int64    `json:"org_id"`
	RiskCategory  string   `json:"risk_category"`
	Score         int      `json:"score"`
	Explanations  []string `json:"explanations"`
	NormalizedURL string   `json:"normalized_url"`
	Host          *string  `json:"host"`
}

func hostOrNull(host string) *string {
	if host == "" {
		return nil
	}
	return &host
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	org, ok := orgFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing API key")
		return
	}

	var req analyzeURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusUnprocessableEntity, "url is required")
		return
	}

	verdict := s.service.AnalyzeURL(r.Context(), org.OrgID, req.URL)

	writeJSON(w, http.StatusOK, urlVerdictResponse{
		URL:           req.URL,
		OrgID:         org.OrgID,
		RiskCategory:  string(verdict.Category),
		Score:         verdict.Score,
		Explanations:  verdict.Explanations,
		NormalizedURL: verdict.NormalizedURL,
		Host:          hostOrNull(verdict.Host),
	})
}

type analyzeEmailRequest struct {
	Links         []string `json:"links"`
	FromName      string   `json:"from_name"`
	FromEmail     string   `json:"from_email"`
	ReplyToEmails []string `json:"reply_to_emails"`
	Source        string   `json:"source"`
}

type senderVerdictResponse struct {
	RiskCategory string   `json:"risk_category"`
	Score        int      `json:"score"`
	Explanations []string `json:"explanations"`
	Signals      []string `json:"signals"`
}

type linkVerdictResponse struct {
	URL           string   `json:"url"`
	NormalizedURL string   `json:"normalized_url"`
	Host          *string  `json:"host"`
	RiskCategory  string   `json:"risk_category"`
	Score         int      `json:"score"`
	Explanations  []string `json:"explanations"`
}

type emailVerdictResponse struct {
	// category and risk_category carry the same value; older clients
	// read one, newer clients the other.
	Category     string                `json:"category"`
	RiskCategory string                `json:"risk_category"`
	Score        int                   `json:"score"`
	Explanation  string                `json:"explanation"`
	Explanations []string              `json:"explanations"`
	Sender       senderVerdictResponse `json:"sender"`
	Links        []linkVerdictResponse `json:"links"`
}

func (s *Server) handleAnalyzeEmail(w http.ResponseWriter, r *http.Request) {
	org, ok := orgFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing API key")
		return
	}

	var req analyzeEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity := core.SenderIdentity{
		DisplayName:   req.FromName,
		FromEmail:     req.FromEmail,
		ReplyToEmails: req.ReplyToEmails,
	}

	verdict, err := s.service.AnalyzeEmail(r.Context(), org.OrgID, identity, req.Links)
	if err != nil {
		if errors.Is(err, core.ErrNoLinks) {
			writeError(w, http.StatusUnprocessableEntity, "at least one link is required")
			return
		}
		s.logger.Error("Email analysis failed")
		writeError(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	links := make([]linkVerdictResponse, 0, len(verdict.Links))
	for _, l := range verdict.Links {
		links = append(links, linkVerdictResponse{
			URL:           l.URL,
			NormalizedURL: l.Verdict.NormalizedURL,
			Host:          hostOrNull(l.Verdict.Host),
			RiskCategory:  string(l.Verdict.Category),
			Score:         l.Verdict.Score,
			Explanations:  l.Verdict.Explanations,
		})
	}

	sender := senderVerdictResponse{
		RiskCategory: string(verdict.Sender.Category),
		Score:        verdict.Sender.Score,
		Explanations: emptyIfNil(verdict.Sender.Explanations),
		Signals:      emptyIfNil(verdict.Sender.Signals),
	}

	writeJSON(w, http.StatusOK, emailVerdictResponse{
		Category:     string(verdict.Overall.Category),
		RiskCategory: string(verdict.Overall.Category),
		Score:        verdict.Overall.Score,
		Explanation:  strings.Join(verdict.Summary, " "),
		Explanations: verdict.Summary,
		Sender:       sender,
		Links:        links,
	})
}

// emptyIfNil keeps JSON arrays as [] rather than null.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
