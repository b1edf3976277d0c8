package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CategoryOverride lets a caller force the category of a link verdict.
// It exists purely as a test seam for end-to-end checks; production
// containers leave it nil so the evaluators stay authoritative.
type CategoryOverride func(rawURL string) (RiskCategory, bool)

// AnalysisService orchestrates the pure evaluators and mirrors each
// verdict to the scan-event sink.
type AnalysisService struct {
	sink     ScanEventSink
	logger   *zap.Logger
	override CategoryOverride
	now      func() time.Time
}

// NewAnalysisService creates an analysis service. sink may be nil when
// no audit trail is wanted (CLI usage).
func NewAnalysisService(sink ScanEventSink, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// SetCategoryOverride installs the test seam. Only wired up when the
// server runs with test hooks enabled.
func (s *AnalysisService) SetCategoryOverride(override CategoryOverride) {
	s.override = override
}

// overrideScores maps a forced category onto a representative score so
// downstream aggregation behaves as if the evaluator had produced it.
var overrideScores = map[RiskCategory]int{
	RiskSafe:       0,
	RiskSuspicious: sentinelScore,
	RiskDangerous:  maxScore,
}

func (s *AnalysisService) evaluateLink(rawURL string) URLVerdict {
	verdict := EvaluateURL(rawURL)
	if s.override != nil {
		if cat, ok := s.override(rawURL); ok {
			verdict.Score = overrideScores[cat]
			verdict.Category = cat
		}
	}
	return verdict
}

// AnalyzeURL evaluates one URL on behalf of an organization and records
// the scan. It never fails: malformed input degrades to the sentinel
// SUSPICIOUS verdict.
func (s *AnalysisService) AnalyzeURL(ctx context.Context, orgID int64, rawURL string) URLVerdict {
	verdict := s.evaluateLink(rawURL)

	s.logger.Debug("URL analyzed",
		zap.String("host", verdict.Host),
		zap.String("category", string(verdict.Category)),
		zap.Int("score", verdict.Score))

	s.recordScan(ctx, orgID, verdict, "analyze_url")
	return verdict
}

// AnalyzeEmail evaluates the sender identity and every link, then folds
// the results into one email verdict. Returns ErrNoLinks when the input
// carries no usable link.
func (s *AnalysisService) AnalyzeEmail(ctx context.Context, orgID int64, identity SenderIdentity, links []string) (EmailVerdict, error) {
	senderVerdict := EvaluateSender(identity)

	results := make([]LinkResult, 0, len(links))
	for _, link := range links {
		results = append(results, LinkResult{URL: link, Verdict: s.evaluateLink(link)})
	}

	emailVerdict, err := AggregateEmail(senderVerdict, results)
	if err != nil {
		return EmailVerdict{}, err
	}

	s.logger.Debug("Email analyzed",
		zap.String("category", string(emailVerdict.Overall.Category)),
		zap.Int("score", emailVerdict.Overall.Score),
		zap.Int("links", len(results)))

	for _, l := range emailVerdict.Links {
		s.recordScan(ctx, orgID, l.Verdict, "analyze_email")
	}
	return emailVerdict, nil
}

// recordScan mirrors a verdict to the sink. Failures are logged and
// swallowed; the verdict has already been computed and must stand.
func (s *AnalysisService) recordScan(ctx context.Context, orgID int64, verdict URLVerdict, source string) {
	if s.sink == nil || orgID == 0 {
		return
	}
	domain := verdict.Host
	if domain == "" {
		domain = "invalid"
	}
	event := ScanEvent{
		OrgID:      orgID,
		Domain:     domain,
		Category:   verdict.Category,
		Source:     source,
		OccurredAt: s.now(),
	}
	if err := s.sink.RecordScanEvent(ctx, event); err != nil {
		s.logger.Error("Failed to record scan event",
			zap.Error(err),
			zap.String("domain", domain))
	}
}
