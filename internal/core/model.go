package core

// RiskCategory is the coarse-grained verdict for a URL, sender or email.
type RiskCategory string

const (
	RiskSafe       RiskCategory = "SAFE"
	RiskSuspicious RiskCategory = "SUSPICIOUS"
	RiskDangerous  RiskCategory = "DANGEROUS"
)

// rank orders categories (SAFE < SUSPICIOUS < DANGEROUS).
func (c RiskCategory) rank() int {
	switch c {
	case RiskDangerous:
		return 2
	case RiskSuspicious:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether c is as severe as other.
func (c RiskCategory) AtLeast(other RiskCategory) bool {
	return c.rank() >= other.rank()
}

// Score thresholds shared by every evaluator. Keeping the mapping
// identical across evaluators is what makes sender and link scores
// directly comparable during aggregation.
const (
	dangerousThreshold  = 60
	suspiciousThreshold = 25

	// sentinelScore is assigned when a URL cannot be parsed or has no
	// usable host. Unparseable input is worth a second look but is not
	// proof of an attack, so it lands in SUSPICIOUS.
	sentinelScore = 40

	maxScore = 100
)

// CategoryForScore maps a 0-100 score onto a risk category.
func CategoryForScore(score int) RiskCategory {
	switch {
	case score >= dangerousThreshold:
		return RiskDangerous
	case score >= suspiciousThreshold:
		return RiskSuspicious
	default:
		return RiskSafe
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// Verdict is the immutable result of one evaluation.
type Verdict struct {
	Score        int
	Category     RiskCategory
	Explanations []string
	// Signals holds machine-readable rule identifiers. Only the sender
	// evaluator emits them; URL verdicts leave this nil.
	Signals []string
}

// URLVerdict is a Verdict plus the normalization outcome for one URL.
type URLVerdict struct {
	Verdict
	// NormalizedURL is the scheme-qualified form of the input.
	NormalizedURL string
	// Host is empty when the URL had no plausible host; such verdicts
	// carry the sentinel SUSPICIOUS outcome rather than an error.
	Host string
}

// SenderIdentity is the caller-supplied identity of an email sender.
type SenderIdentity struct {
	DisplayName   string
	FromEmail     string
	ReplyToEmails []string
}

// LinkResult pairs one input link with its evaluation.
type LinkResult struct {
	URL     string
	Verdict URLVerdict
}

// EmailVerdict combines a sender verdict and per-link verdicts into one
// overall email verdict.
type EmailVerdict struct {
	Overall Verdict
	Sender  Verdict
	// Links preserves the input order, including links that failed
	// normalization (those carry their own sentinel verdicts).
	Links []LinkResult
	// Summary is the caller-facing explanation list, truncated to the
	// first three entries. Overall.Explanations retains the full set.
	Summary []string
}
