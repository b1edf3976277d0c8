package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoLinks is returned when an email analysis request carries no
// usable link at all. This is a malformed request, not a low-confidence
// analysis, so it surfaces as an error rather than a degraded verdict.
var ErrNoLinks = errors.New("at least one link is required")

// summaryLimit caps the caller-facing explanation list.
const summaryLimit = 3

// AggregateEmail combines one sender verdict with per-link verdicts into
// a single overall email verdict. The overall score is the max of the
// sender score and every link score; the overall category is recomputed
// from that score rather than taken from the per-part categories.
func AggregateEmail(sender Verdict, links []LinkResult) (EmailVerdict, error) {
	usable := false
	for _, l := range links {
		if strings.TrimSpace(l.URL) != "" {
			usable = true
			break
		}
	}
	if !usable {
		return EmailVerdict{}, ErrNoLinks
	}

	overallScore := sender.Score
	riskyLinks := 0
	dangerousLinks := 0
	for _, l := range links {
		if l.Verdict.Score > overallScore {
			overallScore = l.Verdict.Score
		}
		switch l.Verdict.Category {
		case RiskDangerous:
			dangerousLinks++
			riskyLinks++
		case RiskSuspicious:
			riskyLinks++
		}
	}

	var explanations []string
	if len(sender.Explanations) > 0 {
		explanations = append(explanations, sender.Explanations[0])
	}
	switch {
	case dangerousLinks > 0:
		explanations = append(explanations, fmt.Sprintf(
			"%d dangerous link(s) and %d suspicious link(s) detected.",
			dangerousLinks, riskyLinks-dangerousLinks))
	case riskyLinks > 0:
		explanations = append(explanations, fmt.Sprintf(
			"%d suspicious link(s) detected.", riskyLinks))
	default:
		explanations = append(explanations, "No suspicious links detected.")
	}

	summary := explanations
	if len(summary) > summaryLimit {
		summary = summary[:summaryLimit]
	}

	return EmailVerdict{
		Overall: Verdict{
			Score:        overallScore,
			Category:     CategoryForScore(overallScore),
			Explanations: explanations,
		},
		Sender:  sender,
		Links:   links,
		Summary: summary,
	}, nil
}
