package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func safeLink(url string) LinkResult {
	return LinkResult{URL: url, Verdict: URLVerdict{
		Verdict: Verdict{
			Score:        0,
			Category:     RiskSafe,
			Explanations: []string{"No suspicious patterns detected"},
		},
		NormalizedURL: url,
	}}
}

func scoredLink(url string, score int) LinkResult {
	return LinkResult{URL: url, Verdict: URLVerdict{
		Verdict: Verdict{
			Score:    score,
			Category: CategoryForScore(score),
		},
		NormalizedURL: url,
	}}
}

func TestAggregateEmail_RequiresLinks(t *testing.T) {
	sender := EvaluateSender(SenderIdentity{})

	_, err := AggregateEmail(sender, nil)
	assert.ErrorIs(t, err, ErrNoLinks)

	_, err = AggregateEmail(sender, []LinkResult{{URL: "   "}})
	assert.ErrorIs(t, err, ErrNoLinks)
}

func TestAggregateEmail_DangerousLinkWins(t *testing.T) {
	sender := Verdict{Score: 0, Category: RiskSafe}
	links := []LinkResult{scoredLink("https://bad.example", 100)}

	ev, err := AggregateEmail(sender, links)
	require.NoError(t, err)

	assert.Equal(t, 100, ev.Overall.Score)
	assert.Equal(t, RiskDangerous, ev.Overall.Category)
	assert.Contains(t, ev.Overall.Explanations, "1 dangerous link(s) and 0 suspicious link(s) detected.")
}

func TestAggregateEmail_SenderWinsOverSafeLinks(t *testing.T) {
	sender := Verdict{
		Score:        55,
		Category:     RiskSuspicious,
		Explanations: []string{"Reply-To domain does not match From domain."},
	}
	links := []LinkResult{safeLink("https://example.com"), safeLink("https://example.org")}

	ev, err := AggregateEmail(sender, links)
	require.NoError(t, err)

	assert.Equal(t, 55, ev.Overall.Score)
	assert.Equal(t, RiskSuspicious, ev.Overall.Category)
	assert.Equal(t, []string{
		"Reply-To domain does not match From domain.",
		"No suspicious links detected.",
	}, ev.Overall.Explanations)
}

func TestAggregateEmail_MixedLinkCounts(t *testing.T) {
	sender := Verdict{Score: 0, Category: RiskSafe}
	links := []LinkResult{
		scoredLink("https://a.example", 100),
		scoredLink("https://b.example", 40),
		scoredLink("https://c.example", 70),
		safeLink("https://d.example"),
	}

	ev, err := AggregateEmail(sender, links)
	require.NoError(t, err)

	assert.Equal(t, 100, ev.Overall.Score)
	assert.Contains(t, ev.Overall.Explanations, "2 dangerous link(s) and 1 suspicious link(s) detected.")
}

func TestAggregateEmail_SuspiciousOnlySummary(t *testing.T) {
	sender := Verdict{Score: 0, Category: RiskSafe}
	links := []LinkResult{scoredLink("https://a.example", 40)}

	ev, err := AggregateEmail(sender, links)
	require.NoError(t, err)

	assert.Contains(t, ev.Overall.Explanations, "1 suspicious link(s) detected.")
}

func TestAggregateEmail_CategoryRecomputedFromScore(t *testing.T) {
	// Sender 30 + link 35 are both SUSPICIOUS; the overall score is
	// their max (35), not their sum, so the overall stays SUSPICIOUS.
	sender := Verdict{Score: 30, Category: RiskSuspicious}
	links := []LinkResult{scoredLink("https://a.example", 35)}

	ev, err := AggregateEmail(sender, links)
	require.NoError(t, err)

	assert.Equal(t, 35, ev.Overall.Score)
	assert.Equal(t, RiskSuspicious, ev.Overall.Category)
}

func TestAggregateEmail_PreservesLinkOrder(t *testing.T) {
	sender := Verdict{Score: 0, Category: RiskSafe}
	links := []LinkResult{
		safeLink("https://first.example"),
		scoredLink("https://second.example", 100),
		safeLink("https://third.example"),
	}

	ev, err := AggregateEmail(sender, links)
	require.NoError(t, err)

	require.Len(t, ev.Links, 3)
	assert.Equal(t, "https://first.example", ev.Links[0].URL)
	assert.Equal(t, "https://second.example", ev.Links[1].URL)
	assert.Equal(t, "https://third.example", ev.Links[2].URL)
}

func TestAggregateEmail_ScoreIsOrderIndependent(t *testing.T) {
	sender := Verdict{Score: 20, Category: RiskSafe}
	forward := []LinkResult{
		scoredLink("https://a.example", 40),
		scoredLink("https://b.example", 70),
	}
	backward := []LinkResult{forward[1], forward[0]}

	a, err := AggregateEmail(sender, forward)
	require.NoError(t, err)
	b, err := AggregateEmail(sender, backward)
	require.NoError(t, err)

	assert.Equal(t, a.Overall.Score, b.Overall.Score)
	assert.Equal(t, a.Overall.Category, b.Overall.Category)
}

func TestAggregateEmail_SummaryTruncatedToThree(t *testing.T) {
	sender := Verdict{
		Score:    55,
		Category: RiskSuspicious,
		Explanations: []string{
			"Reply-To domain does not match From domain.",
		},
	}
	links := []LinkResult{scoredLink("https://a.example", 100)}

	ev, err := AggregateEmail(sender, links)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(ev.Summary), 3)
	// The full set stays available for audit.
	assert.GreaterOrEqual(t, len(ev.Overall.Explanations), len(ev.Summary))
}

func TestAggregateEmail_SentinelLinksCountAsSuspicious(t *testing.T) {
	sender := Verdict{Score: 0, Category: RiskSafe}
	links := []LinkResult{
		{URL: "not a url", Verdict: EvaluateURL("not a url")},
	}

	ev, err := AggregateEmail(sender, links)
	require.NoError(t, err)

	assert.Equal(t, 40, ev.Overall.Score)
	assert.Equal(t, RiskSuspicious, ev.Overall.Category)
	assert.Contains(t, ev.Overall.Explanations, "1 suspicious link(s) detected.")
}
