package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateURL_SafeBasicDomain(t *testing.T) {
	v := EvaluateURL("https://example.com")

	assert.Equal(t, RiskSafe, v.Category)
	assert.Equal(t, 0, v.Score)
	assert.Equal(t, []string{"No suspicious patterns detected"}, v.Explanations)
	assert.Equal(t, "example.com", v.Host)
}

func TestEvaluateURL_MissingSchemeGetsAdded(t *testing.T) {
	v := EvaluateURL("example.com")

	assert.Equal(t, "https://example.com", v.NormalizedURL)
	assert.Equal(t, "example.com", v.Host)
}

func TestEvaluateURL_InvalidInputIsSentinel(t *testing.T) {
	for _, raw := range []string{"not a url", "", "https://", "ht!tp://%%%"} {
		v := EvaluateURL(raw)

		assert.Empty(t, v.Host, "input %q should have no host", raw)
		assert.Equal(t, 40, v.Score, "input %q", raw)
		assert.Equal(t, RiskSuspicious, v.Category, "input %q", raw)
		assert.NotEmpty(t, v.Explanations, "input %q", raw)
	}
}

func TestEvaluateURL_IPHostIsDangerous(t *testing.T) {
	v := EvaluateURL("http://192.168.0.1/login")

	assert.Equal(t, RiskDangerous, v.Category)
	assert.Contains(t, v.Explanations, "Host is an IP address (common in phishing)")
	assert.Contains(t, v.Explanations, "Suspicious path keyword: 'login'")
	assert.Equal(t, 100, v.Score)
}

func TestEvaluateURL_BracketedIPv6IsSentinel(t *testing.T) {
	// The host character class admits only [a-z0-9.-], so an IPv6
	// literal fails plausibility and degrades to the sentinel verdict.
	v := EvaluateURL("http://[::1]/")

	assert.Empty(t, v.Host)
	assert.Equal(t, RiskSuspicious, v.Category)
	assert.Equal(t, 40, v.Score)
}

func TestEvaluateURL_SuspiciousTLD(t *testing.T) {
	v := EvaluateURL("https://whatever.xyz")

	assert.Equal(t, RiskSuspicious, v.Category)
	assert.Contains(t, v.Explanations, "Suspicious TLD: .xyz")
	assert.Equal(t, 25, v.Score)
}

func TestEvaluateURL_ManySubdomains(t *testing.T) {
	v := EvaluateURL("https://a.b.c.d.e.example.com")

	assert.Equal(t, RiskSuspicious, v.Category)
	assert.Contains(t, v.Explanations, "Many subdomains (5)")
}

func TestEvaluateURL_FewSubdomainsDoNotFlag(t *testing.T) {
	v := EvaluateURL("https://a.b.c.example.com")

	assert.Equal(t, RiskSafe, v.Category)
}

func TestEvaluateURL_Typosquat(t *testing.T) {
	v := EvaluateURL("https://g00gle.com")

	assert.True(t, v.Category.AtLeast(RiskSuspicious))
	assert.Contains(t, v.Explanations, "Possible typosquatting of brand 'google'")
}

func TestEvaluateURL_ExactBrandIsNotTyposquat(t *testing.T) {
	v := EvaluateURL("https://google.com")

	assert.Equal(t, RiskSafe, v.Category)
}

func TestEvaluateURL_PathKeywordFiresOnce(t *testing.T) {
	// Path contains several keywords; the rule fires for the first match
	// in pinned order and only once.
	v := EvaluateURL("https://example.com/login/verify/password")

	require.Len(t, v.Explanations, 1)
	assert.Equal(t, "Suspicious path keyword: 'login'", v.Explanations[0])
	assert.Equal(t, 30, v.Score)
}

func TestEvaluateURL_HostIsLowercased(t *testing.T) {
	v := EvaluateURL("https://EXAMPLE.Com/Path")

	assert.Equal(t, "example.com", v.Host)
}

func TestEvaluateURL_ScoreClampedAt100(t *testing.T) {
	// IP host (70) + path keyword (30) already caps; extra rules must
	// not push past 100.
	v := EvaluateURL("http://192.168.0.1/secure/login/verify")

	assert.Equal(t, 100, v.Score)
	assert.Equal(t, RiskDangerous, v.Category)
}

func TestEvaluateURL_Deterministic(t *testing.T) {
	a := EvaluateURL("https://a.b.c.d.e.whatever.xyz/login")
	b := EvaluateURL("https://a.b.c.d.e.whatever.xyz/login")

	assert.Equal(t, a, b)
}

func TestCategoryForScore_Thresholds(t *testing.T) {
	cases := []struct {
		score int
		want  RiskCategory
	}{
		{0, RiskSafe},
		{24, RiskSafe},
		{25, RiskSuspicious},
		{59, RiskSuspicious},
		{60, RiskDangerous},
		{100, RiskDangerous},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CategoryForScore(tc.score), "score %d", tc.score)
	}
}

func TestNormalizeURL_InvalidHostCharacters(t *testing.T) {
	nu := NormalizeURL("https://exa_mple.com")

	assert.Empty(t, nu.Host)
	assert.Equal(t, "https://exa_mple.com", nu.Normalized)
}

func TestNormalizeURL_SingleLabelHostRequiresIP(t *testing.T) {
	assert.Empty(t, NormalizeURL("https://localhost").Host)
	assert.Equal(t, "127.0.0.1", NormalizeURL("https://127.0.0.1").Host)
}
