package core

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// Rule weights for URL analysis. Rules are independent and additive;
// the summed score is clamped to 100.
const (
	weightIPHost        = 70
	weightSuspiciousTLD = 25
	weightDeepSubdomain = 25
	weightTyposquat     = 30
	weightPathKeyword   = 30

	// Hosts with labelCount-2 >= deepSubdomainMin trip the subdomain rule.
	deepSubdomainMin = 4
)

// suspiciousTLDs are TLDs disproportionately used by phishing campaigns.
var suspiciousTLDs = map[string]struct{}{
	"zip": {}, "mov": {}, "top": {}, "xyz": {}, "click": {},
	"country": {}, "stream": {}, "gq": {}, "tk": {},
}

// urlBrands are the brand tokens checked by the typosquat rule.
var urlBrands = map[string]struct{}{
	"google": {}, "paypal": {}, "microsoft": {}, "apple": {}, "amazon": {},
}

// suspiciousPathKeywords is sorted so the first-match-wins rule is
// deterministic regardless of platform or map iteration order.
var suspiciousPathKeywords = []string{
	"account", "bank", "billing", "confirm", "login", "password",
	"reset", "secure", "sign-in", "signin", "update", "verification",
	"verify", "wallet",
}

// typosquatReplacer undoes the digit substitutions most commonly used in
// lookalike domains (g00gle, paypa1).
var typosquatReplacer = strings.NewReplacer("0", "o", "1", "l", "3", "e")

var hostPattern = regexp.MustCompile(`^[a-z0-9.-]+$`)

// NormalizedURL is the outcome of normalizing one raw URL string.
type NormalizedURL struct {
	Original   string
	Normalized string
	// Host is empty when the input had no plausible host. Callers must
	// treat that as an evaluation result, not a failure.
	Host string
	Path string
}

func ensureScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		return "https://" + raw
	}
	return raw
}

func isIPHost(host string) bool {
	return net.ParseIP(host) != nil
}

// isPlausibleHost applies a deliberately simple validity check: hosts
// with whitespace or illegal characters, or without a dot and not an IP
// literal, are rejected.
func isPlausibleHost(host string) bool {
	if host == "" || strings.Contains(host, " ") {
		return false
	}
	if !hostPattern.MatchString(host) {
		return false
	}
	if !strings.Contains(host, ".") {
		return isIPHost(host)
	}
	return true
}

// NormalizeURL turns arbitrary input text into a scheme-qualified URL
// with a validated, lowercased host. It never returns an error; inputs
// that cannot be parsed yield a NormalizedURL with an empty Host.
func NormalizeURL(raw string) NormalizedURL {
	nu, _ := normalizeURL(raw)
	return nu
}

// normalizeURL also reports why the host is absent, so the evaluator can
// tell a missing host apart from an implausible one.
func normalizeURL(raw string) (NormalizedURL, string) {
	normalized := ensureScheme(raw)
	out := NormalizedURL{Original: raw, Normalized: normalized}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return out, "Invalid or unparseable URL"
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return out, "Invalid URL (missing host)"
	}
	if !isPlausibleHost(host) {
		return out, "Invalid or unparseable URL"
	}

	out.Host = host
	out.Path = strings.ToLower(parsed.Path)
	return out, ""
}

func topLevelDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-1]
}

// subdomainCount approximates eTLD+1 by treating the last two labels as
// the registered domain.
func subdomainCount(host string) int {
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return 0
	}
	return len(parts) - 2
}

// typosquatBrand checks the second-level label against the brand list
// after undoing common digit substitutions. Returns the brand when the
// normalized label matches but the original does not.
func typosquatBrand(host string) (string, bool) {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return "", false
	}
	sld := parts[len(parts)-2]
	normalized := typosquatReplacer.Replace(sld)
	if _, ok := urlBrands[normalized]; ok && sld != normalized {
		return normalized, true
	}
	return "", false
}

// sentinelURLVerdict is the degraded outcome for input that could not be
// analyzed. Availability of a verdict beats precision here.
func sentinelURLVerdict(normalized, explanation string) URLVerdict {
	return URLVerdict{
		Verdict: Verdict{
			Score:        sentinelScore,
			Category:     CategoryForScore(sentinelScore),
			Explanations: []string{explanation},
		},
		NormalizedURL: normalized,
	}
}

// EvaluateURL scores a raw URL string against the phishing heuristics.
// It never returns an error and never panics: malformed input and
// internal faults both degrade to a SUSPICIOUS sentinel verdict.
func EvaluateURL(raw string) (verdict URLVerdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = sentinelURLVerdict(ensureScheme(raw), "Invalid or unparseable URL")
		}
	}()

	nu, invalidReason := normalizeURL(raw)
	if nu.Host == "" {
		return sentinelURLVerdict(nu.Normalized, invalidReason)
	}

	var (
		score        int
		explanations []string
	)

	if isIPHost(nu.Host) {
		score += weightIPHost
		explanations = append(explanations, "Host is an IP address (common in phishing)")
	}

	if tld := topLevelDomain(nu.Host); tld != "" {
		if _, ok := suspiciousTLDs[tld]; ok {
			score += weightSuspiciousTLD
			explanations = append(explanations, fmt.Sprintf("Suspicious TLD: .%s", tld))
		}
	}

	if n := subdomainCount(nu.Host); n >= deepSubdomainMin {
		score += weightDeepSubdomain
		explanations = append(explanations, fmt.Sprintf("Many subdomains (%d)", n))
	}

	if brand, ok := typosquatBrand(nu.Host); ok {
		score += weightTyposquat
		explanations = append(explanations, fmt.Sprintf("Possible typosquatting of brand '%s'", brand))
	}

	if nu.Path != "" {
		for _, kw := range suspiciousPathKeywords {
			if strings.Contains(nu.Path, kw) {
				score += weightPathKeyword
				explanations = append(explanations, fmt.Sprintf("Suspicious path keyword: '%s'", kw))
				break
			}
		}
	}

	if score > maxScore {
		score = maxScore
	}
	if len(explanations) == 0 {
		explanations = []string{"No suspicious patterns detected"}
	}

	return URLVerdict{
		Verdict: Verdict{
			Score:        score,
			Category:     CategoryForScore(score),
			Explanations: explanations,
		},
		NormalizedURL: nu.Normalized,
		Host:          nu.Host,
	}
}
