package core

import (
	"regexp"
	"strings"
)

// Rule weights for sender analysis.
const (
	weightReplyToMismatch  = 40
	weightFreeMailProvider = 15
	weightDisplayMismatch  = 15
	weightPunycodeDomain   = 30
	weightLookalikeDomain  = 35
)

// Signal identifiers emitted alongside sender explanations.
const (
	SignalReplyToMismatch       = "reply_to_mismatch"
	SignalFreeMailProvider      = "free_mail_provider"
	SignalDisplayDomainMismatch = "display_name_domain_mismatch"
	SignalPunycodeDomain        = "punycode_domain"
	SignalLookalikeDomain       = "lookalike_domain"
)

// freeEmailProviders is kept small and obvious; expand with telemetry.
var freeEmailProviders = map[string]struct{}{
	"gmail.com": {}, "outlook.com": {}, "hotmail.com": {}, "live.com": {},
	"yahoo.com": {}, "aol.com": {}, "icloud.com": {}, "me.com": {},
	"proton.me": {}, "protonmail.com": {}, "pm.me": {}, "gmx.com": {},
}

// senderBrands lists high-value brand tokens with the base domains each
// brand legitimately sends from. Intentionally conservative: a false
// positive here is worse than a miss.
var senderBrands = []struct {
	token   string
	domains []string
}{
	{"google", []string{"google.com"}},
	{"microsoft", []string{"microsoft.com", "office.com", "live.com"}},
	{"paypal", []string{"paypal.com"}},
	{"apple", []string{"apple.com", "icloud.com", "me.com"}},
	{"amazon", []string{"amazon.com"}},
	{"docusign", []string{"docusign.com"}},
	{"okta", []string{"okta.com"}},
	{"dropbox", []string{"dropbox.com"}},
	{"linkedin", []string{"linkedin.com"}},
	{"facebook", []string{"facebook.com", "meta.com"}},
	{"instagram", []string{"instagram.com"}},
}

var orgishTokens = []string{
	"support", "helpdesk", "help", "security", "admin", "it",
	"billing", "invoice", "accounts", "team", "service", "customer",
	"verification", "verify", "alert", "notice",
}

var roleWordPattern = regexp.MustCompile(`\b(it|security|support|billing|accounts)\b`)

var digitPattern = regexp.MustCompile(`\d`)

// leetReplacer undoes the wider substitution alphabet used for sender
// domain lookalikes (g00gle, m1crosoft, micr0s0ft-style labels).
var leetReplacer = strings.NewReplacer(
	"0", "o", "1", "l", "3", "e", "4", "a",
	"5", "s", "7", "t", "8", "b", "9", "g",
)

// emailDomain returns the lowercased domain of an address, or "" when
// the address has no "@".
func emailDomain(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

// baseDomain is a best-effort registered domain: the last two labels of
// the host, used as an organizational-identity proxy in lieu of a real
// public suffix list.
func baseDomain(domain string) string {
	var parts []string
	for _, p := range strings.Split(domain, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return domain
}

// looksOrganizational reports whether a display name reads like a role
// or team rather than a person.
func looksOrganizational(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || strings.Contains(n, "@") {
		return false
	}
	for _, tok := range orgishTokens {
		if strings.Contains(n, tok) {
			return true
		}
	}
	// Multi-word display names count only when they include a role word.
	return len(strings.Fields(n)) >= 2 && roleWordPattern.MatchString(n)
}

// brandInText returns the first brand token contained in the text.
// Brand order is pinned by the senderBrands declaration.
func brandInText(text string) (string, bool) {
	t := strings.ToLower(text)
	for _, b := range senderBrands {
		if strings.Contains(t, b.token) {
			return b.token, true
		}
	}
	return "", false
}

func brandAllowedDomains(token string) []string {
	for _, b := range senderBrands {
		if b.token == token {
			return b.domains
		}
	}
	return nil
}

func isFreeProvider(domain string) bool {
	_, ok := freeEmailProviders[strings.ToLower(domain)]
	return ok
}

func hasPunycode(domain string) bool {
	return strings.Contains(strings.ToLower(domain), "xn--")
}

// lookalikeBrand detects digit-substitution lookalikes such as
// go0gle.com. Domains without digits or punycode are skipped to keep the
// false-positive rate down.
func lookalikeBrand(domain string) (string, bool) {
	d := strings.ToLower(domain)
	if d == "" {
		return "", false
	}
	if !digitPattern.MatchString(d) && !hasPunycode(d) {
		return "", false
	}
	label := strings.Split(d, ".")[0]
	normalized := leetReplacer.Replace(label)
	for _, b := range senderBrands {
		if normalized == b.token && label != b.token {
			return b.token, true
		}
	}
	return "", false
}

// EvaluateSender scores a sender identity against the spoofing
// heuristics. An empty identity yields score 0, SAFE, with no signals.
// The function is pure and never returns an error.
func EvaluateSender(identity SenderIdentity) Verdict {
	var (
		score        int
		signals      []string
		explanations []string
	)

	fromDomain := emailDomain(identity.FromEmail)
	fromBase := baseDomain(fromDomain)

	var replyToDomains []string
	for _, addr := range identity.ReplyToEmails {
		if d := emailDomain(addr); d != "" {
			replyToDomains = append(replyToDomains, d)
		}
	}

	// Reply-To domain mismatch: any reply-to base domain differing from
	// the From base domain is a strong signal.
	if fromDomain != "" && len(replyToDomains) > 0 {
		for _, d := range replyToDomains {
			if baseDomain(d) != fromBase {
				score += weightReplyToMismatch
				signals = append(signals, SignalReplyToMismatch)
				explanations = append(explanations, "Reply-To domain does not match From domain.")
				break
			}
		}
	}

	// Free provider behind an organizational-looking display name.
	if fromDomain != "" && isFreeProvider(fromDomain) && looksOrganizational(identity.DisplayName) {
		score += weightFreeMailProvider
		signals = append(signals, SignalFreeMailProvider)
		explanations = append(explanations, "Sender uses a free email provider for an organizational-looking display name.")
	}

	// Display name claims a brand the sender domain does not belong to.
	if brand, ok := brandInText(identity.DisplayName); ok && fromDomain != "" {
		allowed := false
		for _, d := range brandAllowedDomains(brand) {
			if baseDomain(fromDomain) == baseDomain(d) {
				allowed = true
				break
			}
		}
		if !allowed {
			score += weightDisplayMismatch
			signals = append(signals, SignalDisplayDomainMismatch)
			explanations = append(explanations, "Display name suggests a brand/organization that doesn't match the sender domain.")
		}
	}

	// Punycode can be legitimate, but it is the standard homograph
	// vehicle, so it scores on its own.
	if fromDomain != "" && hasPunycode(fromDomain) {
		score += weightPunycodeDomain
		signals = append(signals, SignalPunycodeDomain)
		explanations = append(explanations, "Sender domain contains punycode (xn--), which is sometimes used for lookalike domains.")
	}

	if fromDomain != "" {
		if _, ok := lookalikeBrand(fromDomain); ok {
			score += weightLookalikeDomain
			signals = append(signals, SignalLookalikeDomain)
			explanations = append(explanations, "Sender domain appears to be a lookalike of a well-known brand.")
		}
	}

	score = clampScore(score)
	return Verdict{
		Score:        score,
		Category:     CategoryForScore(score),
		Explanations: explanations,
		Signals:      signals,
	}
}
