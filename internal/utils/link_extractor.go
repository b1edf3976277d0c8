package utils

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// LinkExtractor pulls URLs out of email bodies for analysis.
type LinkExtractor struct {
	logger   *zap.Logger
	maxLinks int
}

// hrefPattern matches quoted href targets in HTML bodies.
var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)

// urlPattern matches bare URLs in plain-text bodies.
var urlPattern = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"')\]]+`)

// NewLinkExtractor creates a LinkExtractor. maxLinks caps the number of
// links returned per message; zero or negative means no cap.
func NewLinkExtractor(logger *zap.Logger, maxLinks int) *LinkExtractor {
	return &LinkExtractor{
		logger:   logger,
		maxLinks: maxLinks,
	}
}

// Extract collects links from a plain-text and an HTML body, in order
// of appearance, with duplicates removed. HTML anchors come first since
// they are what the recipient actually clicks.
func (e *LinkExtractor) Extract(textBody, htmlBody string) []string {
	var links []string
	seen := make(map[string]struct{})

	add := func(link string) {
		link = strings.TrimRight(strings.TrimSpace(link), ".,;")
		if link == "" {
			return
		}
		if !strings.HasPrefix(strings.ToLower(link), "http://") &&
			!strings.HasPrefix(strings.ToLower(link), "https://") {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	for _, match := range hrefPattern.FindAllStringSubmatch(htmlBody, -1) {
		add(match[1])
	}
	for _, match := range urlPattern.FindAllString(textBody, -1) {
		add(match)
	}

	if e.maxLinks > 0 && len(links) > e.maxLinks {
		if e.logger != nil {
			e.logger.Debug("Link list truncated",
				zap.Int("found", len(links)),
				zap.Int("max", e.maxLinks))
		}
		links = links[:e.maxLinks]
	}

	return links
}
