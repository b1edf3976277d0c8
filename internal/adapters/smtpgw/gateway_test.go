package smtpgw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/config"
	"github.com/linkguard/linkguard/internal/core"
	"github.com/linkguard/linkguard/internal/trustlist"
	"github.com/linkguard/linkguard/internal/utils"
)

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		ListenAddress:   "127.0.0.1:0",
		UpstreamAddress: "127.0.0.1",
		UpstreamPort:    10026,
		RelayEnabled:    true,
		BlockDangerous:  false,
		CategoryHeader:  "X-LinkGuard-Category",
		ScoreHeader:     "X-LinkGuard-Score",
		ReasonHeader:    "X-LinkGuard-Reason",
		MaxLinks:        20,
	}
}

func newTestGateway(t *testing.T, cfg config.GatewayConfig, trustedDomains []string) *Gateway {
	t.Helper()
	logger := zap.NewNop()
	service := core.NewAnalysisService(nil, logger)
	extractor := utils.NewLinkExtractor(logger, cfg.MaxLinks)
	trusted := trustlist.NewChecker(trustedDomains, logger)
	return NewGateway(cfg, service, extractor, trusted, logger)
}

func rawMessage(from, replyTo, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	if replyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", replyTo)
	}
	buf.WriteString("To: victim@example.com\r\n")
	buf.WriteString("Subject: hello\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

func TestProcessMessageStampsDangerous(t *testing.T) {
	g := newTestGateway(t, testGatewayConfig(), nil)

	raw := rawMessage("support@example.com", "",
		"Urgent, confirm here: http://192.168.1.5/login\r\n")

	out, err := g.processMessage(context.Background(), "support@example.com", raw)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "X-LinkGuard-Category: DANGEROUS\r\n")
	assert.Contains(t, text, "X-LinkGuard-Score: 100\r\n")
	assert.Contains(t, text, "X-LinkGuard-Reason: ")
	// Original message is preserved after the stamped headers.
	assert.True(t, strings.HasSuffix(text, string(raw)))
}

func TestProcessMessageStampsSafe(t *testing.T) {
	g := newTestGateway(t, testGatewayConfig(), nil)

	raw := rawMessage("friend@example.com", "",
		"Check out https://example.com/blog\r\n")

	out, err := g.processMessage(context.Background(), "friend@example.com", raw)
	require.NoError(t, err)

	assert.Contains(t, string(out), "X-LinkGuard-Category: SAFE\r\n")
	assert.Contains(t, string(out), "X-LinkGuard-Score: 0\r\n")
}

func TestProcessMessageNoLinks(t *testing.T) {
	g := newTestGateway(t, testGatewayConfig(), nil)

	raw := rawMessage("friend@example.com", "", "Just saying hi.\r\n")

	out, err := g.processMessage(context.Background(), "friend@example.com", raw)
	require.NoError(t, err)

	assert.Contains(t, string(out), "X-LinkGuard-Category: SAFE\r\n")
	assert.Contains(t, string(out), "X-LinkGuard-Reason: No links found\r\n")
}

func TestProcessMessageTrustedSenderPassesThrough(t *testing.T) {
	g := newTestGateway(t, testGatewayConfig(), []string{"example.com"})

	raw := rawMessage("ceo@example.com", "",
		"Wire money via http://10.0.0.1/bank now\r\n")

	out, err := g.processMessage(context.Background(), "ceo@example.com", raw)
	require.NoError(t, err)

	assert.Equal(t, raw, out)
	assert.NotContains(t, string(out), "X-LinkGuard-Category")
}

func TestProcessMessageBlocksDangerous(t *testing.T) {
	cfg := testGatewayConfig()
	cfg.BlockDangerous = true
	g := newTestGateway(t, cfg, nil)

	raw := rawMessage("support@example.com", "",
		"Confirm here: http://192.168.1.5/login\r\n")

	_, err := g.processMessage(context.Background(), "support@example.com", raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errRejected))
}

func TestProcessMessageUsesReplyToMismatch(t *testing.T) {
	g := newTestGateway(t, testGatewayConfig(), nil)

	raw := rawMessage("billing@company.com", "attacker@elsewhere.net",
		"Pay at https://example.com/invoice\r\n")

	out, err := g.processMessage(context.Background(), "billing@company.com", raw)
	require.NoError(t, err)

	// Reply-To pointing at an unrelated domain lifts the verdict even
	// though the link itself is clean.
	assert.Contains(t, string(out), "X-LinkGuard-Category: SUSPICIOUS\r\n")
	assert.Contains(t, string(out), "X-LinkGuard-Score: 40\r\n")
}

func TestProcessMessageExtractsHTMLLinks(t *testing.T) {
	g := newTestGateway(t, testGatewayConfig(), nil)

	var buf bytes.Buffer
	buf.WriteString("From: promo@example.com\r\n")
	buf.WriteString("To: victim@example.com\r\n")
	buf.WriteString("Subject: offer\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(`<a href="http://paypa1.top/verify">Click</a>`)
	buf.WriteString("\r\n")

	out, err := g.processMessage(context.Background(), "promo@example.com", buf.Bytes())
	require.NoError(t, err)

	assert.Contains(t, string(out), "X-LinkGuard-Category: DANGEROUS\r\n")
}

func TestProcessMessageUnparseableRelayedUntouched(t *testing.T) {
	g := newTestGateway(t, testGatewayConfig(), nil)

	// enmime tolerates most malformed input; feed it something with a
	// broken content type so parsing degrades.
	raw := []byte("not an email at all")

	out, err := g.processMessage(context.Background(), "x@example.com", raw)
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestSanitizeHeaderValue(t *testing.T) {
	assert.Equal(t, "a b", sanitizeHeaderValue("a\r\n b"))
	assert.Equal(t, "clean", sanitizeHeaderValue("clean"))
}
