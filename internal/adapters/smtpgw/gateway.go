package smtpgw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"os"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"

	"github.com/linkguard/linkguard/internal/config"
	"github.com/linkguard/linkguard/internal/core"
	"github.com/linkguard/linkguard/internal/trustlist"
	"github.com/linkguard/linkguard/internal/utils"
)

// Gateway is an inline SMTP content filter. It accepts messages from
// the MTA, scores their links and sender identity, stamps verdict
// headers and hands the message back upstream for final delivery.
type Gateway struct {
	service   *core.AnalysisService
	extractor *utils.LinkExtractor
	trusted   *trustlist.Checker
	logger    *zap.Logger

	listenAddr     string
	upstreamAddr   string
	relayEnabled   bool
	blockDangerous bool
	categoryHeader string
	scoreHeader    string
	reasonHeader   string

	server *smtp.Server
}

// NewGateway creates the SMTP gateway from its configuration.
func NewGateway(
	cfg config.GatewayConfig,
	service *core.AnalysisService,
	extractor *utils.LinkExtractor,
	trusted *trustlist.Checker,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		service:        service,
		extractor:      extractor,
		trusted:        trusted,
		logger:         logger,
		listenAddr:     cfg.ListenAddress,
		upstreamAddr:   fmt.Sprintf("%s:%d", cfg.UpstreamAddress, cfg.UpstreamPort),
		relayEnabled:   cfg.RelayEnabled,
		blockDangerous: cfg.BlockDangerous,
		categoryHeader: cfg.CategoryHeader,
		scoreHeader:    cfg.ScoreHeader,
		reasonHeader:   cfg.ReasonHeader,
	}
}

// Start starts accepting SMTP connections. It does not block.
func (g *Gateway) Start() error {
	g.server = smtp.NewServer(&backend{gateway: g})
	g.server.Addr = g.listenAddr
	g.server.Domain = "localhost"
	g.server.ReadTimeout = 30 * time.Second
	g.server.WriteTimeout = 30 * time.Second
	g.server.MaxMessageBytes = 30 * 1024 * 1024
	g.server.MaxRecipients = 50
	g.server.AllowInsecureAuth = true

	g.logger.Info("SMTP gateway starting", zap.String("address", g.listenAddr))

	go func() {
		if err := g.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				g.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the gateway.
func (g *Gateway) Stop() error {
	if g.server != nil {
		return g.server.Close()
	}
	return nil
}

// errRejected is returned from processMessage when the message should
// be refused at SMTP time rather than stamped and relayed.
var errRejected = errors.New("message rejected")

// processMessage analyzes a raw message and returns it with verdict
// headers prepended. Trusted senders pass through untouched. A nil
// error with unchanged bytes means the message should be relayed as is.
func (g *Gateway) processMessage(ctx context.Context, envelopeSender string, rawData []byte) ([]byte, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(rawData))
	if err != nil {
		g.logger.Error("Failed to parse message", zap.Error(err))
		// An unparseable message is relayed untouched rather than lost.
		return rawData, nil
	}

	identity := senderIdentity(env, envelopeSender)

	if g.trusted.IsTrusted(identity.FromEmail) {
		g.logger.Info("Trusted sender, skipping analysis",
			zap.String("from", identity.FromEmail))
		return rawData, nil
	}

	links := g.extractor.Extract(env.Text, env.HTML)

	verdict, err := g.service.AnalyzeEmail(ctx, 0, identity, links)
	if err != nil {
		if errors.Is(err, core.ErrNoLinks) {
			// Nothing to judge; stamp a clean verdict so downstream
			// rules can rely on the headers being present.
			return g.stamp(rawData, core.RiskSafe, 0, "No links found"), nil
		}
		g.logger.Error("Failed to analyze message",
			zap.Error(err),
			zap.String("from", identity.FromEmail))
		return rawData, nil
	}

	reason := "No risk indicators"
	if len(verdict.Summary) > 0 {
		reason = verdict.Summary[0]
	}

	if g.blockDangerous && verdict.Overall.Category == core.RiskDangerous {
		g.logger.Info("Rejecting dangerous message",
			zap.String("from", identity.FromEmail),
			zap.Int("score", verdict.Overall.Score),
			zap.String("reason", reason))
		return nil, fmt.Errorf("%w: score %d", errRejected, verdict.Overall.Score)
	}

	g.logger.Info("Processed message",
		zap.String("from", identity.FromEmail),
		zap.String("category", string(verdict.Overall.Category)),
		zap.Int("score", verdict.Overall.Score),
		zap.Int("links", len(links)))

	return g.stamp(rawData, verdict.Overall.Category, verdict.Overall.Score, reason), nil
}

// stamp prepends the verdict headers to the raw message.
func (g *Gateway) stamp(rawData []byte, category core.RiskCategory, score int, reason string) []byte {
	var out bytes.Buffer
	fmt.Fprintf(&out, "%s: %s\r\n", g.categoryHeader, category)
	fmt.Fprintf(&out, "%s: %d\r\n", g.scoreHeader, score)
	fmt.Fprintf(&out, "%s: %s\r\n", g.reasonHeader, sanitizeHeaderValue(reason))
	out.Write(rawData)
	return out.Bytes()
}

// sanitizeHeaderValue strips CR and LF so a reason string can never
// smuggle extra headers.
func sanitizeHeaderValue(v string) string {
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		if v[i] == '\r' || v[i] == '\n' {
			continue
		}
		out = append(out, v[i])
	}
	return string(out)
}

// senderIdentity builds the identity under scrutiny from the parsed
// message, falling back to the envelope sender when the From header is
// missing or malformed.
func senderIdentity(env *enmime.Envelope, envelopeSender string) core.SenderIdentity {
	identity := core.SenderIdentity{FromEmail: envelopeSender}

	if from := env.GetHeader("From"); from != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			identity.DisplayName = addr.Name
			identity.FromEmail = addr.Address
		}
	}

	if replyTo := env.GetHeader("Reply-To"); replyTo != "" {
		if addrs, err := mail.ParseAddressList(replyTo); err == nil {
			for _, addr := range addrs {
				identity.ReplyToEmails = append(identity.ReplyToEmails, addr.Address)
			}
		}
	}

	return identity
}

// relay hands the processed message to the upstream MTA.
func (g *Gateway) relay(sender string, recipients []string, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", g.upstreamAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect upstream: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			g.logger.Warn("RCPT TO failed",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			accepted = true
		}
	}
	if !accepted {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		g.logger.Warn("QUIT failed", zap.Error(err))
	}
	return nil
}
