package smtpgw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
)

type backend struct {
	gateway *Gateway
}

func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{
		gateway:    b.gateway,
		recipients: make([]string, 0),
	}, nil
}

type session struct {
	gateway    *Gateway
	sender     string
	recipients []string
}

func (s *session) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

func (s *session) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.gateway.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	processed, err := s.gateway.processMessage(ctx, s.sender, rawData)
	if err != nil {
		if errors.Is(err, errRejected) {
			return fmt.Errorf("550 %v", err)
		}
		return err
	}

	if !s.gateway.relayEnabled {
		s.gateway.logger.Warn("Upstream relay disabled, dropping message after analysis",
			zap.String("from", s.sender))
		return nil
	}

	if err := s.gateway.relay(s.sender, s.recipients, processed); err != nil {
		s.gateway.logger.Error("Failed to relay message upstream",
			zap.Error(err),
			zap.String("from", s.sender))
		return err
	}
	return nil
}

func (s *session) Logout() error {
	return nil
}
