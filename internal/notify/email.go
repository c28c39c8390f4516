package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/deskflow/support-desk/internal/config"
)

// ErrChannelDisabled is returned by senders that have no configuration.
var ErrChannelDisabled = errors.New("channel disabled")

// EmailSender delivers a plain-text email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends email through gomail.
type SMTPSender struct {
	cfg config.EmailConfig
}

// NewSMTPSender returns a sender for cfg. A sender without host is disabled.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Enabled reports whether an SMTP host is configured.
func (s *SMTPSender) Enabled() bool {
	return s != nil && strings.TrimSpace(s.cfg.Host) != ""
}

// Send dials the SMTP server and waits at most the configured timeout or the
// context deadline, whichever is sooner.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if !s.Enabled() {
		return ErrChannelDisabled
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("email recipient is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	wait := s.cfg.Timeout()
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl); remaining > 0 && remaining < wait {
			wait = remaining
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}
