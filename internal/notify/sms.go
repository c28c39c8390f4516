package notify

import (
	"context"
	"fmt"

	"github.com/arsmn/go-smsir/smsir"
	"github.com/nyaruka/phonenumbers"

	"github.com/deskflow/support-desk/internal/config"
)

// SMSSender delivers a short text to a phone number in E.164 form.
type SMSSender interface {
	Send(ctx context.Context, mobile, title, body string) error
}

// SMSIRSender sends through the sms.ir template API.
type SMSIRSender struct {
	client     *smsir.Client
	templateID string
}

// NewSMSIRSender returns a sender for cfg. Without an API key the sender is disabled.
func NewSMSIRSender(cfg config.SMSConfig) *SMSIRSender {
	if cfg.APIKey == "" {
		return &SMSIRSender{}
	}
	return &SMSIRSender{
		client:     smsir.NewClient().WithAuthentication(cfg.APIKey, cfg.SecretKey),
		templateID: cfg.TemplateID,
	}
}

// Enabled reports whether the sms.ir client is configured.
func (s *SMSIRSender) Enabled() bool {
	return s != nil && s.client != nil
}

// Send fills the template parameters "title" and "message".
func (s *SMSIRSender) Send(ctx context.Context, mobile, title, body string) error {
	if !s.Enabled() {
		return ErrChannelDisabled
	}
	if s.templateID == "" {
		return fmt.Errorf("sms template ID is required")
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     mobile,
		TemplateID: s.templateID,
		Parameters: []smsir.UltraFastParameter{
			{Key: "title", Value: title},
			{Key: "message", Value: body},
		},
	}
	if _, err := s.client.Verification.UltraFastSend(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

// NormalizePhone parses raw in defaultRegion and returns it in E.164.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", fmt.Errorf("parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number %q", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
