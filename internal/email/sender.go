package email

import (
	"context"

	"eventquote_backend/platform/config"
)

// CascadeFailure describes a cascade step that needs operator attention.
type CascadeFailure struct {
	QuotationID    string
	OrganizationID string
	RunID          string
	Action         string
	Step           string
	Error          string
	Attempt        int
}

type Sender interface {
	SendCascadeStepFailedEmail(ctx context.Context, toEmail string, failure CascadeFailure) error
}

type NoopSender struct{}

func (NoopSender) SendCascadeStepFailedEmail(ctx context.Context, toEmail string, failure CascadeFailure) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured and a no-op sender
// otherwise.
func NewSender(cfg config.SMTPConfig) (Sender, error) {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}, nil
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
