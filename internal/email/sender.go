// Package email delivers customer emails over SMTP, or only logs them when
// no SMTP server is configured.
package email

import (
	"context"

	"crm_backend/platform/config"
	"crm_backend/platform/logger"
)

// Message is one outgoing email. Body is plain text.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender records messages in the log instead of delivering them.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.WithContext(ctx).Info("email not delivered, SMTP disabled", "to", msg.To, "subject", msg.Subject)
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured and a log sender
// otherwise.
func NewSender(cfg config.SMTPConfig, log *logger.Logger) Sender {
	if !cfg.IsSMTPEnabled() {
		return NewLogSender(log)
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(), cfg.GetEmailFromName())
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*SMTPSender)(nil)
)
