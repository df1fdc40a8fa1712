package mail

import (
	"context"

	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
)

// LogMailer records outbound replies in the log instead of delivering them
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a new log mailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the email
func (m *LogMailer) Send(_ context.Context, email *core.OutboundEmail) error {
	m.logger.Info("Outbound email",
		zap.String("message_id", email.MessageID),
		zap.String("thread_id", email.ThreadID),
		zap.String("from", email.From),
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.Int("body_size", len(email.Body)))
	return nil
}
