package factory

import (
	"fmt"

	"github.com/mikey/outreach-agent/internal/adapters/mail"
	"github.com/mikey/outreach-agent/internal/config"
	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
)

// MailFactory creates the outbound mailer and the inbound listener
type MailFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMailFactory creates a new mail factory
func NewMailFactory(cfg *config.Config, logger *zap.Logger) *MailFactory {
	return &MailFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMailer creates the configured outbound mailer
func (f *MailFactory) CreateMailer() (core.Mailer, error) {
	mailCfg, err := f.cfg.GetMail()
	if err != nil {
		return nil, err
	}

	switch mailCfg.OutboundType {
	case "log":
		return mail.NewLogMailer(f.logger), nil
	case "smtp":
		return mail.NewSMTPMailer(mailCfg.OutboundAddress, mailCfg.Username, mailCfg.Password, mailCfg.OutboundTimeout, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported mailer type: %s", mailCfg.OutboundType)
	}
}

// CreateInboundServer creates the inbound SMTP listener, or nil when disabled
func (f *MailFactory) CreateInboundServer(inbox mail.ThreadInbox) (*mail.InboundServer, error) {
	mailCfg, err := f.cfg.GetMail()
	if err != nil {
		return nil, err
	}
	if !mailCfg.InboundEnabled {
		return nil, nil
	}

	return mail.NewInboundServer(
		inbox,
		mail.NewSenderAllowlist(mailCfg.AllowedDomains, f.logger),
		mail.InboundConfig{
			ListenAddress:   mailCfg.InboundAddress,
			Domain:          mailCfg.InboundDomain,
			MaxMessageBytes: mailCfg.MaxMessageBytes,
		},
		f.logger,
	), nil
}
