package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
)

// ThreadInbox is what the inbound server needs from the outreach service
type ThreadInbox interface {
	GetThread(ctx context.Context, threadID string) (*core.EmailThread, error)
	AppendInbound(ctx context.Context, threadID string, msg core.Message) error
}

// InboundConfig configures the inbound SMTP listener
type InboundConfig struct {
	ListenAddress   string
	Domain          string
	MaxMessageBytes int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ProcessTimeout  time.Duration
}

// InboundServer accepts influencer replies over SMTP and appends them to their thread
type InboundServer struct {
	inbox     ThreadInbox
	allowlist *SenderAllowlist
	cfg       InboundConfig
	logger    *zap.Logger
	server    *smtp.Server
}

// NewInboundServer creates a new inbound SMTP server
func NewInboundServer(inbox ThreadInbox, allowlist *SenderAllowlist, cfg InboundConfig, logger *zap.Logger) *InboundServer {
	if cfg.Domain == "" {
		cfg.Domain = "localhost"
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 10 * 1024 * 1024
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 10 * time.Second
	}

	s := &InboundServer{
		inbox:     inbox,
		allowlist: allowlist,
		cfg:       cfg,
		logger:    logger,
	}

	s.server = smtp.NewServer(&smtpBackend{inbound: s})
	s.server.Addr = cfg.ListenAddress
	s.server.Domain = cfg.Domain
	s.server.ReadTimeout = cfg.ReadTimeout
	s.server.WriteTimeout = cfg.WriteTimeout
	s.server.MaxMessageBytes = cfg.MaxMessageBytes
	s.server.MaxRecipients = 50
	return s
}

// Start listens on the configured address in the background
func (s *InboundServer) Start() error {
	l, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	go func() {
		if err := s.Serve(l); err != nil {
			s.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Serve accepts connections on l until Stop is called
func (s *InboundServer) Serve(l net.Listener) error {
	s.logger.Info("Inbound SMTP server starting", zap.String("address", l.Addr().String()))
	if err := s.server.Serve(l); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the inbound server
func (s *InboundServer) Stop() error {
	return s.server.Close()
}

// Deliver parses a raw message and appends it to its thread
func (s *InboundServer) Deliver(ctx context.Context, envelopeFrom string, rcpts []string, raw []byte) error {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return &smtp.SMTPError{Code: 554, EnhancedCode: smtp.EnhancedCode{5, 6, 0}, Message: "Malformed message"}
	}

	threadID, ok := resolveThreadID(msg.Header)
	if !ok {
		s.logger.Warn("Inbound message does not reference a thread",
			zap.String("from", envelopeFrom),
			zap.String("message_id", msg.Header.Get("Message-Id")))
		return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 1}, Message: "No thread reference"}
	}

	thread, err := s.inbox.GetThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 1}, Message: "Unknown thread"}
		}
		s.logger.Error("Failed to load thread", zap.String("thread_id", threadID), zap.Error(err))
		return &smtp.SMTPError{Code: 451, EnhancedCode: smtp.EnhancedCode{4, 3, 0}, Message: "Temporary failure"}
	}

	sender := envelopeFrom
	if addr, err := mail.ParseAddress(decodeHeader(msg.Header.Get("From"))); err == nil {
		sender = addr.Address
	}
	if !s.allowlist.Allowed(sender, thread.InfluencerEmail) {
		s.logger.Warn("Rejected inbound message from unexpected sender",
			zap.String("thread_id", threadID),
			zap.String("sender", sender))
		return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 7, 1}, Message: "Sender not allowed for thread"}
	}

	body, err := extractText(msg.Header, msg.Body)
	if err != nil {
		s.logger.Error("Failed to extract text content", zap.Error(err))
		return &smtp.SMTPError{Code: 554, EnhancedCode: smtp.EnhancedCode{5, 6, 0}, Message: "Unreadable message body"}
	}

	to := ""
	if len(rcpts) > 0 {
		to = rcpts[0]
	}
	received := core.Message{
		ID:      strings.TrimSpace(msg.Header.Get("Message-Id")),
		From:    sender,
		To:      to,
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    body,
	}
	if date, err := msg.Header.Date(); err == nil {
		received.Timestamp = date.UTC()
	}

	if err := s.inbox.AppendInbound(ctx, threadID, received); err != nil {
		s.logger.Error("Failed to append inbound message",
			zap.String("thread_id", threadID),
			zap.Error(err))
		return &smtp.SMTPError{Code: 451, EnhancedCode: smtp.EnhancedCode{4, 3, 0}, Message: "Temporary failure"}
	}

	s.logger.Info("Inbound reply appended",
		zap.String("thread_id", threadID),
		zap.String("from", sender),
		zap.Int("body_size", len(body)))
	return nil
}

// resolveThreadID looks at X-Thread-ID, then In-Reply-To, then References from newest to oldest
func resolveThreadID(h mail.Header) (string, bool) {
	if id := strings.TrimSpace(h.Get(ThreadIDHeader)); id != "" {
		return id, true
	}
	if id, ok := core.ThreadIDFromMessageID(h.Get("In-Reply-To")); ok {
		return id, true
	}
	refs := strings.Fields(h.Get("References"))
	for i := len(refs) - 1; i >= 0; i-- {
		if id, ok := core.ThreadIDFromMessageID(refs[i]); ok {
			return id, true
		}
	}
	return "", false
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	inbound *InboundServer
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{inbound: b.inbound}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	inbound    *InboundServer
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.inbound.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.inbound.cfg.ProcessTimeout)
	defer cancel()
	return s.inbound.Deliver(ctx, s.sender, s.recipients, raw)
}

func (s *smtpSession) Logout() error {
	return nil
}
