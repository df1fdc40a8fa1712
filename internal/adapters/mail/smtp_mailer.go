package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"os"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/outreach-agent/internal/core"
	"go.uber.org/zap"
)

// ThreadIDHeader carries the thread id on outbound replies
const ThreadIDHeader = "X-Thread-ID"

// SMTPMailer delivers replies through an SMTP relay
type SMTPMailer struct {
	addr     string
	username string
	password string
	heloName string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewSMTPMailer creates a new SMTP mailer. Credentials are optional; when a
// username is set the relay is authenticated with SASL PLAIN.
func NewSMTPMailer(addr, username, password string, timeout time.Duration, logger *zap.Logger) *SMTPMailer {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPMailer{
		addr:     addr,
		username: username,
		password: password,
		heloName: hostname,
		timeout:  timeout,
		logger:   logger,
	}
}

// Send delivers one reply
func (m *SMTPMailer) Send(ctx context.Context, email *core.OutboundEmail) error {
	data, err := composeMessage(email)
	if err != nil {
		return err
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP relay: %w", err)
	}

	deadline := time.Now().Add(m.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(m.heloName); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if m.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", m.username, m.password)); err != nil {
			return fmt.Errorf("AUTH failed: %w", err)
		}
	}

	if err := c.Mail(email.From, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := c.Rcpt(email.To, nil); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		m.logger.Warn("QUIT command failed", zap.Error(err))
	}

	m.logger.Info("Reply delivered",
		zap.String("relay", m.addr),
		zap.String("message_id", email.MessageID),
		zap.String("to", email.To))
	return nil
}

// composeMessage renders an RFC 5322 message with a quoted-printable UTF-8 body
func composeMessage(email *core.OutboundEmail) ([]byte, error) {
	sentAt := email.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", email.From)
	fmt.Fprintf(&buf, "To: %s\r\n", email.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", email.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", sentAt.Format(time.RFC1123Z))
	if email.MessageID != "" {
		fmt.Fprintf(&buf, "Message-ID: %s\r\n", email.MessageID)
	}
	if email.ThreadID != "" {
		fmt.Fprintf(&buf, "%s: %s\r\n", ThreadIDHeader, email.ThreadID)
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(email.Body)); err != nil {
		return nil, fmt.Errorf("failed to encode email body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode email body: %w", err)
	}
	buf.WriteString("\r\n")
	return buf.Bytes(), nil
}
