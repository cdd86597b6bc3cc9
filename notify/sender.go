/*
sender.go - Outbound email transports

PURPOSE:

	Sender is the seam between rendering an email and delivering it. The
	sink renders a MIME message and hands it to whichever Sender the
	process was configured with:

	  SMTPSender     delivers synchronously over net/smtp
	  LoggingSender  logs the message and drops it (no SMTP host configured)
	  QueueSender    enqueues an asynq task; a worker delivers later (queue.go)

SEE ALSO:
  - sink.go: renders templates and calls Send
  - queue.go: asynq transport and delivery worker
*/
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"time"
)

// Sender delivers a fully built RFC 5322 message.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// SMTPConfig holds the relay settings. An empty Host selects LoggingSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewSender picks the transport for cfg.
func NewSender(cfg SMTPConfig, logger *slog.Logger) Sender {
	if cfg.Host == "" {
		logger.Warn("SMTP host not configured, emails will only be logged")
		return &LoggingSender{Logger: logger}
	}
	return &SMTPSender{cfg: cfg}
}

// =============================================================================
// SMTP
// =============================================================================

type SMTPSender struct {
	cfg SMTPConfig
	// send is swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, raw []byte) error {
	if len(to) == 0 {
		return fmt.Errorf("smtp send %q: no recipients", subject)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	send := s.send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(s.cfg.addr(), auth, s.cfg.From, to, raw); err != nil {
		return fmt.Errorf("smtp send %q: %w", subject, err)
	}
	return nil
}

// =============================================================================
// LOGGING
// =============================================================================

type LoggingSender struct {
	Logger *slog.Logger
}

func (s *LoggingSender) Send(_ context.Context, to []string, subject string, raw []byte) error {
	s.Logger.Info("email (not delivered)",
		"to", strings.Join(to, ","),
		"subject", subject,
		"bytes", len(raw),
	)
	return nil
}

// =============================================================================
// MESSAGE
// =============================================================================

// BuildMessage assembles an HTML message with the headers SMTP relays expect.
func BuildMessage(from string, to []string, subject, html string, at time.Time) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "Date: %s\r\n", at.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return b.Bytes()
}
