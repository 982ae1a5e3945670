// Package smtp delivers outbound mail over SMTP, or logs it when no server
// is configured.
package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// Config holds SMTP server settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain-text mail through an SMTP relay.
type Mailer struct {
	cfg  Config
	send SendFunc
	now  func() time.Time
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSendFunc replaces smtp.SendMail, mainly for tests.
func WithSendFunc(fn SendFunc) Option {
	return func(m *Mailer) { m.send = fn }
}

// New creates an SMTP mailer.
func New(cfg Config, opts ...Option) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	m := &Mailer{cfg: cfg, send: smtp.SendMail, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ domain.Mailer = (*Mailer)(nil)

// Send delivers one message. smtp.SendMail does not take a context, so only
// an already cancelled ctx is honoured.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("invalid header value for mail to %q", to)
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{to}, m.message(to, subject, body)); err != nil {
		return fmt.Errorf("%w: sending mail to %s: %w", domain.ErrExternalUnavailable, to, err)
	}
	return nil
}

func (m *Mailer) message(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.cfg.From + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + m.now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogMailer writes mail to the logger instead of sending it. It is used when
// no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a logging mailer. A nil logger uses slog.Default.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

var _ domain.Mailer = (*LogMailer)(nil)

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.InfoContext(ctx, "mail not sent: no smtp host configured",
		"to", to,
		"subject", subject,
		"body_bytes", len(body),
	)
	return nil
}
