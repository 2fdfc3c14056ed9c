// Package mail delivers transactional e-mail such as password reset links.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"

	"pokevault/internal/platform/config"
	"pokevault/pkg/email"
)

const PasswordResetSubject = "Pokemon Explorer - Password Reset Request"

// Message is a plain-text e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends through an SMTP relay using PLAIN auth when credentials are set.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.Mail) *SMTPSender {
	s := &SMTPSender{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.send(s.addr, s.auth, s.from, []string{msg.To}, s.render(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogSender logs messages instead of sending them. Used when no SMTP host is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "mail not sent, no SMTP host configured",
		"to", email.Mask(msg.To),
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// NewSender picks SMTP when a host is configured and the log sender otherwise.
func NewSender(cfg config.Mail, logger *slog.Logger) Sender {
	if cfg.Host == "" {
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg)
}

// Mailer composes the application's messages.
type Mailer struct {
	sender      Sender
	frontendURL string
}

func NewMailer(sender Sender, frontendURL string) *Mailer {
	return &Mailer{sender: sender, frontendURL: strings.TrimRight(frontendURL, "/")}
}

// ResetURL is the frontend link carrying the raw token and address.
func (m *Mailer) ResetURL(to, token string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", to)
	return m.frontendURL + "/reset-password?" + q.Encode()
}

// SendPasswordReset mails the reset link. name may be empty.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	if name == "" {
		name = email.DisplayName(to)
	}
	body := fmt.Sprintf("Hello %s,\n\n"+
		"We received a request to reset the password for your account.\n"+
		"Open the link below to choose a new password:\n\n%s\n\n"+
		"If you did not request a password reset, no further action is required.\n",
		name, m.ResetURL(to, token))
	return m.sender.Send(ctx, Message{To: to, Subject: PasswordResetSubject, Body: body})
}
