package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer defines the interface for outbound notification email. Callers
// treat delivery as fire-and-forget; no business invariant waits on it.
type Mailer interface {
	// SendPasswordReset mails the account's reset link built from the user
	// id and the one-shot token.
	SendPasswordReset(ctx context.Context, to, userID, token string) error
}

// SMTPConfig holds connection settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// BaseURL is the public address of the frontend handling the reset form.
	BaseURL string
}

// smtpMailer implements Mailer over plain SMTP.
type smtpMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates a new SMTP-backed mailer.
func NewSMTPMailer(cfg SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

// SendPasswordReset mails the reset link. The link is valid for one hour.
func (m *smtpMailer) SendPasswordReset(ctx context.Context, to, userID, token string) error {
	resetURL := fmt.Sprintf("%s/users/%s/reset-password/%s", strings.TrimRight(m.cfg.BaseURL, "/"), userID, token)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	msg.WriteString("Subject: Password reset requested\r\n")
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString("<h1>You requested a password reset</h1>")
	fmt.Fprintf(&msg, `<p>Click <a href="%s" target="_blank">here</a> to continue.</p>`, resetURL)
	msg.WriteString("<p>This link is valid for 60 minutes.</p>")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String()))
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
