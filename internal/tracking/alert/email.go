package alert

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/vaama/inventorypacer/internal/core/config"
	"github.com/vaama/inventorypacer/internal/core/domain"
)

// EmailChannel delivers alerts over SMTP as HTML mail.
type EmailChannel struct {
	cfg config.EmailConfig
}

// NewEmailChannel creates an SMTP alert channel.
func NewEmailChannel(cfg config.EmailConfig) *EmailChannel {
	return &EmailChannel{cfg: cfg}
}

func (e *EmailChannel) Name() string { return "email" }

// Send delivers the alert body as a text/html message. The context is not
// honored mid-send; net/smtp has no context support.
func (e *EmailChannel) Send(_ context.Context, alert *domain.Alert) error {
	recipients := append([]string{}, e.cfg.To...)
	recipients = append(recipients, e.cfg.CC...)
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	msg := e.buildMessage(alert)
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, e.cfg.SMTPPort)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, e.cfg.From, recipients, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func (e *EmailChannel) buildMessage(alert *domain.Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	if len(e.cfg.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(e.cfg.CC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", alert.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(alert.Body)
	return []byte(b.String())
}
