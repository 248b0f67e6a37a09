// Package notification delivers alert messages to external channels.
package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"FPSpectra/internal/config"
	"FPSpectra/internal/model"
)

// EmailNotifier implements the Notifier interface for sending emails.
type EmailNotifier struct {
	cfg  config.SMTPConfig
	auth smtp.Auth
}

// NewEmailNotifier creates a new EmailNotifier.
func NewEmailNotifier(cfg config.SMTPConfig) model.Notifier {
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	return &EmailNotifier{cfg: cfg, auth: auth}
}

// Send delivers an HTML email to the configured recipients.
func (n *EmailNotifier) Send(subject, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	recipients := strings.Split(n.cfg.To, ",")

	msg := []byte("To: " + n.cfg.To + "\r\n" +
		"From: " + n.cfg.From + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n" +
		"\r\n" +
		body)

	if err := smtp.SendMail(addr, n.auth, n.cfg.From, recipients, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
