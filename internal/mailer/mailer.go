// Package mailer delivers transactional email such as password reset links.
package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
	"github.com/sirupsen/logrus"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun sends through the Mailgun HTTP API.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender}
}

// Send sends an email via Mailgun. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	client := mg.NewMailgun(m.Domain, m.APIKey)
	msg := client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := client.Send(c, msg)
	return err
}

// LogMailer writes messages to the log instead of sending them. Used when
// MAIL_SEND_ENABLED is false.
type LogMailer struct {
	Logger *logrus.Logger
}

func (l LogMailer) Send(_ context.Context, to, subject, text, _ string) error {
	l.Logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info(text)
	return nil
}
