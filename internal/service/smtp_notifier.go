package service

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPEmailNotifier delivers verification mail through a plain SMTP
// relay. Dialing happens per message; verification volume does not
// justify a pooled connection.
type SMTPEmailNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPEmailNotifier(cfg SMTPConfig) *SMTPEmailNotifier {
	return &SMTPEmailNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (n *SMTPEmailNotifier) SendEmailVerification(ctx context.Context, notification VerificationNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", notification.Email)
	m.SetHeader("Subject", "Verify your email address")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hello %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n\nIf you did not create this account, ignore this message.\n",
		notification.Nickname, notification.VerificationURL,
	))
	return n.dialer.DialAndSend(m)
}
