package service

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type smtpMessenger struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMessenger returns a Messenger that delivers over plain SMTP.
func NewSMTPMessenger(host string, port int, username, password, from string) Messenger {
	return &smtpMessenger{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers one message. gomail has no context support, so the dial+send
// runs in a goroutine and the context deadline bounds the wait.
func (s *smtpMessenger) Send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email via smtp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send timed out: %w", ctx.Err())
	}
}
