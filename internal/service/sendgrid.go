package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridMessenger struct {
	apiKey   string
	from     string
	fromName string
}

// NewSendGridMessenger returns a Messenger backed by the SendGrid API.
func NewSendGridMessenger(apiKey, from, fromName string) Messenger {
	return &sendGridMessenger{
		apiKey:   apiKey,
		from:     from,
		fromName: fromName,
	}
}

func (s *sendGridMessenger) Send(ctx context.Context, to, subject, body string) error {
	sender := mail.NewEmail(s.fromName, s.from)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(sender, subject, recipient, body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email via sendgrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
