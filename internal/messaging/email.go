package messaging

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// EmailMessenger sends plain text emails through Resend.
type EmailMessenger struct {
	client  *resend.Client
	from    string
	subject string
}

// NewEmailMessenger returns nil without an api key.
func NewEmailMessenger(apiKey, from, subject string) *EmailMessenger {
	if apiKey == "" {
		return nil
	}
	if from == "" {
		from = "noreply@saffron.local"
	}
	return &EmailMessenger{client: resend.NewClient(apiKey), from: from, subject: subject}
}

func (e *EmailMessenger) SendMessage(ctx context.Context, to, body string) (Result, error) {
	if e == nil || e.client == nil {
		return Result{}, ErrNotConfigured
	}
	params := &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{to},
		Subject: e.subject,
		Text:    body,
	}
	sent, err := e.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("email: send: %w", err)
	}
	return Result{Provider: "resend", ID: sent.Id, Status: "sent"}, nil
}
