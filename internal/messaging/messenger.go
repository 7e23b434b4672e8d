// Outbound customer messaging (SMS and email) used for order and reservation updates.

package messaging

import (
	"Saffron/pkg/log"
	"context"
	"errors"
)

// ErrNotConfigured is returned by a Messenger missing its credentials.
var ErrNotConfigured = errors.New("messaging: provider not configured")

// Result describes a message accepted by a provider.
type Result struct {
	Provider string `json:"provider"`
	ID       string `json:"id,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Messenger delivers a single text message to a recipient address.
type Messenger interface {
	SendMessage(ctx context.Context, to, body string) (Result, error)
}

// LogMessenger only logs messages, used when no provider is configured.
type LogMessenger struct {
	Channel string
	Logger  log.Logger
}

func (m LogMessenger) SendMessage(ctx context.Context, to, body string) (Result, error) {
	m.Logger.WithCtx(ctx).Info().Str("channel", m.Channel).Str("to", mask(to)).Str("body", body).Msg("Message not sent, no provider configured")
	return Result{Provider: "log", Status: "logged"}, nil
}

// mask hides all but the last four characters of an address.
func mask(to string) string {
	if len(to) <= 4 {
		return "****"
	}
	return "****" + to[len(to)-4:]
}
