package messaging

import (
	"Saffron/pkg/log"
	"context"
	"sync"
	"time"
)

// Recipient addresses a customer, either field may be empty.
type Recipient struct {
	Phone string
	Email string
}

// Dispatcher sends customer notifications in the background so a slow provider
// never delays an HTTP response. Failures are logged and dropped.
type Dispatcher struct {
	sms     Messenger
	email   Messenger
	timeout time.Duration
	logger  log.Logger
	wg      sync.WaitGroup
}

// NewDispatcher falls back to logging for every nil messenger.
func NewDispatcher(sms, email Messenger, timeout time.Duration, logger log.Logger) *Dispatcher {
	if sms == nil {
		sms = LogMessenger{Channel: "sms", Logger: logger}
	}
	if email == nil {
		email = LogMessenger{Channel: "email", Logger: logger}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{sms: sms, email: email, timeout: timeout, logger: logger}
}

// Notify sends body to every address of to and returns immediately.
func (d *Dispatcher) Notify(ctx context.Context, to Recipient, body string) {
	if d == nil {
		return
	}
	if to.Phone != "" {
		d.send(ctx, "sms", d.sms, to.Phone, body)
	}
	if to.Email != "" {
		d.send(ctx, "email", d.email, to.Email, body)
	}
}

func (d *Dispatcher) send(ctx context.Context, channel string, messenger Messenger, address, body string) {
	// The request context ends with the response, keep only its logging fields
	logger := d.logger.WithCtx(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		result, err := messenger.SendMessage(sendCtx, address, body)
		if err != nil {
			logger.Warn().Err(err).Str("channel", channel).Msg("Customer notification failed")
			return
		}
		logger.Debug().Str("channel", channel).Str("provider", result.Provider).Str("id", result.ID).Msg("Customer notification sent")
	}()
}

// Wait blocks until every in-flight notification finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
