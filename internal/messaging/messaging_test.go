package messaging

import (
	"Saffron/pkg/log"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestSMSGatewaySendMessage(t *testing.T) {
	var got smsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"msg-1","status":"queued"}`))
	}))
	defer server.Close()

	gateway := NewSMSGateway(server.URL, "secret", "SAFFRN")
	result, err := gateway.SendMessage(ctx, "+919800000000", "Your order is confirmed")
	require.NoError(t, err)
	assert.Equal(t, Result{Provider: "sms", ID: "msg-1", Status: "queued"}, result)
	assert.Equal(t, smsRequest{To: "+919800000000", From: "SAFFRN", Message: "Your order is confirmed"}, got)
}

func TestSMSGatewayFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewSMSGateway(server.URL, "", "SAFFRN").SendMessage(ctx, "+919800000000", "hi")
	assert.ErrorContains(t, err, "429")

	var unset *SMSGateway
	_, err = unset.SendMessage(ctx, "+919800000000", "hi")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestEmailMessenger(t *testing.T) {
	assert.Nil(t, NewEmailMessenger("", "", ""))

	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer server.Close()

	messenger := NewEmailMessenger("re_test", "orders@saffron.local", "Your Saffron order")
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	messenger.client.BaseURL = base

	result, err := messenger.SendMessage(ctx, "asha@example.com", "Order placed")
	require.NoError(t, err)
	assert.Equal(t, "em_1", result.ID)
	assert.Equal(t, "Your Saffron order", got["subject"])
	assert.Equal(t, "Order placed", got["text"])
}

type fakeMessenger struct {
	mu    sync.Mutex
	sent  []string
	delay time.Duration
	err   error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, to, body string) (Result, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+":"+body)
	return Result{Provider: "fake"}, f.err
}

func (f *fakeMessenger) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func TestDispatcherNotifyIsAsync(t *testing.T) {
	sms := &fakeMessenger{delay: 100 * time.Millisecond}
	email := &fakeMessenger{}
	d := NewDispatcher(sms, email, time.Second, log.Nop())

	start := time.Now()
	d.Notify(ctx, Recipient{Phone: "+919800000000", Email: "asha@example.com"}, "hello")
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	require.NoError(t, d.Wait(ctx))
	assert.Equal(t, []string{"+919800000000:hello"}, sms.Sent())
	assert.Equal(t, []string{"asha@example.com:hello"}, email.Sent())
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	sms := &fakeMessenger{err: errors.New("gateway down")}
	d := NewDispatcher(sms, nil, time.Second, log.Nop())
	d.Notify(ctx, Recipient{Phone: "+919800000000"}, "hello")
	// Missing addresses are skipped
	d.Notify(ctx, Recipient{}, "nobody")
	require.NoError(t, d.Wait(ctx))
	assert.Len(t, sms.Sent(), 1)

	var unset *Dispatcher
	assert.NotPanics(t, func() { unset.Notify(ctx, Recipient{Phone: "1"}, "x") })
}

func TestDispatcherTimeout(t *testing.T) {
	slow := &fakeMessenger{delay: time.Second}
	d := NewDispatcher(slow, nil, 20*time.Millisecond, log.Nop())
	d.Notify(ctx, Recipient{Phone: "+919800000000"}, "hello")
	require.NoError(t, d.Wait(ctx))
	assert.Empty(t, slow.Sent())
}

func TestDispatcherWaitHonoursContext(t *testing.T) {
	slow := &fakeMessenger{delay: time.Second}
	d := NewDispatcher(slow, nil, 5*time.Second, log.Nop())
	d.Notify(ctx, Recipient{Phone: "+919800000000"}, "hello")
	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(waitCtx), context.DeadlineExceeded)
}

func TestLogMessenger(t *testing.T) {
	result, err := LogMessenger{Channel: "sms", Logger: log.Nop()}.SendMessage(ctx, "+919800000000", "hi")
	require.NoError(t, err)
	assert.Equal(t, "log", result.Provider)
	assert.Equal(t, "****0000", mask("+919800000000"))
	assert.Equal(t, "****", mask("12"))
}
