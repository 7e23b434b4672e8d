package sse

import (
	"Saffron/internal/auth"
	"Saffron/internal/test"
	"Saffron/pkg/log"
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVerifier accepts a single token.
type stubVerifier struct {
	token string
}

func (v stubVerifier) VerifyPrivilegedToken(ctx context.Context, token string) (*auth.Claims, error) {
	if token != v.token {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{Username: "admin", Role: "admin"}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Broadcaster) {
	t.Helper()
	logger := log.Nop()
	broadcaster := NewBroadcaster(logger, time.Hour)
	router := test.MockRouter()
	APIHandlers(router, broadcaster, auth.AuthMiddleware(logger, stubVerifier{token: "good"}), logger)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		broadcaster.Close()
		server.Close()
	})
	return server, broadcaster
}

func TestEventStreamRejectsMissingToken(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/api/admin/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/admin/events?token=bad")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEventStreamDeliversEvents(t *testing.T) {
	server, broadcaster := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/admin/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readUntil := func(want string) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.TrimRight(line, "\n") == want {
				return
			}
		}
		t.Fatalf("never read %q", want)
	}
	readUntil(": connected")
	require.Equal(t, 1, broadcaster.ClientCount())

	assert.Equal(t, 1, broadcaster.BroadcastEvent("new-order", map[string]string{"id": "o1"}))
	readUntil("event: new-order")
	readUntil(`data: {"id":"o1"}`)

	// Client leaving unregisters it
	cancel()
	assert.Eventually(t, func() bool { return broadcaster.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEventStreamEndsOnShutdown(t *testing.T) {
	server, broadcaster := newTestServer(t)
	resp, err := http.Get(server.URL + "/api/admin/events?token=good")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Eventually(t, func() bool { return broadcaster.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		// Body reaches EOF once the handler returns
		io.Copy(io.Discard, resp.Body)
		close(done)
	}()
	broadcaster.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after shutdown")
	}
}
