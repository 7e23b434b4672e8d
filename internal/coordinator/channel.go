package coordinator

import (
	"Saffron/pkg/log"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Path of the realtime channel endpoint.
	RealtimePath = "/api/realtime"

	handshakeTimeout = 10 * time.Second
	maxFrameSize     = 1 << 16
	eventBuffer      = 64
)

// WSChannel connects to the realtime channel server over a websocket.
type WSChannel struct {
	url    string
	dialer *websocket.Dialer
	logger log.Logger
}

// NewWSChannel derives the websocket URL from the server's http(s) base URL.
func NewWSChannel(serverURL string, logger log.Logger) (*WSChannel, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("coordinator: unsupported server scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + RealtimePath
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = handshakeTimeout
	return &WSChannel{url: u.String(), dialer: &dialer, logger: logger}, nil
}

// Connect dials, sends the authenticate frame and waits for its acknowledgement.
func (w *WSChannel) Connect(ctx context.Context, token string) (<-chan Event, error) {
	ws, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(maxFrameSize)
	if err := w.authenticate(ctx, ws, token); err != nil {
		ws.Close()
		return nil, err
	}

	events := make(chan Event, eventBuffer)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			ws.Close()
		case <-stop:
		}
	}()
	go func() {
		defer close(events)
		defer close(stop)
		defer ws.Close()
		for {
			var event Event
			if err := ws.ReadJSON(&event); err != nil {
				if ctx.Err() == nil {
					w.logger.Debug().Err(err).Msg("Realtime channel read failed")
				}
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func (w *WSChannel) authenticate(ctx context.Context, ws *websocket.Conn, token string) error {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	ws.SetReadDeadline(deadline)
	ws.SetWriteDeadline(deadline)
	defer ws.SetReadDeadline(time.Time{})
	defer ws.SetWriteDeadline(time.Time{})

	frame := map[string]any{"event": "authenticate", "data": map[string]string{"token": token}}
	if err := ws.WriteJSON(frame); err != nil {
		return err
	}
	for {
		var event Event
		if err := ws.ReadJSON(&event); err != nil {
			return err
		}
		switch event.Name {
		case "authenticated":
			var ack struct {
				Success bool `json:"success"`
			}
			if err := json.Unmarshal(event.Data, &ack); err != nil {
				return err
			}
			if !ack.Success {
				return ErrAuthRejected
			}
			return nil
		case "error":
			w.logger.Debug().RawJSON("data", event.Data).Msg("Realtime channel error during handshake")
		}
	}
}
