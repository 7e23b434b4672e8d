package realtime

import (
	"Saffron/internal/entity"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Websocket settings
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// conn is one realtime channel connection. writePump is the only writer of ws.
type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	groups map[string]struct{}
}

func newConn(id string, ws *websocket.Conn) *conn {
	return &conn{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		groups: make(map[string]struct{}),
	}
}

// enqueue queues an encoded frame without blocking, reporting whether it was queued.
func (c *conn) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// reply encodes and queues a frame addressed to this connection only.
func (c *conn) reply(event string, data any) bool {
	frame, err := encodeFrame(event, data)
	if err != nil {
		return false
	}
	return c.enqueue(frame)
}

func (c *conn) close() {
	c.once.Do(func() { close(c.done) })
}

// inbound is a frame received from a client, data is decoded per event.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	return json.Marshal(entity.ChannelMessage{Event: event, Data: data})
}
