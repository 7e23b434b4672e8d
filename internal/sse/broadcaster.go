// Server Side Events (SSE) broadcaster fanning admin notifications out to every open stream.

package sse

import (
	"Saffron/pkg/log"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultHeartbeat is the interval between keep-alive comments on an idle stream.
	DefaultHeartbeat = 20 * time.Second
	// Buffered frames per client before further events are dropped for it.
	clientBuffer = 32
	// Reconnect delay advertised to EventSource clients, in milliseconds.
	retryMillis = 10000
)

// Stream is the writable end of a single SSE response.
type Stream interface {
	Write(p []byte) (int, error)
	Flush()
}

type client struct {
	id      uint64
	stream  Stream
	send    chan []byte
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Broadcaster keeps the set of open SSE streams. Every stream is written by its own pump
// goroutine so a slow or broken client never blocks a broadcast or another client.
type Broadcaster struct {
	logger    log.Logger
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[uint64]*client
	nextID  uint64
	closed  chan struct{}
	isDone  bool
}

// NewBroadcaster returns an empty Broadcaster, heartbeat <= 0 uses DefaultHeartbeat.
func NewBroadcaster(logger log.Logger, heartbeat time.Duration) *Broadcaster {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Broadcaster{
		logger:    logger,
		heartbeat: heartbeat,
		clients:   make(map[uint64]*client),
		closed:    make(chan struct{}),
	}
}

// AddClient registers stream and starts its pump. The returned unregister stops the
// heartbeat, removes the client and waits for the pump to exit. It may be called more than once.
func (b *Broadcaster) AddClient(stream Stream) (unregister func()) {
	b.mu.Lock()
	if b.isDone {
		b.mu.Unlock()
		return func() {}
	}
	b.nextID++
	c := &client{
		id:      b.nextID,
		stream:  stream,
		send:    make(chan []byte, clientBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	b.clients[c.id] = c
	total := len(b.clients)
	b.mu.Unlock()

	b.logger.Info().Uint64("client_id", c.id).Int("total_clients", total).Msg("SSE client connected")
	go b.pump(c)
	return func() {
		b.remove(c)
		<-c.stopped
	}
}

// remove drops c from the registry and signals its pump, only the first call has an effect.
func (b *Broadcaster) remove(c *client) {
	c.once.Do(func() {
		b.mu.Lock()
		delete(b.clients, c.id)
		total := len(b.clients)
		b.mu.Unlock()
		close(c.done)
		b.logger.Info().Uint64("client_id", c.id).Int("total_clients", total).Msg("SSE client disconnected")
	})
}

func (b *Broadcaster) pump(c *client) {
	defer close(c.stopped)
	if err := b.write(c, []byte(fmt.Sprintf("retry: %d\n\n: connected\n\n", retryMillis))); err != nil {
		b.remove(c)
		return
	}
	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := b.write(c, frame); err != nil {
				b.remove(c)
				return
			}
		case <-ticker.C:
			if err := b.write(c, []byte(": heartbeat\n\n")); err != nil {
				b.remove(c)
				return
			}
		}
	}
}

func (b *Broadcaster) write(c *client, frame []byte) (err error) {
	defer func() {
		// A stream whose request already finished may panic on write
		if r := recover(); r != nil {
			err = fmt.Errorf("sse write panicked: %v", r)
		}
		if err != nil {
			b.logger.Warn().Err(err).Uint64("client_id", c.id).Msg("SSE write failed, dropping client")
		}
	}()
	if _, err = c.stream.Write(frame); err != nil {
		return err
	}
	c.stream.Flush()
	return nil
}

// BroadcastEvent serializes data once and queues the frame on every client without blocking.
// It returns the number of clients the event was queued for.
func (b *Broadcaster) BroadcastEvent(name string, data any) int {
	payload, err := json.Marshal(data)
	if err != nil {
		b.logger.Error().Err(err).Str("event", name).Msg("Couldn't serialize SSE event")
		return 0
	}
	frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", name, payload))

	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.clients) == 0 {
		b.logger.Debug().Str("event", name).Msg("No SSE subscribers, event not delivered")
		return 0
	}
	queued := 0
	for _, c := range b.clients {
		select {
		case c.send <- frame:
			queued++
		default:
			b.logger.Warn().Uint64("client_id", c.id).Str("event", name).Msg("SSE client buffer full, event dropped")
		}
	}
	b.logger.Debug().Str("event", name).Int("clients", queued).Msg("Broadcasted SSE event")
	return queued
}

// ClientCount returns the number of registered clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Done is closed once the Broadcaster is shut down.
func (b *Broadcaster) Done() <-chan struct{} {
	return b.closed
}

// Close unregisters every client and rejects new ones.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	if b.isDone {
		b.mu.Unlock()
		return nil
	}
	b.isDone = true
	close(b.closed)
	clients := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()

	for _, c := range clients {
		b.remove(c)
		<-c.stopped
	}
	b.logger.Info().Int("clients", len(clients)).Msg("SSE broadcaster closed")
	return nil
}
