// Realtime channel server pushing admin notifications over websockets.

package realtime

import (
	"Saffron/internal/auth"
	"Saffron/internal/entity"
	"Saffron/pkg/log"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server keeps every open channel connection and the broadcast groups they joined.
type Server struct {
	logger   log.Logger
	verifier auth.Verifier
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	conns  map[string]*conn
	groups map[string]map[string]*conn
	closed bool
	wg     sync.WaitGroup
}

// NewServer returns a Server authenticating connections with verifier.
func NewServer(verifier auth.Verifier, logger log.Logger) *Server {
	return &Server{
		logger:   logger,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser origin is enforced by CORS on the REST surface, admin access by the token
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:  make(map[string]*conn),
		groups: make(map[string]map[string]*conn),
	}
}

// ServeHTTP upgrades the request and runs the connection until it ends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		http.Error(w, "realtime server shutting down", http.StatusServiceUnavailable)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		s.logger.WithCtx(r.Context()).Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	c := newConn(uuid.NewString(), ws)
	if !s.register(c) {
		ws.Close()
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.writePump(c)
	}()

	c.reply(entity.ChannelConnect, entity.ConnectPayload{ID: c.id})
	if token := r.URL.Query().Get("token"); token != "" {
		s.authenticate(r.Context(), c, token)
	}
	s.readPump(r.Context(), c)
}

func (s *Server) register(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c.id] = c
	s.wg.Add(1)
	s.logger.Info().Str("conn_id", c.id).Int("connections", len(s.conns)).Msg("Realtime client connected")
	return true
}

// unregister removes c from the registry and every group it joined.
func (s *Server) unregister(c *conn) {
	s.mu.Lock()
	if _, ok := s.conns[c.id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.conns, c.id)
	c.mu.Lock()
	for name := range c.groups {
		s.leaveLocked(name, c)
	}
	c.groups = map[string]struct{}{}
	c.mu.Unlock()
	total := len(s.conns)
	s.mu.Unlock()

	c.close()
	s.wg.Done()
	s.logger.Info().Str("conn_id", c.id).Int("connections", total).Msg("Realtime client disconnected")
}

func (s *Server) join(name string, c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[c.id]; !ok {
		return
	}
	members, ok := s.groups[name]
	if !ok {
		members = make(map[string]*conn)
		s.groups[name] = members
	}
	members[c.id] = c
	c.mu.Lock()
	c.groups[name] = struct{}{}
	c.mu.Unlock()
}

func (s *Server) leave(name string, c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.mu.Lock()
	delete(c.groups, name)
	c.mu.Unlock()
	s.leaveLocked(name, c)
}

// leaveLocked requires s.mu held for writing.
func (s *Server) leaveLocked(name string, c *conn) {
	if members, ok := s.groups[name]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(s.groups, name)
		}
	}
}

// authenticate verifies token and moves c in or out of the admin group accordingly.
func (s *Server) authenticate(ctx context.Context, c *conn, token string) {
	claims, err := s.verifier.VerifyPrivilegedToken(ctx, token)
	if err != nil {
		s.leave(entity.AdminGroup, c)
		s.logger.Debug().Err(err).Str("conn_id", c.id).Msg("Realtime authentication rejected")
		c.reply(entity.ChannelAuthenticated, entity.AuthenticatedPayload{Success: false})
		return
	}
	s.join(entity.AdminGroup, c)
	s.logger.Info().Str("conn_id", c.id).Str("username", claims.Username).Msg("Realtime client joined admin group")
	c.reply(entity.ChannelAuthenticated, entity.AuthenticatedPayload{Success: true})
}

// readPump reads client frames until the connection fails or the server closes it.
func (s *Server) readPump(ctx context.Context, c *conn) {
	defer s.unregister(c)

	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to set read deadline")
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, body, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Warn().Err(err).Str("conn_id", c.id).Msg("Realtime read error")
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(body, &msg); err != nil {
			c.reply(entity.ChannelError, entity.ErrorPayload{Message: "malformed frame"})
			continue
		}
		switch msg.Event {
		case entity.ChannelAuthenticate:
			var payload entity.AuthenticatePayload
			if len(msg.Data) > 0 {
				if err := json.Unmarshal(msg.Data, &payload); err != nil {
					c.reply(entity.ChannelError, entity.ErrorPayload{Message: "malformed authenticate payload"})
					continue
				}
			}
			s.authenticate(ctx, c, payload.Token)
		default:
			c.reply(entity.ChannelError, entity.ErrorPayload{Message: "unknown event: " + msg.Event})
		}
	}
}

// writePump sends queued frames and keeps the connection alive with pings.
func (s *Server) writePump(c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()
	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-c.send:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Warn().Err(err).Msg("failed to set write deadline")
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.logger.Debug().Err(err).Str("conn_id", c.id).Msg("write message failed")
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Warn().Err(err).Msg("failed to set ping write deadline")
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug().Err(err).Str("conn_id", c.id).Msg("ping failed")
				c.close()
				return
			}
		}
	}
}

// Emit sends event to every member of group without blocking, returning how many it was queued for.
func (s *Server) Emit(group, event string, data any) int {
	frame, err := encodeFrame(event, data)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("Couldn't serialize realtime event")
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	queued := 0
	for _, c := range s.groups[group] {
		if c.enqueue(frame) {
			queued++
		} else {
			s.logger.Warn().Str("conn_id", c.id).Str("event", event).Msg("Realtime send buffer full, event dropped")
		}
	}
	if queued == 0 {
		s.logger.Debug().Str("group", group).Str("event", event).Msg("No realtime subscribers, event not delivered")
	}
	return queued
}

func (s *Server) EmitNewOrder(o entity.Order) int {
	return s.Emit(entity.AdminGroup, entity.ChannelOrderCreated, entity.SummarizeOrder(o))
}

func (s *Server) EmitNewReservation(r entity.Reservation) int {
	return s.Emit(entity.AdminGroup, entity.ChannelReservationCreated, entity.SummarizeReservation(r))
}

func (s *Server) EmitOrderCancelled(o entity.Order) int {
	return s.Emit(entity.AdminGroup, entity.ChannelOrderCancelled, entity.SummarizeOrderCancellation(o))
}

func (s *Server) EmitReservationCancelled(r entity.Reservation) int {
	return s.Emit(entity.AdminGroup, entity.ChannelReservationCancelled, entity.SummarizeReservationCancellation(r))
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

// GroupSize returns the number of connections in group name.
func (s *Server) GroupSize(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups[name])
}

// Close disconnects every client and waits for their pumps to exit.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
	s.wg.Wait()
	s.logger.Info().Int("connections", len(conns)).Msg("Realtime server closed")
	return nil
}
