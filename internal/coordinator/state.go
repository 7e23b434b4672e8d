package coordinator

import (
	"encoding/json"
	"time"
)

// State of the Coordinator's delivery tier.
type State int

const (
	StateInit State = iota
	StateConnecting
	StateChannelActive
	StatePolling
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConnecting:
		return "connecting"
	case StateChannelActive:
		return "channel_active"
	case StatePolling:
		return "polling"
	}
	return "unknown"
}

// Kind of a surfaced notification.
type Kind string

const (
	KindOrder                Kind = "order"
	KindReservation          Kind = "reservation"
	KindOrderCancelled       Kind = "orderCancelled"
	KindReservationCancelled Kind = "reservationCancelled"
)

// Cancellation reports whether k announces a state change rather than a new entity.
func (k Kind) Cancellation() bool {
	return k == KindOrderCancelled || k == KindReservationCancelled
}

// Notification is one surfaced event. Seq is unique per Coordinator.
type Notification struct {
	Seq       uint64          `json:"seq"`
	Kind      Kind            `json:"kind"`
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	ShownAt   time.Time       `json:"shownAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Item is an entity observed through a poll snapshot or a channel event.
type Item struct {
	ID   string
	Data json.RawMessage
}

// Event is a frame received over the realtime channel.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Stats counts what the Coordinator did so far.
type Stats struct {
	State         State
	Shown         int
	Duplicates    int
	Polls         int
	PollFailures  int
	ChannelEvents int
}

// SeenSet remembers the ids of one kind already observed.
type SeenSet struct {
	ids map[string]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{ids: map[string]struct{}{}}
}

// Add records id and reports whether it was unseen.
func (s *SeenSet) Add(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *SeenSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *SeenSet) Len() int {
	return len(s.ids)
}
