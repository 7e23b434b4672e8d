package coordinator

import (
	"Saffron/pkg/log"
	"context"
	"encoding/json"
	"sync"
	"time"
)

// AudioCue plays the one-shot alert sound of a notification.
type AudioCue interface {
	Play(ctx context.Context) error
}

// Notifier owns the single display slot and its auto-hide timer.
// Every shown notification is also queued to each subscriber, so a preempted
// display never loses a notification for consumers.
type Notifier struct {
	clock  Clock
	ttl    time.Duration
	audio  AudioCue
	logger log.Logger

	mu      sync.Mutex
	seq     uint64
	current *Notification
	hide    Timer
	subs    map[*subscriber]struct{}
	closed  bool
}

func NewNotifier(clock Clock, ttl time.Duration, audio AudioCue, logger log.Logger) *Notifier {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Notifier{clock: clock, ttl: ttl, audio: audio, logger: logger, subs: map[*subscriber]struct{}{}}
}

// Show preempts the displayed notification, arms its auto-hide and plays the cue.
func (n *Notifier) Show(ctx context.Context, kind Kind, id string, data json.RawMessage) Notification {
	n.mu.Lock()
	if n.hide != nil {
		n.hide.Stop()
		n.hide = nil
	}
	n.seq++
	now := n.clock.Now()
	note := Notification{Seq: n.seq, Kind: kind, ID: id, Data: data, ShownAt: now, ExpiresAt: now.Add(n.ttl)}
	if n.closed {
		n.mu.Unlock()
		return note
	}
	n.current = &note
	seq := note.Seq
	n.hide = n.clock.AfterFunc(n.ttl, func() { n.expire(seq) })
	subs := make([]*subscriber, 0, len(n.subs))
	for s := range n.subs {
		subs = append(subs, s)
	}
	n.mu.Unlock()

	for _, s := range subs {
		s.push(note)
	}
	n.play(ctx, note)
	return note
}

// Current returns the displayed notification, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}

// Subscribe returns every notification shown from now on, in order.
// The channel is closed by the returned cancel func or once the Notifier is closed and drained.
func (n *Notifier) Subscribe() (<-chan Notification, func()) {
	s := newSubscriber()
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		s.finish()
	} else {
		n.subs[s] = struct{}{}
		n.mu.Unlock()
	}
	go s.pump()
	return s.out, func() {
		n.mu.Lock()
		delete(n.subs, s)
		n.mu.Unlock()
		s.cancel()
	}
}

// Close stops the auto-hide timer and finishes every subscription. Safe to call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	if n.hide != nil {
		n.hide.Stop()
		n.hide = nil
	}
	for s := range n.subs {
		s.finish()
		delete(n.subs, s)
	}
}

func (n *Notifier) expire(seq uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	// preempted notifications own no timer anymore
	if n.current != nil && n.current.Seq == seq {
		n.current = nil
		n.hide = nil
	}
}

func (n *Notifier) play(ctx context.Context, note Notification) {
	if n.audio == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.logger.WithCtx(ctx).Warn().Interface("panic", r).Uint64("seq", note.Seq).Msg("Audio cue panicked")
			}
		}()
		if err := n.audio.Play(ctx); err != nil {
			n.logger.WithCtx(ctx).Debug().Err(err).Uint64("seq", note.Seq).Msg("Audio cue failed")
		}
	}()
}

// subscriber queues notifications without bound so Show never blocks on a slow reader.
type subscriber struct {
	mu       sync.Mutex
	queue    []Notification
	closing  bool
	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	out      chan Notification
}

func newSubscriber() *subscriber {
	return &subscriber{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		out:  make(chan Notification),
	}
}

func (s *subscriber) push(note Notification) {
	s.mu.Lock()
	s.queue = append(s.queue, note)
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// finish lets the pump drain what is queued, then close out.
func (s *subscriber) finish() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	s.signal()
}

// cancel drops whatever is queued.
func (s *subscriber) cancel() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *subscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		select {
		case s.out <- next:
		case <-s.stop:
			return
		}
	}
}
