// Package coordinator reconciles realtime channel events and poll snapshots into
// deduplicated notifications for an admin client.
package coordinator

import (
	"Saffron/pkg/log"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrAuthRejected is returned by a Channel whose token was refused.
	ErrAuthRejected = errors.New("coordinator: channel authentication rejected")
	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("coordinator: already running")
	// ErrNoFetcher is returned by Run when polling is needed but no Fetcher was given.
	ErrNoFetcher = errors.New("coordinator: no fetcher configured")
)

// Routes on which the realtime channel is attempted by default.
var DefaultAdminRoutes = []string{"/admin", "/my-orders", "/reserve"}

const (
	DefaultPollInterval    = 6 * time.Second
	DefaultNotificationTTL = 7 * time.Second
)

// Channel dials the realtime channel and authenticates with token.
// The returned stream is closed on disconnect; a refused token yields ErrAuthRejected.
type Channel interface {
	Connect(ctx context.Context, token string) (<-chan Event, error)
}

// Fetcher returns the current collection of a creation kind.
type Fetcher interface {
	Fetch(ctx context.Context, kind Kind) ([]Item, error)
}

type Config struct {
	Token           string
	Route           string
	AdminRoutes     []string
	PollInterval    time.Duration
	NotificationTTL time.Duration
}

type Deps struct {
	Channel Channel
	Fetcher Fetcher
	Audio   AudioCue
	Clock   Clock
	Logger  log.Logger
}

// Channel event names mapped to notification kinds.
var channelKinds = map[string]Kind{
	"orderCreated":         KindOrder,
	"reservationCreated":   KindReservation,
	"orderCancelled":       KindOrderCancelled,
	"reservationCancelled": KindReservationCancelled,
}

// Kinds fetched by a poll cycle, in order.
var pollKinds = []Kind{KindOrder, KindReservation}

// Coordinator moves through Init, Connecting, ChannelActive and Polling.
// Its state is mutated only by the Run goroutine; the mutex serves readers.
type Coordinator struct {
	cfg      Config
	channel  Channel
	fetcher  Fetcher
	clock    Clock
	logger   log.Logger
	notifier *Notifier

	mu        sync.Mutex
	running   bool
	state     State
	gate      bool
	seen      map[Kind]*SeenSet
	baselined map[Kind]bool
	history   []State
	stats     Stats
}

func New(cfg Config, deps Deps) *Coordinator {
	if cfg.AdminRoutes == nil {
		cfg.AdminRoutes = DefaultAdminRoutes
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.NotificationTTL <= 0 {
		cfg.NotificationTTL = DefaultNotificationTTL
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = log.Nop()
	}
	return &Coordinator{
		cfg:       cfg,
		channel:   deps.Channel,
		fetcher:   deps.Fetcher,
		clock:     deps.Clock,
		logger:    deps.Logger,
		notifier:  NewNotifier(deps.Clock, cfg.NotificationTTL, deps.Audio, deps.Logger),
		state:     StateInit,
		gate:      true,
		seen:      map[Kind]*SeenSet{KindOrder: NewSeenSet(), KindReservation: NewSeenSet()},
		baselined: map[Kind]bool{},
		history:   []State{StateInit},
	}
}

// Run drives the state machine until ctx is done. Timers are released before it returns.
func (c *Coordinator) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()
	defer c.notifier.Close()

	if c.adminContext() {
		c.setState(StateConnecting)
		// Silent snapshot so a later fallback to polling never replays history.
		// Kinds it could not fetch stay silent on their first poll, so the gate can open now
		// and a creation racing the handshake still surfaces after a fallback.
		c.cycle(ctx, true)
		c.mu.Lock()
		c.gate = false
		c.mu.Unlock()
		events, err := c.channel.Connect(ctx, c.cfg.Token)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			c.setState(StateChannelActive)
			c.logger.Info().Msg("Realtime channel authenticated")
			if !c.consume(ctx, events) {
				return nil
			}
			c.logger.Warn().Msg("Realtime channel disconnected, falling back to polling")
		} else if errors.Is(err, ErrAuthRejected) {
			c.logger.Warn().Msg("Realtime channel rejected the token, falling back to polling")
		} else {
			c.logger.Warn().Err(err).Msg("Realtime channel unavailable, falling back to polling")
		}
	}

	c.setState(StatePolling)
	if c.fetcher == nil {
		return ErrNoFetcher
	}
	return c.poll(ctx)
}

// adminContext reports whether the channel should be attempted at all.
func (c *Coordinator) adminContext() bool {
	if c.cfg.Token == "" || c.channel == nil {
		return false
	}
	for _, prefix := range c.cfg.AdminRoutes {
		prefix = strings.TrimSuffix(prefix, "/")
		if c.cfg.Route == prefix || strings.HasPrefix(c.cfg.Route, prefix+"/") {
			return true
		}
	}
	return false
}

// consume handles channel events until the stream ends (true) or ctx is done (false).
func (c *Coordinator) consume(ctx context.Context, events <-chan Event) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-events:
			if !ok {
				return true
			}
			c.handleEvent(ctx, event)
		}
	}
}

func (c *Coordinator) handleEvent(ctx context.Context, event Event) {
	kind, ok := channelKinds[event.Name]
	if !ok {
		c.logger.Debug().Str("event", event.Name).Msg("Ignoring channel event")
		return
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(event.Data, &ref); err != nil || ref.ID == "" {
		c.logger.Warn().Str("event", event.Name).Msg("Channel event without an id")
		return
	}
	c.mu.Lock()
	c.stats.ChannelEvents++
	c.mu.Unlock()
	if kind.Cancellation() {
		c.surface(ctx, kind, ref.ID, event.Data)
		return
	}
	c.observe(ctx, kind, Item{ID: ref.ID, Data: event.Data}, true)
}

// observe records a creation and surfaces it when it is new and not gated.
func (c *Coordinator) observe(ctx context.Context, kind Kind, item Item, loud bool) {
	c.mu.Lock()
	fresh := c.seen[kind].Add(item.ID)
	if !fresh {
		c.stats.Duplicates++
	}
	show := fresh && loud && !c.gate
	c.mu.Unlock()
	if show {
		c.surface(ctx, kind, item.ID, item.Data)
	}
}

func (c *Coordinator) surface(ctx context.Context, kind Kind, id string, data json.RawMessage) {
	c.notifier.Show(ctx, kind, id, data)
	c.mu.Lock()
	c.stats.Shown++
	c.mu.Unlock()
}

func (c *Coordinator) poll(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	c.cycle(ctx, false)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			c.cycle(ctx, false)
		}
	}
}

// cycle fetches every kind once. A silent cycle only records ids.
// A kind's first successful fetch is always silent, and the gate opens after any completed cycle.
func (c *Coordinator) cycle(ctx context.Context, silent bool) {
	if c.fetcher == nil {
		return
	}
	for _, kind := range pollKinds {
		items, err := c.fetcher.Fetch(ctx, kind)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn().Err(err).Str("kind", string(kind)).Msg("Poll fetch failed, skipping")
			c.mu.Lock()
			c.stats.PollFailures++
			c.mu.Unlock()
			continue
		}
		c.mu.Lock()
		loud := !silent && c.baselined[kind]
		c.baselined[kind] = true
		c.mu.Unlock()
		for _, item := range items {
			c.observe(ctx, kind, item, loud)
		}
	}
	if silent {
		return
	}
	c.mu.Lock()
	c.stats.Polls++
	c.gate = false
	c.mu.Unlock()
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.stats.State = s
	c.history = append(c.history, s)
	c.mu.Unlock()
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// History lists every state entered so far, starting with StateInit.
func (c *Coordinator) History() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]State(nil), c.history...)
}

// Current returns the displayed notification, if any.
func (c *Coordinator) Current() (Notification, bool) {
	return c.notifier.Current()
}

// Subscribe streams every surfaced notification, see Notifier.Subscribe.
func (c *Coordinator) Subscribe() (<-chan Notification, func()) {
	return c.notifier.Subscribe()
}

// Seen reports whether the creation of id was observed.
func (c *Coordinator) Seen(kind Kind, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.seen[kind]
	return ok && set.Has(id)
}

// FirstLoad reports whether the first-load gate is still closed.
func (c *Coordinator) FirstLoad() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gate
}

func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
