package coordinator

import (
	"Saffron/pkg/log"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeFetcher serves in-memory collections, optionally failing a kind.
type fakeFetcher struct {
	mu    sync.Mutex
	items map[Kind][]Item
	fail  map[Kind]bool
	calls int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{items: map[Kind][]Item{}, fail: map[Kind]bool{}}
}

func (f *fakeFetcher) Add(kind Kind, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.items[kind] = append(f.items[kind], Item{ID: id, Data: json.RawMessage(fmt.Sprintf(`{"id":%q}`, id))})
	}
}

func (f *fakeFetcher) Fail(kind Kind, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[kind] = fail
}

func (f *fakeFetcher) Fetch(ctx context.Context, kind Kind) ([]Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[kind] {
		return nil, errors.New("upstream unavailable")
	}
	return append([]Item(nil), f.items[kind]...), nil
}

// fakeChannel hands out a test controlled event stream.
type fakeChannel struct {
	mu       sync.Mutex
	err      error
	events   chan Event
	connects int

	// runs while the handshake is in flight
	onConnect func()
}

func newFakeChannel(err error) *fakeChannel {
	return &fakeChannel{err: err, events: make(chan Event, 16)}
}

func (f *fakeChannel) Connect(ctx context.Context, token string) (<-chan Event, error) {
	if f.onConnect != nil {
		f.onConnect()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeChannel) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeChannel) Push(name, id string) {
	f.events <- Event{Name: name, Data: json.RawMessage(fmt.Sprintf(`{"id":%q}`, id))}
}

type harness struct {
	c       *Coordinator
	clock   *fakeClock
	fetcher *fakeFetcher
	channel *fakeChannel
	cancel  context.CancelFunc
	done    chan error
}

// start runs a Coordinator in the background and stops it when the test ends.
func start(t *testing.T, cfg Config, fetcher *fakeFetcher, channel *fakeChannel) *harness {
	t.Helper()
	clock := newFakeClock()
	deps := Deps{Fetcher: fetcher, Clock: clock, Logger: log.Nop()}
	if channel != nil {
		deps.Channel = channel
	}
	h := &harness{c: New(cfg, deps), clock: clock, fetcher: fetcher, channel: channel, done: make(chan error, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *harness) waitState(t *testing.T, s State) {
	t.Helper()
	require.Eventually(t, func() bool { return h.c.State() == s }, waitFor, tick, "state %s never reached", s)
}

func (h *harness) waitPolls(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.c.Stats().Polls >= n }, waitFor, tick, "poll %d never completed", n)
}

func (h *harness) waitShown(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.c.Stats().Shown == n }, waitFor, tick)
}

func (h *harness) waitChannelEvents(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.c.Stats().ChannelEvents >= n }, waitFor, tick)
}

var adminConfig = Config{Token: "token", Route: "/admin/orders"}

func TestNoReplayOnLoadWhilePolling(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A", "B", "C")
	fetcher.Add(KindReservation, "R1")
	h := start(t, Config{Route: "/admin"}, fetcher, nil)

	h.waitPolls(t, 1)
	assert.Equal(t, StatePolling, h.c.State())
	assert.Equal(t, 0, h.c.Stats().Shown)
	assert.False(t, h.c.FirstLoad())
	for _, id := range []string{"A", "B", "C"} {
		assert.True(t, h.c.Seen(KindOrder, id))
	}
	assert.True(t, h.c.Seen(KindReservation, "R1"))
	_, shown := h.c.Current()
	assert.False(t, shown)
}

func TestNoReplayOnLoadWithChannel(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A", "B")
	h := start(t, adminConfig, fetcher, newFakeChannel(nil))

	h.waitState(t, StateChannelActive)
	assert.False(t, h.c.FirstLoad())
	assert.True(t, h.c.Seen(KindOrder, "A"))
	assert.True(t, h.c.Seen(KindOrder, "B"))
	assert.Equal(t, 0, h.c.Stats().Shown)
	assert.Equal(t, []State{StateInit, StateConnecting, StateChannelActive}, h.c.History())
}

func TestNewItemSurfacesExactlyOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A")
	h := start(t, Config{}, fetcher, nil)
	h.waitPolls(t, 1)

	fetcher.Add(KindOrder, "X")
	h.clock.Advance(DefaultPollInterval)
	h.waitPolls(t, 2)
	h.waitShown(t, 1)
	current, ok := h.c.Current()
	require.True(t, ok)
	assert.Equal(t, KindOrder, current.Kind)
	assert.Equal(t, "X", current.ID)
	assert.JSONEq(t, `{"id":"X"}`, string(current.Data))
	assert.True(t, h.c.Seen(KindOrder, "X"))

	// X is still in the next snapshot
	h.clock.Advance(DefaultPollInterval)
	h.waitPolls(t, 3)
	assert.Equal(t, 1, h.c.Stats().Shown)
}

func TestDuplicateDeliveryAcrossTransports(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A")
	channel := newFakeChannel(nil)
	h := start(t, adminConfig, fetcher, channel)
	h.waitState(t, StateChannelActive)

	channel.Push("orderCreated", "X")
	h.waitShown(t, 1)
	channel.Push("orderCreated", "X")
	h.waitChannelEvents(t, 2)
	assert.Equal(t, 1, h.c.Stats().Shown)

	// Disconnect, the next snapshot carries X again plus a genuinely new order
	fetcher.Add(KindOrder, "X")
	close(channel.events)
	h.waitState(t, StatePolling)
	h.waitPolls(t, 1)
	assert.Equal(t, 1, h.c.Stats().Shown)

	fetcher.Add(KindOrder, "Y")
	h.clock.Advance(DefaultPollInterval)
	h.waitShown(t, 2)
	current, _ := h.c.Current()
	assert.Equal(t, "Y", current.ID)
	assert.GreaterOrEqual(t, h.c.Stats().Duplicates, 2)
}

func TestOrdersCreatedDuringOutageSurfaceAfterFallback(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A")
	channel := newFakeChannel(nil)
	h := start(t, adminConfig, fetcher, channel)
	h.waitState(t, StateChannelActive)

	fetcher.Add(KindOrder, "Z")
	close(channel.events)
	h.waitPolls(t, 1)
	h.waitShown(t, 1)
	current, _ := h.c.Current()
	assert.Equal(t, "Z", current.ID)
}

func TestCancellationAlwaysSurfaces(t *testing.T) {
	c := New(Config{}, Deps{Clock: newFakeClock()})
	ctx := context.Background()
	// Gate still closed and A already seen
	require.True(t, c.FirstLoad())
	c.observe(ctx, KindOrder, Item{ID: "A"}, true)
	assert.Equal(t, 0, c.Stats().Shown)

	c.handleEvent(ctx, Event{Name: "orderCancelled", Data: json.RawMessage(`{"id":"A","status":"cancelled"}`)})
	c.handleEvent(ctx, Event{Name: "orderCancelled", Data: json.RawMessage(`{"id":"A","status":"cancelled"}`)})
	c.handleEvent(ctx, Event{Name: "reservationCancelled", Data: json.RawMessage(`{"id":"R"}`)})
	assert.Equal(t, 3, c.Stats().Shown)
	current, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, KindReservationCancelled, current.Kind)
	assert.False(t, c.Seen(KindReservation, "R"))
}

func TestMalformedChannelEventsAreIgnored(t *testing.T) {
	c := New(Config{}, Deps{Clock: newFakeClock()})
	ctx := context.Background()
	c.handleEvent(ctx, Event{Name: "orderCreated", Data: json.RawMessage(`not json`)})
	c.handleEvent(ctx, Event{Name: "orderCreated", Data: json.RawMessage(`{}`)})
	c.handleEvent(ctx, Event{Name: "connect", Data: json.RawMessage(`{"id":"conn"}`)})
	assert.Equal(t, Stats{}, c.Stats())
}

func TestFallbackOnAuthFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A")
	channel := newFakeChannel(ErrAuthRejected)
	h := start(t, adminConfig, fetcher, channel)

	h.waitPolls(t, 1)
	assert.Equal(t, StatePolling, h.c.State())
	assert.Equal(t, []State{StateInit, StateConnecting, StatePolling}, h.c.History())
	assert.NotContains(t, h.c.History(), StateChannelActive)
	assert.Equal(t, 0, h.c.Stats().Shown)
	assert.Equal(t, 1, channel.Connects())
}

func TestOrderPlacedDuringRejectedHandshakeSurfaces(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A")
	channel := newFakeChannel(ErrAuthRejected)
	channel.onConnect = func() { fetcher.Add(KindOrder, "H") }
	h := start(t, adminConfig, fetcher, channel)

	h.waitPolls(t, 1)
	h.waitShown(t, 1)
	current, ok := h.c.Current()
	require.True(t, ok)
	assert.Equal(t, "H", current.ID)
	assert.False(t, h.c.FirstLoad())
}

func TestKindMissingFromBaselineStaysSilentOnFirstPoll(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindReservation, "R1")
	fetcher.Fail(KindReservation, true)
	channel := newFakeChannel(ErrAuthRejected)
	channel.onConnect = func() {
		fetcher.Fail(KindReservation, false)
		fetcher.Add(KindOrder, "H")
	}
	h := start(t, adminConfig, fetcher, channel)

	h.waitPolls(t, 1)
	h.waitShown(t, 1)
	current, _ := h.c.Current()
	assert.Equal(t, "H", current.ID)
	assert.True(t, h.c.Seen(KindReservation, "R1"))
	assert.Equal(t, 1, h.c.Stats().Shown)
}

func TestDialErrorFallsBackToPolling(t *testing.T) {
	fetcher := newFakeFetcher()
	h := start(t, adminConfig, fetcher, newFakeChannel(errors.New("connection refused")))
	h.waitPolls(t, 1)
	assert.Equal(t, []State{StateInit, StateConnecting, StatePolling}, h.c.History())
}

func TestChannelOnlyOnAdminRoutes(t *testing.T) {
	cases := map[string]struct {
		Cfg     Config
		Connect bool
	}{
		"AdminRoot":       {Config{Token: "t", Route: "/admin"}, true},
		"MyOrders":        {Config{Token: "t", Route: "/my-orders/123"}, true},
		"Reserve":         {Config{Token: "t", Route: "/reserve"}, true},
		"LookalikeRoute":  {Config{Token: "t", Route: "/administrator"}, false},
		"PublicMenu":      {Config{Token: "t", Route: "/menu"}, false},
		"NoToken":         {Config{Route: "/admin"}, false},
		"CustomAllowList": {Config{Token: "t", Route: "/kitchen/board", AdminRoutes: []string{"/kitchen/"}}, true},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			c := New(data.Cfg, Deps{Channel: newFakeChannel(nil), Clock: newFakeClock()})
			assert.Equal(t, data.Connect, c.adminContext())
		})
	}
	c := New(Config{Token: "t", Route: "/admin"}, Deps{Clock: newFakeClock()})
	assert.False(t, c.adminContext(), "no channel configured")
}

func TestFailedFetchIsSkipped(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A")
	fetcher.Add(KindReservation, "R1")
	fetcher.Fail(KindOrder, true)
	h := start(t, Config{}, fetcher, nil)

	h.waitPolls(t, 1)
	stats := h.c.Stats()
	assert.Equal(t, 1, stats.PollFailures)
	assert.False(t, h.c.FirstLoad())
	assert.False(t, h.c.Seen(KindOrder, "A"))

	// The first successful order fetch is still a silent baseline
	fetcher.Fail(KindOrder, false)
	h.clock.Advance(DefaultPollInterval)
	h.waitPolls(t, 2)
	assert.True(t, h.c.Seen(KindOrder, "A"))
	assert.Equal(t, 0, h.c.Stats().Shown)

	fetcher.Add(KindOrder, "B")
	fetcher.Add(KindReservation, "R2")
	h.clock.Advance(DefaultPollInterval)
	h.waitShown(t, 2)
}

func TestAdminSessionOverChannel(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A")
	channel := newFakeChannel(nil)
	h := start(t, adminConfig, fetcher, channel)
	h.waitState(t, StateChannelActive)

	notes, unsubscribe := h.c.Subscribe()
	defer unsubscribe()

	assert.Equal(t, 0, h.c.Stats().Shown)
	assert.True(t, h.c.Seen(KindOrder, "A"))

	channel.Push("orderCreated", "B")
	h.waitShown(t, 1)
	channel.Push("orderCreated", "B")
	h.waitChannelEvents(t, 2)
	assert.Equal(t, 1, h.c.Stats().Shown)

	channel.Push("orderCancelled", "A")
	h.waitShown(t, 2)

	first, second := <-notes, <-notes
	assert.Equal(t, KindOrder, first.Kind)
	assert.Equal(t, "B", first.ID)
	assert.Equal(t, KindOrderCancelled, second.Kind)
	assert.Equal(t, "A", second.ID)
	assert.Less(t, first.Seq, second.Seq)
}

func TestTeardownReleasesTimers(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.Add(KindOrder, "A")
	h := start(t, Config{}, fetcher, nil)
	h.waitPolls(t, 1)
	fetcher.Add(KindOrder, "B")
	h.clock.Advance(DefaultPollInterval)
	h.waitShown(t, 1)
	assert.Equal(t, 1, h.clock.activeTickers())
	assert.Equal(t, 1, h.clock.activeTimers())

	h.cancel()
	select {
	case err := <-h.done:
		assert.NoError(t, err)
		h.done <- err
	case <-time.After(waitFor):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 0, h.clock.activeTickers())
	assert.Equal(t, 0, h.clock.activeTimers())

	notes, _ := h.c.Subscribe()
	_, open := <-notes
	assert.False(t, open)
}

func TestRunTwice(t *testing.T) {
	h := start(t, Config{}, newFakeFetcher(), nil)
	h.waitPolls(t, 1)
	assert.ErrorIs(t, h.c.Run(context.Background()), ErrAlreadyRunning)
}

func TestPollingWithoutFetcher(t *testing.T) {
	c := New(Config{}, Deps{Clock: newFakeClock()})
	assert.ErrorIs(t, c.Run(context.Background()), ErrNoFetcher)
}
