package dashboard

import (
	"Saffron/internal/coordinator"
	"Saffron/internal/entity"
	"Saffron/internal/test"
	"Saffron/pkg/log"
	"bytes"
	"context"
	"encoding/json"
	goerrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mockNow = time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)

type metricsFunc func(ctx context.Context) (entity.Metrics, error)

func (f metricsFunc) FetchMetrics(ctx context.Context) (entity.Metrics, error) { return f(ctx) }

type recordingAlerter struct {
	mu    sync.Mutex
	notes []coordinator.Notification
	err   error
	panic bool
}

func (a *recordingAlerter) Alert(ctx context.Context, note coordinator.Notification) error {
	if a.panic {
		panic("speaker unplugged")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notes = append(a.notes, note)
	return a.err
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.notes)
}

func baseMetrics() entity.Metrics {
	return entity.Metrics{
		TotalOrders:    2,
		OrdersByStatus: map[entity.OrderStatus]int{entity.OrderPending: 1, entity.OrderDelivered: 1},
		PendingOrders:  1,
		Revenue:        50000,
		TodayOrders:    2,
		RecentOrders: []entity.OrderSummary{
			{ID: "o2", CustomerName: "Ravi", Total: 20000, Status: entity.OrderPending, CreatedAt: mockNow.Add(-10 * time.Minute)},
			{ID: "o1", CustomerName: "Meera", Total: 30000, Status: entity.OrderDelivered, CreatedAt: mockNow.Add(-2 * time.Hour)},
		},
	}
}

func loaded(t *testing.T, alerter Alerter) *Dashboard {
	t.Helper()
	d := New(alerter, log.Nop())
	calls := 0
	require.NoError(t, d.Load(context.Background(), metricsFunc(func(ctx context.Context) (entity.Metrics, error) {
		calls++
		return baseMetrics(), nil
	})))
	require.Equal(t, 1, calls)
	return d
}

func orderNote(t *testing.T, seq uint64, id string, total int64) coordinator.Notification {
	t.Helper()
	data, err := json.Marshal(entity.OrderSummary{ID: id, CustomerName: "Asha", Total: total, Status: entity.OrderPending, ItemCount: 2, PaymentMethod: entity.PaymentCOD, CreatedAt: mockNow})
	require.NoError(t, err)
	return coordinator.Notification{Seq: seq, Kind: coordinator.KindOrder, ID: id, Data: data, ShownAt: mockNow}
}

func cancelNote(t *testing.T, seq uint64, id string) coordinator.Notification {
	t.Helper()
	data, err := json.Marshal(entity.CancellationSummary{ID: id, Status: string(entity.OrderCancelled), Reason: "Customer asked"})
	require.NoError(t, err)
	return coordinator.Notification{Seq: seq, Kind: coordinator.KindOrderCancelled, ID: id, Data: data, ShownAt: mockNow}
}

func TestLoadError(t *testing.T) {
	d := New(nil, log.Nop())
	err := d.Load(context.Background(), metricsFunc(func(ctx context.Context) (entity.Metrics, error) {
		return entity.Metrics{}, goerrors.New("connection refused")
	}))
	assert.ErrorContains(t, err, "connection refused")
	assert.NotNil(t, d.Snapshot().OrdersByStatus)
}

func TestNewOrderUpdatesCounters(t *testing.T) {
	alerter := &recordingAlerter{}
	d := loaded(t, alerter)
	d.Apply(context.Background(), orderNote(t, 1, "o3", 7000))

	m := d.Snapshot()
	assert.Equal(t, 3, m.TotalOrders)
	assert.Equal(t, 3, m.TodayOrders)
	assert.Equal(t, 2, m.PendingOrders)
	assert.Equal(t, 2, m.OrdersByStatus[entity.OrderPending])
	assert.Equal(t, int64(57000), m.Revenue)
	require.Len(t, m.RecentOrders, 3)
	assert.Equal(t, "o3", m.RecentOrders[0].ID)
	assert.Equal(t, 1, alerter.count())
}

func TestEachNotificationAppliedOnce(t *testing.T) {
	alerter := &recordingAlerter{}
	d := loaded(t, alerter)
	note := orderNote(t, 1, "o3", 7000)
	d.Apply(context.Background(), note)
	d.Apply(context.Background(), note)
	// an order already listed is never counted twice even under a new Seq
	d.Apply(context.Background(), orderNote(t, 2, "o3", 7000))

	m := d.Snapshot()
	assert.Equal(t, 3, m.TotalOrders)
	assert.Len(t, m.RecentOrders, 3)
	assert.Equal(t, 2, alerter.count())
	assert.Equal(t, 2, d.Alerts())
}

func TestRecentOrdersCapped(t *testing.T) {
	d := loaded(t, nil)
	for i := 1; i <= 25; i++ {
		d.Apply(context.Background(), orderNote(t, uint64(i), "n"+strings.Repeat("x", i), 100))
	}
	m := d.Snapshot()
	assert.Len(t, m.RecentOrders, recentCap)
	assert.Equal(t, "n"+strings.Repeat("x", 25), m.RecentOrders[0].ID)
	assert.Equal(t, 27, m.TotalOrders)
}

func TestCancellationMovesBuckets(t *testing.T) {
	d := loaded(t, &recordingAlerter{})
	d.Apply(context.Background(), cancelNote(t, 1, "o2"))

	m := d.Snapshot()
	assert.Equal(t, 0, m.PendingOrders)
	assert.Equal(t, 0, m.OrdersByStatus[entity.OrderPending])
	assert.Equal(t, 1, m.OrdersByStatus[entity.OrderCancelled])
	assert.Equal(t, int64(30000), m.Revenue)
	assert.Equal(t, entity.OrderCancelled, m.RecentOrders[0].Status)
	assert.Equal(t, 2, m.TotalOrders)

	// repeated and unknown cancellations leave the buckets alone
	d.Apply(context.Background(), cancelNote(t, 2, "o2"))
	d.Apply(context.Background(), cancelNote(t, 3, "unknown"))
	assert.Equal(t, m, d.Snapshot())
}

func TestOtherKindsOnlyAlert(t *testing.T) {
	alerter := &recordingAlerter{}
	d := loaded(t, alerter)
	data, _ := json.Marshal(entity.ReservationSummary{ID: "r1", Name: "Kiran", Guests: 4, Date: "2030-06-20", Time: "19:30"})
	d.Apply(context.Background(), coordinator.Notification{Seq: 1, Kind: coordinator.KindReservation, ID: "r1", Data: data})
	d.Apply(context.Background(), coordinator.Notification{Seq: 2, Kind: coordinator.KindReservationCancelled, ID: "r1"})

	assert.Equal(t, baseMetrics(), d.Snapshot())
	assert.Equal(t, 2, alerter.count())
}

func TestMalformedAndFailingAlertsNeverPanic(t *testing.T) {
	d := loaded(t, &recordingAlerter{panic: true})
	assert.NotPanics(t, func() {
		d.Apply(context.Background(), coordinator.Notification{Seq: 1, Kind: coordinator.KindOrder, ID: "bad", Data: json.RawMessage(`{"id":`)})
		d.Apply(context.Background(), coordinator.Notification{Seq: 2, Kind: coordinator.KindOrderCancelled, ID: "o2", Data: nil})
	})
	assert.Equal(t, 2, d.Snapshot().TotalOrders)

	failing := loaded(t, &recordingAlerter{err: goerrors.New("no tty")})
	failing.Apply(context.Background(), orderNote(t, 1, "o3", 100))
	assert.Equal(t, 3, failing.Snapshot().TotalOrders)
}

func TestConsume(t *testing.T) {
	alerter := &recordingAlerter{}
	d := loaded(t, alerter)
	notes := make(chan coordinator.Notification, 4)
	notes <- orderNote(t, 1, "o3", 100)
	notes <- orderNote(t, 2, "o4", 100)
	notes <- orderNote(t, 2, "o4", 100)
	close(notes)
	require.NoError(t, d.Consume(context.Background(), notes))
	assert.Equal(t, 4, d.Snapshot().TotalOrders)
	assert.Equal(t, 2, alerter.count())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, d.Consume(ctx, make(chan coordinator.Notification)))
}

func TestRenderAndAlert(t *testing.T) {
	var out bytes.Buffer
	alerter := NewTerminalAlerter(&out, true)
	d := loaded(t, alerter)
	d.Apply(context.Background(), orderNote(t, 1, "o3", 91000))
	assert.Equal(t, "\a[12:00:00] New order o3 from Asha, 2 items, ₹910.00 (cod)\n", out.String())

	out.Reset()
	require.NoError(t, d.Render(&out, mockNow.Add(3*time.Minute)))
	rendered := out.String()
	assert.Contains(t, rendered, "Revenue")
	assert.Contains(t, rendered, "₹1410.00")
	assert.Contains(t, rendered, "pending=2")
	assert.Contains(t, rendered, "3 minutes ago")
	assert.Contains(t, rendered, "2 hours ago")
	assert.Less(t, strings.Index(rendered, "o3"), strings.Index(rendered, "o2"))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Order o9 cancelled: Customer asked", Describe(cancelNote(t, 1, "o9")))
	assert.Equal(t, "New order o9", Describe(coordinator.Notification{Kind: coordinator.KindOrder, ID: "o9"}))
	assert.Equal(t, "Reservation r1 cancelled", Describe(coordinator.Notification{Kind: coordinator.KindReservationCancelled, ID: "r1"}))
	assert.Equal(t, "-₹0.50", FormatPrice(-50))
}

func TestPolledOrderReachesDashboardIntact(t *testing.T) {
	router := test.MockRouter()
	router.GET("/api/admin/orders", func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, gin.H{"orders": []entity.Order{{
			ID:            "ord1",
			CustomerName:  "Asha",
			Phone:         "9876543210",
			Items:         []entity.OrderItem{{MenuItemID: "dal", Quantity: 2}, {MenuItemID: "naan", Quantity: 1}},
			Total:         45000,
			PaymentMethod: entity.PaymentCOD,
			Status:        entity.OrderPending,
			CreatedAt:     mockNow,
		}}})
	})
	server := httptest.NewServer(router)
	defer server.Close()

	items, err := coordinator.NewHTTPFetcher(server.URL, "token", nil).Fetch(context.Background(), coordinator.KindOrder)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var out bytes.Buffer
	d := loaded(t, NewTerminalAlerter(&out, false))
	note := coordinator.Notification{Seq: 1, Kind: coordinator.KindOrder, ID: items[0].ID, Data: items[0].Data, ShownAt: mockNow}
	d.Apply(context.Background(), note)

	recent := d.Snapshot().RecentOrders[0]
	assert.Equal(t, entity.OrderSummary{
		ID:            "ord1",
		CustomerName:  "Asha",
		Total:         45000,
		Status:        entity.OrderPending,
		PaymentMethod: entity.PaymentCOD,
		ItemCount:     3,
		CreatedAt:     mockNow,
	}, recent)
	assert.Equal(t, "[12:00:00] New order ord1 from Asha, 3 items, ₹450.00 (cod)\n", out.String())
}
