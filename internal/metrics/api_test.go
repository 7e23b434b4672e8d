// Metrics API tests in Saffron.

package metrics

import (
	"Saffron/internal/entity"
	"Saffron/internal/order"
	"Saffron/internal/reservation"
	"Saffron/internal/test"
	"Saffron/pkg/db"
	"Saffron/pkg/log"
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger log.Logger

var ctx context.Context = context.Background()

func TestMain(m *testing.M) {
	if enverr := godotenv.Load("../../config/test.env"); enverr != nil {
		os.Exit(4)
	}
	logger = log.New(os.Getenv("VERSION"))
	os.Exit(m.Run())
}

func TestGetMetrics(t *testing.T) {
	store, err := db.NewJSONFileStore(t.TempDir())
	require.NoError(t, err)
	orderRepo := order.NewRepository(store)
	reservationRepo := reservation.NewRepository(store)

	now := time.Date(2030, time.June, 15, 18, 0, 0, 0, time.UTC)
	statuses := []entity.OrderStatus{
		entity.OrderPending, entity.OrderPending, entity.OrderDelivered, entity.OrderCancelled,
	}
	for i, status := range statuses {
		require.NoError(t, orderRepo.SetOrder(ctx, logger, entity.Order{
			ID:        fmt.Sprintf("o%d", i),
			Status:    status,
			Total:     1000,
			Items:     []entity.OrderItem{{Quantity: 1}},
			CreatedAt: now.Add(-time.Duration(i) * 6 * time.Hour),
		}))
	}
	// Older orders push the recent list past its cap
	for i := 0; i < 10; i++ {
		require.NoError(t, orderRepo.SetOrder(ctx, logger, entity.Order{
			ID:        fmt.Sprintf("old%d", i),
			Status:    entity.OrderDelivered,
			Total:     500,
			CreatedAt: now.AddDate(0, 0, -7),
		}))
	}
	require.NoError(t, reservationRepo.SetReservation(ctx, logger, entity.Reservation{ID: "r1", Status: entity.ReservationPending, CreatedAt: now}))
	require.NoError(t, reservationRepo.SetReservation(ctx, logger, entity.Reservation{ID: "r2", Status: entity.ReservationConfirmed, CreatedAt: now}))

	svc := NewService(orderRepo, reservationRepo, logger).(service)
	svc.now = func() time.Time { return now }
	router := test.MockRouter()
	APIHandlers(router, svc, test.MockAuthMiddleware(logger), logger)

	request := test.RequestAPITest{
		Method:       http.MethodGet,
		Path:         "/api/admin/metrics",
		WantResponse: []int{http.StatusOK},
		Cookie:       []*http.Cookie{test.MockAuthAllowCookie},
	}
	var body struct {
		Metrics entity.Metrics `json:"metrics"`
	}
	test.ExecuteAPITest(logger, t, router, &request).Decode(t, &body)
	m := body.Metrics
	assert.Equal(t, 14, m.TotalOrders)
	assert.Equal(t, 2, m.PendingOrders)
	assert.Equal(t, 11, m.OrdersByStatus[entity.OrderDelivered])
	assert.Equal(t, 0, m.OrdersByStatus[entity.OrderPreparing])
	assert.Equal(t, int64(3*1000+10*500), m.Revenue)
	assert.Equal(t, 4, m.TodayOrders)
	assert.Equal(t, 2, m.TotalReservations)
	assert.Equal(t, 1, m.PendingReservations)
	require.Len(t, m.RecentOrders, 10)
	assert.Equal(t, "o0", m.RecentOrders[0].ID)

	request.Cookie = nil
	request.WantResponse = []int{http.StatusUnauthorized}
	test.ExecuteAPITest(logger, t, router, &request)
}
