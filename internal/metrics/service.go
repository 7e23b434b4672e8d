// Service layer of the internal package metrics.

package metrics

import (
	"Saffron/internal/entity"
	"Saffron/internal/order"
	"Saffron/internal/reservation"
	"Saffron/pkg/log"
	"context"
	"time"
)

// Number of order summaries returned in Metrics.RecentOrders.
const recentOrders = 10

// Service layer of internal package metrics which aggregates the admin dashboard numbers of Saffron.
type Service interface {
	// Aggregates orders and reservations into dashboard metrics
	GetMetrics(ctx context.Context) (entity.Metrics, error)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	orderRepo       order.Repository
	reservationRepo reservation.Repository
	logger          log.Logger
	now             func() time.Time
}

func NewService(orderRepo order.Repository, reservationRepo reservation.Repository, logger log.Logger) Service {
	return service{orderRepo, reservationRepo, logger, time.Now}
}

func (s service) GetMetrics(ctx context.Context) (entity.Metrics, error) {
	orders, err := s.orderRepo.ListOrders(ctx, s.logger, "")
	if err != nil {
		return entity.Metrics{}, err
	}
	reservations, err := s.reservationRepo.ListReservations(ctx, s.logger, "")
	if err != nil {
		return entity.Metrics{}, err
	}

	now := s.now()
	year, month, day := now.Date()
	m := entity.Metrics{
		TotalOrders:       len(orders),
		OrdersByStatus:    map[entity.OrderStatus]int{},
		TotalReservations: len(reservations),
		RecentOrders:      []entity.OrderSummary{},
	}
	for _, status := range entity.OrderStatuses {
		m.OrdersByStatus[status] = 0
	}
	// orders are newest first
	for _, o := range orders {
		m.OrdersByStatus[o.Status]++
		if o.Status == entity.OrderPending {
			m.PendingOrders++
		}
		if o.Status != entity.OrderCancelled {
			m.Revenue += o.Total
		}
		if y, mo, d := o.CreatedAt.In(now.Location()).Date(); y == year && mo == month && d == day {
			m.TodayOrders++
		}
		if len(m.RecentOrders) < recentOrders {
			m.RecentOrders = append(m.RecentOrders, entity.SummarizeOrder(o))
		}
	}
	for _, res := range reservations {
		if res.Status == entity.ReservationPending {
			m.PendingReservations++
		}
	}
	return m, nil
}
