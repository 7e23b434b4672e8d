// Package dashboard keeps admin back-office counters current from surfaced notifications.
package dashboard

import (
	"Saffron/internal/coordinator"
	"Saffron/internal/entity"
	"Saffron/pkg/log"
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Most recent orders kept for display.
const recentCap = 20

// MetricsFetcher returns the full dashboard aggregates.
type MetricsFetcher interface {
	FetchMetrics(ctx context.Context) (entity.Metrics, error)
}

// Dashboard is loaded once and then advanced only by notifications.
type Dashboard struct {
	alerter Alerter
	logger  log.Logger

	mu      sync.Mutex
	metrics entity.Metrics
	lastSeq uint64
	alerts  int
}

func New(alerter Alerter, logger log.Logger) *Dashboard {
	return &Dashboard{
		alerter: alerter,
		logger:  logger,
		metrics: entity.Metrics{OrdersByStatus: map[entity.OrderStatus]int{}},
	}
}

// Load replaces the counters with a fresh fetch. It is called once on startup.
func (d *Dashboard) Load(ctx context.Context, fetcher MetricsFetcher) error {
	m, err := fetcher.FetchMetrics(ctx)
	if err != nil {
		return fmt.Errorf("dashboard: loading metrics: %w", err)
	}
	if m.OrdersByStatus == nil {
		m.OrdersByStatus = map[entity.OrderStatus]int{}
	}
	if len(m.RecentOrders) > recentCap {
		m.RecentOrders = m.RecentOrders[:recentCap]
	}
	m.RecentOrders = append([]entity.OrderSummary(nil), m.RecentOrders...)
	d.mu.Lock()
	d.metrics = m
	d.mu.Unlock()
	return nil
}

// Consume applies notifications until ctx is done or the stream closes.
func (d *Dashboard) Consume(ctx context.Context, notes <-chan coordinator.Notification) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case note, ok := <-notes:
			if !ok {
				return nil
			}
			d.Apply(ctx, note)
		}
	}
}

// Apply handles one notification. A Seq at or below the last applied one is ignored.
func (d *Dashboard) Apply(ctx context.Context, note coordinator.Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Uint64("seq", note.Seq).Msg("Dashboard failed to apply notification")
		}
	}()
	d.mu.Lock()
	if note.Seq <= d.lastSeq {
		d.mu.Unlock()
		return
	}
	d.lastSeq = note.Seq
	d.alerts++
	switch note.Kind {
	case coordinator.KindOrder:
		d.addOrder(note)
	case coordinator.KindOrderCancelled:
		d.cancelOrder(note)
	}
	d.mu.Unlock()
	d.alert(ctx, note)
}

func (d *Dashboard) addOrder(note coordinator.Notification) {
	var summary entity.OrderSummary
	if err := json.Unmarshal(note.Data, &summary); err != nil || summary.ID == "" {
		d.logger.Warn().Str("id", note.ID).Msg("Order notification without a readable summary")
		return
	}
	if d.recentIndex(summary.ID) >= 0 {
		return
	}
	if summary.Status == "" {
		summary.Status = entity.OrderPending
	}
	m := &d.metrics
	m.TotalOrders++
	m.TodayOrders++
	m.OrdersByStatus[summary.Status]++
	if summary.Status == entity.OrderPending {
		m.PendingOrders++
	}
	if summary.Status != entity.OrderCancelled {
		m.Revenue += summary.Total
	}
	m.RecentOrders = append([]entity.OrderSummary{summary}, m.RecentOrders...)
	if len(m.RecentOrders) > recentCap {
		m.RecentOrders = m.RecentOrders[:recentCap]
	}
}

// Only orders still in the recent list can be moved between buckets.
func (d *Dashboard) cancelOrder(note coordinator.Notification) {
	i := d.recentIndex(note.ID)
	if i < 0 {
		return
	}
	m := &d.metrics
	prev := m.RecentOrders[i]
	if prev.Status == entity.OrderCancelled {
		return
	}
	if m.OrdersByStatus[prev.Status] > 0 {
		m.OrdersByStatus[prev.Status]--
	}
	if prev.Status == entity.OrderPending && m.PendingOrders > 0 {
		m.PendingOrders--
	}
	m.OrdersByStatus[entity.OrderCancelled]++
	m.Revenue -= prev.Total
	m.RecentOrders[i].Status = entity.OrderCancelled
}

func (d *Dashboard) recentIndex(id string) int {
	for i, o := range d.metrics.RecentOrders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (d *Dashboard) alert(ctx context.Context, note coordinator.Notification) {
	if d.alerter == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn().Interface("panic", r).Msg("Dashboard alert panicked")
		}
	}()
	if err := d.alerter.Alert(ctx, note); err != nil {
		d.logger.Warn().Err(err).Str("kind", string(note.Kind)).Msg("Dashboard alert failed")
	}
}

// Snapshot returns a copy of the current counters.
func (d *Dashboard) Snapshot() entity.Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.metrics
	m.OrdersByStatus = make(map[entity.OrderStatus]int, len(d.metrics.OrdersByStatus))
	for k, v := range d.metrics.OrdersByStatus {
		m.OrdersByStatus[k] = v
	}
	m.RecentOrders = append([]entity.OrderSummary(nil), d.metrics.RecentOrders...)
	return m
}

// Alerts is the number of notifications applied so far.
func (d *Dashboard) Alerts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alerts
}
