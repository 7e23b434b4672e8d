package dashboard

import (
	"Saffron/internal/coordinator"
	"Saffron/internal/entity"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Alerter draws attention to a surfaced notification. Failures are logged by the caller and never stop consumption.
type Alerter interface {
	Alert(ctx context.Context, note coordinator.Notification) error
}

// TerminalAlerter prints one line per notification, preceded by the terminal bell when Bell is set.
type TerminalAlerter struct {
	Out  io.Writer
	Bell bool

	mu sync.Mutex
}

func NewTerminalAlerter(out io.Writer, bell bool) *TerminalAlerter {
	return &TerminalAlerter{Out: out, Bell: bell}
}

func (a *TerminalAlerter) Alert(ctx context.Context, note coordinator.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	prefix := ""
	if a.Bell {
		prefix = "\a"
	}
	_, err := fmt.Fprintf(a.Out, "%s[%s] %s\n", prefix, note.ShownAt.Format("15:04:05"), Describe(note))
	return err
}

// Describe renders the notification as a single human readable line.
func Describe(note coordinator.Notification) string {
	switch note.Kind {
	case coordinator.KindOrder:
		var o entity.OrderSummary
		if json.Unmarshal(note.Data, &o) == nil && o.CustomerName != "" {
			return fmt.Sprintf("New order %s from %s, %d items, %s (%s)", note.ID, o.CustomerName, o.ItemCount, FormatPrice(o.Total), o.PaymentMethod)
		}
		return "New order " + note.ID
	case coordinator.KindReservation:
		var r entity.ReservationSummary
		if json.Unmarshal(note.Data, &r) == nil && r.Name != "" {
			return fmt.Sprintf("New reservation %s for %s, %d guests on %s at %s", note.ID, r.Name, r.Guests, r.Date, r.Time)
		}
		return "New reservation " + note.ID
	case coordinator.KindOrderCancelled:
		return "Order " + note.ID + " cancelled" + reason(note.Data)
	case coordinator.KindReservationCancelled:
		return "Reservation " + note.ID + " cancelled" + reason(note.Data)
	}
	return string(note.Kind) + " " + note.ID
}

func reason(data json.RawMessage) string {
	var c entity.CancellationSummary
	if json.Unmarshal(data, &c) == nil && c.Reason != "" {
		return ": " + c.Reason
	}
	return ""
}

// FormatPrice formats an amount in paise as rupees.
func FormatPrice(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/100, paise%100)
}
