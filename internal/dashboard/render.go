package dashboard

import (
	"Saffron/internal/entity"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/xeonx/timeago"
)

// Render prints the counters and the recent orders, relative to now.
func (d *Dashboard) Render(w io.Writer, now time.Time) error {
	m := d.Snapshot()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Orders\t%d\t(today %d, pending %d)\n", m.TotalOrders, m.TodayOrders, m.PendingOrders)
	fmt.Fprintf(tw, "Revenue\t%s\t\n", FormatPrice(m.Revenue))
	fmt.Fprintf(tw, "Reservations\t%d\t(pending %d)\n", m.TotalReservations, m.PendingReservations)
	buckets := make([]string, 0, len(entity.OrderStatuses))
	for _, status := range entity.OrderStatuses {
		buckets = append(buckets, fmt.Sprintf("%s=%d", status, m.OrdersByStatus[status]))
	}
	fmt.Fprintf(tw, "By status\t%s\t\n", strings.Join(buckets, " "))
	if len(m.RecentOrders) > 0 {
		fmt.Fprintln(tw, "\nRecent orders")
	}
	for _, o := range m.RecentOrders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.CustomerName, FormatPrice(o.Total), o.Status, timeago.English.FormatReference(o.CreatedAt, now))
	}
	return tw.Flush()
}
