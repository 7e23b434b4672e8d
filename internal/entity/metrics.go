// Structure of Saffron dashboard Metrics Model.

package entity

type Metrics struct {
	TotalOrders         int                 `json:"totalOrders"`
	OrdersByStatus      map[OrderStatus]int `json:"ordersByStatus"`
	PendingOrders       int                 `json:"pendingOrders"`
	Revenue             int64               `json:"revenue"`
	TodayOrders         int                 `json:"todayOrders"`
	TotalReservations   int                 `json:"totalReservations"`
	PendingReservations int                 `json:"pendingReservations"`
	RecentOrders        []OrderSummary      `json:"recentOrders"`
}
