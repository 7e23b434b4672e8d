// Structure of Order Model in Saffron.

package entity

import "time"

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderPreparing, OrderOutForDelivery, OrderDelivered, OrderCancelled,
}

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "online"
	PaymentCOD    PaymentMethod = "cod"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Saved in the store under the "orders" collection, keyed by ID.
type Order struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customer_name"`
	Phone         string        `json:"phone"`
	Email         string        `json:"email,omitempty"`
	Items         []OrderItem   `json:"items"`
	Total         int64         `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        OrderStatus   `json:"status"`
	Address       string        `json:"address,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CancelReason  string        `json:"cancel_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
}

type OrderItem struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
}

// Checkout payload sent by the customer, prices are always resolved server side.
type OrderRequest struct {
	CustomerName  string             `json:"customer_name" valid:"required,stringlength(2|60),notblank~customer_name:Name cannot contain only spaces"`
	Phone         string             `json:"phone" valid:"required,phone~phone:Invalid phone number"`
	Email         string             `json:"email,omitempty" valid:"optional,email~email:Invalid email address"`
	PaymentMethod string             `json:"payment_method" valid:"required,in(online|cod)~payment_method:Payment method must be online or cod"`
	Address       string             `json:"address,omitempty" valid:"optional,stringlength(5|200)~address:Address must be 5 to 200 characters"`
	Notes         string             `json:"notes,omitempty" valid:"optional,stringlength(0|300)~notes:Notes cannot exceed 300 characters"`
	Items         []OrderItemRequest `json:"items" valid:"-"`
}

type OrderItemRequest struct {
	MenuItemID string `json:"menu_item_id" valid:"required~menu_item_id:Menu item is required"`
	Quantity   int    `json:"quantity" valid:"required,range(1|50)~quantity:Quantity must be between 1 and 50"`
}

// Cancellation payload, Phone is required for customers and ignored for admins.
type CancelRequest struct {
	Phone  string `json:"phone"`
	Reason string `json:"reason"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

// Cancellable reports whether the order may still transition to cancelled.
func (o Order) Cancellable() bool {
	return o.Status == OrderPending || o.Status == OrderConfirmed
}

// ItemCount is the number of portions across every line.
func (o Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// OrderSummary is the subset of an order pushed to admin clients.
type OrderSummary struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customerName"`
	Total         int64         `json:"total"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	ItemCount     int           `json:"itemCount"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func SummarizeOrder(o Order) OrderSummary {
	return OrderSummary{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		Total:         o.Total,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		ItemCount:     o.ItemCount(),
		CreatedAt:     o.CreatedAt,
	}
}

// CancellationSummary is pushed to admin clients when an order or reservation is cancelled.
type CancellationSummary struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

func SummarizeOrderCancellation(o Order) CancellationSummary {
	return CancellationSummary{ID: o.ID, Status: string(o.Status), Reason: o.CancelReason, CancelledAt: o.CancelledAt}
}
