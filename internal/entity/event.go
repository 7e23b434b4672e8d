// Structure of the real-time event Models in Saffron.

package entity

// Event names written on the SSE stream.
const (
	SSENewOrder             = "new-order"
	SSENewReservation       = "new-reservation"
	SSEOrderCancelled       = "order-cancelled"
	SSEReservationCancelled = "reservation-cancelled"
)

// Event names used on the bidirectional realtime channel.
const (
	ChannelConnect              = "connect"
	ChannelAuthenticate         = "authenticate"
	ChannelAuthenticated        = "authenticated"
	ChannelError                = "error"
	ChannelOrderCreated         = "orderCreated"
	ChannelReservationCreated   = "reservationCreated"
	ChannelOrderCancelled       = "orderCancelled"
	ChannelReservationCancelled = "reservationCancelled"
)

// Broadcast group every authenticated admin connection joins.
const AdminGroup = "admin"

// BroadcastEvent lives only while in flight between a producer and its subscribers.
type BroadcastEvent struct {
	Name    string `json:"name"`
	Payload any    `json:"payload"`
}

// Frame on the realtime channel, in both directions.
type ChannelMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type AuthenticatedPayload struct {
	Success bool `json:"success"`
}

type ConnectPayload struct {
	ID string `json:"id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
