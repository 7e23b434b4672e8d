// Domain event publisher fanning order and reservation changes out to admin clients.

package events

import (
	"Saffron/internal/entity"
	"Saffron/pkg/log"
	"context"
)

// Broadcaster is the SSE side of the fan-out.
type Broadcaster interface {
	BroadcastEvent(name string, data any) int
}

// Channel is the realtime websocket side of the fan-out.
type Channel interface {
	EmitNewOrder(entity.Order) int
	EmitNewReservation(entity.Reservation) int
	EmitOrderCancelled(entity.Order) int
	EmitReservationCancelled(entity.Reservation) int
}

// Publisher pushes domain events through every configured transport.
// Either transport may be nil, the other one is still used.
type Publisher struct {
	broadcaster Broadcaster
	channel     Channel
	logger      log.Logger
}

func NewPublisher(broadcaster Broadcaster, channel Channel, logger log.Logger) *Publisher {
	return &Publisher{broadcaster: broadcaster, channel: channel, logger: logger}
}

// Delivery counts the clients an event was queued for on each transport.
type Delivery struct {
	SSE     int
	Channel int
}

func (p *Publisher) OrderCreated(ctx context.Context, o entity.Order) Delivery {
	d := Delivery{
		SSE: p.broadcast(ctx, entity.SSENewOrder, entity.SummarizeOrder(o)),
	}
	if p.channelReady(ctx, entity.ChannelOrderCreated) {
		d.Channel = p.channel.EmitNewOrder(o)
	}
	p.logged(ctx, entity.SSENewOrder, o.ID, d)
	return d
}

func (p *Publisher) ReservationCreated(ctx context.Context, r entity.Reservation) Delivery {
	d := Delivery{
		SSE: p.broadcast(ctx, entity.SSENewReservation, entity.SummarizeReservation(r)),
	}
	if p.channelReady(ctx, entity.ChannelReservationCreated) {
		d.Channel = p.channel.EmitNewReservation(r)
	}
	p.logged(ctx, entity.SSENewReservation, r.ID, d)
	return d
}

func (p *Publisher) OrderCancelled(ctx context.Context, o entity.Order) Delivery {
	d := Delivery{
		SSE: p.broadcast(ctx, entity.SSEOrderCancelled, entity.SummarizeOrderCancellation(o)),
	}
	if p.channelReady(ctx, entity.ChannelOrderCancelled) {
		d.Channel = p.channel.EmitOrderCancelled(o)
	}
	p.logged(ctx, entity.SSEOrderCancelled, o.ID, d)
	return d
}

func (p *Publisher) ReservationCancelled(ctx context.Context, r entity.Reservation) Delivery {
	d := Delivery{
		SSE: p.broadcast(ctx, entity.SSEReservationCancelled, entity.SummarizeReservationCancellation(r)),
	}
	if p.channelReady(ctx, entity.ChannelReservationCancelled) {
		d.Channel = p.channel.EmitReservationCancelled(r)
	}
	p.logged(ctx, entity.SSEReservationCancelled, r.ID, d)
	return d
}

func (p *Publisher) broadcast(ctx context.Context, name string, data any) int {
	if p == nil || p.broadcaster == nil {
		p.warn(ctx, "SSE broadcaster not initialized, event skipped", name)
		return 0
	}
	return p.broadcaster.BroadcastEvent(name, data)
}

func (p *Publisher) channelReady(ctx context.Context, event string) bool {
	if p == nil || p.channel == nil {
		p.warn(ctx, "Realtime channel not initialized, event skipped", event)
		return false
	}
	return true
}

func (p *Publisher) warn(ctx context.Context, msg, event string) {
	if p == nil || p.logger == nil {
		return
	}
	p.logger.WithCtx(ctx).Warn().Str("event", event).Msg(msg)
}

func (p *Publisher) logged(ctx context.Context, event, id string, d Delivery) {
	if p == nil || p.logger == nil {
		return
	}
	p.logger.WithCtx(ctx).Debug().Str("event", event).Str("id", id).Int("sse", d.SSE).Int("channel", d.Channel).Msg("Published domain event")
}
