// Service layer of the internal package order.

package order

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/internal/events"
	"Saffron/internal/menu"
	"Saffron/internal/messaging"
	"Saffron/pkg/log"
	"Saffron/pkg/validations"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"
)

// Service layer of internal package order which encapsulates checkout and order tracking logic of Saffron.
type Service interface {
	// Places a new order, prices are resolved from the menu
	createorder(ctx context.Context, req entity.OrderRequest) (entity.Order, error)
	// Returns the order with id if phone matches the one it was placed with
	trackorder(ctx context.Context, id, phone string) (entity.Order, error)
	// Lists the orders placed with phone, newest first
	myorders(ctx context.Context, phone string) ([]entity.Order, error)
	// Cancels an order, customers are limited to pending or confirmed orders
	cancelorder(ctx context.Context, id string, req entity.CancelRequest, admin bool) (entity.Order, error)
	// Lists every order newest first, optionally narrowed down by status
	listorders(ctx context.Context, status string) ([]entity.Order, error)
	// Moves an order along its lifecycle
	updatestatus(ctx context.Context, id, status string) (entity.Order, error)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	orderRepo  Repository
	menuRepo   menu.Repository
	publisher  *events.Publisher
	dispatcher *messaging.Dispatcher
	logger     log.Logger
	now        func() time.Time
}

func NewService(orderRepo Repository, menuRepo menu.Repository, publisher *events.Publisher, dispatcher *messaging.Dispatcher, logger log.Logger) Service {
	return service{orderRepo, menuRepo, publisher, dispatcher, logger, time.Now}
}

func (s service) createorder(ctx context.Context, req entity.OrderRequest) (entity.Order, error) {
	req.Phone = validations.NormalizePhone(req.Phone)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	if valerr := validateOrderRequest(req); valerr != nil {
		return entity.Order{}, valerr
	}
	items, total, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return entity.Order{}, err
	}
	now := s.now().UTC()
	o := entity.Order{
		ID:            xid.New().String(),
		CustomerName:  req.CustomerName,
		Phone:         req.Phone,
		Email:         strings.TrimSpace(req.Email),
		Items:         items,
		Total:         total,
		PaymentMethod: entity.PaymentMethod(req.PaymentMethod),
		PaymentStatus: entity.PaymentPending,
		Status:        entity.OrderPending,
		Address:       strings.TrimSpace(req.Address),
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if dberr := s.orderRepo.SetOrder(ctx, s.logger, o); dberr != nil {
		return entity.Order{}, dberr
	}
	s.logger.WithCtx(ctx).Info().Str("order_id", o.ID).Int64("total", o.Total).Msg("Order placed")

	s.publisher.OrderCreated(ctx, o)
	s.dispatcher.Notify(ctx, messaging.Recipient{Phone: o.Phone, Email: o.Email},
		fmt.Sprintf("Hi %s, your Saffron order %s of %s has been received.", o.CustomerName, o.ID, formatPrice(o.Total)))
	return o, nil
}

// resolveItems prices every requested line against the menu, merging repeated items.
func (s service) resolveItems(ctx context.Context, lines []entity.OrderItemRequest) ([]entity.OrderItem, int64, error) {
	items := []entity.OrderItem{}
	index := map[string]int{}
	var total int64
	for _, line := range lines {
		id := strings.TrimSpace(strings.ToLower(line.MenuItemID))
		menuItem, err := s.menuRepo.GetMenuItem(ctx, s.logger, id)
		if resp, ok := errors.StatusOf(err); err != nil && ok && resp.Status == http.StatusNotFound {
			return nil, 0, errors.GenerateValidationErrorResponse([]error{errors.New("items:Unknown menu item " + id)})
		} else if err != nil {
			return nil, 0, err
		}
		if !menuItem.Available {
			return nil, 0, errors.GenerateValidationErrorResponse([]error{errors.New("items:" + menuItem.Name + " is currently unavailable")})
		}
		if i, seen := index[id]; seen {
			items[i].Quantity += line.Quantity
		} else {
			index[id] = len(items)
			items = append(items, entity.OrderItem{
				MenuItemID: menuItem.ID,
				Name:       menuItem.Name,
				Quantity:   line.Quantity,
				UnitPrice:  menuItem.Price,
			})
		}
		total += menuItem.Price * int64(line.Quantity)
	}
	return items, total, nil
}

func (s service) trackorder(ctx context.Context, id, phone string) (entity.Order, error) {
	phone = validations.NormalizePhone(phone)
	if phone == "" {
		return entity.Order{}, errors.BadRequest("phone is required")
	}
	o, err := s.orderRepo.GetOrder(ctx, s.logger, id)
	if err != nil {
		return o, err
	}
	if o.Phone != phone {
		// Never reveal that the order exists
		return entity.Order{}, errors.NotFound("Order not found")
	}
	return o, nil
}

func (s service) myorders(ctx context.Context, phone string) ([]entity.Order, error) {
	phone = validations.NormalizePhone(phone)
	if phone == "" {
		return nil, errors.BadRequest("phone is required")
	}
	return s.orderRepo.ListOrders(ctx, s.logger, phone)
}

func (s service) cancelorder(ctx context.Context, id string, req entity.CancelRequest, admin bool) (entity.Order, error) {
	phone := validations.NormalizePhone(req.Phone)
	if !admin && phone == "" {
		return entity.Order{}, errors.BadRequest("phone is required")
	}
	o, err := s.orderRepo.UpdateOrder(ctx, s.logger, id, func(o *entity.Order) error {
		if !admin && o.Phone != phone {
			return errors.NotFound("Order not found")
		}
		if o.Status == entity.OrderCancelled {
			return errors.Conflict("Order is already cancelled")
		}
		if admin && o.Status == entity.OrderDelivered {
			return errors.Conflict("Delivered orders cannot be cancelled")
		}
		if !admin && !o.Cancellable() {
			return errors.Conflict("Order can no longer be cancelled")
		}
		s.markCancelled(o, strings.TrimSpace(req.Reason))
		return nil
	})
	if err != nil {
		return o, err
	}
	s.cancelled(ctx, o)
	return o, nil
}

func (s service) listorders(ctx context.Context, status string) ([]entity.Order, error) {
	orders, err := s.orderRepo.ListOrders(ctx, s.logger, "")
	if err != nil || status == "" {
		return orders, err
	}
	wanted, ok := parseStatus(status)
	if !ok {
		return nil, errors.BadRequest("Unknown order status " + status)
	}
	filtered := []entity.Order{}
	for _, o := range orders {
		if o.Status == wanted {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

func (s service) updatestatus(ctx context.Context, id, status string) (entity.Order, error) {
	next, ok := parseStatus(status)
	if !ok {
		return entity.Order{}, errors.BadRequest("Unknown order status " + status)
	}
	o, err := s.orderRepo.UpdateOrder(ctx, s.logger, id, func(o *entity.Order) error {
		if !canTransition(o.Status, next) {
			return errors.Conflict(fmt.Sprintf("Order cannot move from %s to %s", o.Status, next))
		}
		if next == entity.OrderCancelled {
			s.markCancelled(o, "Cancelled by the restaurant")
			return nil
		}
		o.Status = next
		o.UpdatedAt = s.now().UTC()
		if next == entity.OrderDelivered && o.PaymentMethod == entity.PaymentCOD {
			o.PaymentStatus = entity.PaymentPaid
		}
		return nil
	})
	if err != nil {
		return o, err
	}
	s.logger.WithCtx(ctx).Info().Str("order_id", o.ID).Str("status", string(o.Status)).Msg("Order status updated")
	if o.Status == entity.OrderCancelled {
		s.cancelled(ctx, o)
		return o, nil
	}
	s.dispatcher.Notify(ctx, messaging.Recipient{Phone: o.Phone},
		fmt.Sprintf("Your Saffron order %s is now %s.", o.ID, strings.ReplaceAll(string(o.Status), "_", " ")))
	return o, nil
}

func (s service) markCancelled(o *entity.Order, reason string) {
	now := s.now().UTC()
	o.Status = entity.OrderCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now
	if o.PaymentStatus == entity.PaymentPaid {
		o.PaymentStatus = entity.PaymentRefunded
	}
}

// cancelled announces a cancellation to admin clients and the customer.
func (s service) cancelled(ctx context.Context, o entity.Order) {
	s.logger.WithCtx(ctx).Info().Str("order_id", o.ID).Msg("Order cancelled")
	s.publisher.OrderCancelled(ctx, o)
	s.dispatcher.Notify(ctx, messaging.Recipient{Phone: o.Phone, Email: o.Email},
		fmt.Sprintf("Your Saffron order %s has been cancelled.", o.ID))
}

// formatPrice renders minor units as rupees.
func formatPrice(minor int64) string {
	return fmt.Sprintf("₹%d.%02d", minor/100, minor%100)
}
