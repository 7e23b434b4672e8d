// Service layer of the internal package reservation.

package reservation

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/internal/events"
	"Saffron/internal/messaging"
	"Saffron/pkg/log"
	"Saffron/pkg/validations"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
)

// Service layer of internal package reservation which encapsulates table booking logic of Saffron.
type Service interface {
	// Books a table
	createreservation(ctx context.Context, res entity.Reservation) (entity.Reservation, error)
	// Returns the reservation with id if phone matches
	trackreservation(ctx context.Context, id, phone string) (entity.Reservation, error)
	// Lists the reservations made with phone, newest first
	myreservations(ctx context.Context, phone string) ([]entity.Reservation, error)
	// Cancels a reservation, customers are limited to pending or confirmed ones
	cancelreservation(ctx context.Context, id string, req entity.CancelRequest, admin bool) (entity.Reservation, error)
	// Lists every reservation newest first, optionally narrowed down by status
	listreservations(ctx context.Context, status string) ([]entity.Reservation, error)
	// Moves a reservation along its lifecycle
	updatestatus(ctx context.Context, id, status string) (entity.Reservation, error)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	reservationRepo Repository
	publisher       *events.Publisher
	dispatcher      *messaging.Dispatcher
	logger          log.Logger
	now             func() time.Time
}

func NewService(reservationRepo Repository, publisher *events.Publisher, dispatcher *messaging.Dispatcher, logger log.Logger) Service {
	return service{reservationRepo, publisher, dispatcher, logger, time.Now}
}

func (s service) createreservation(ctx context.Context, res entity.Reservation) (entity.Reservation, error) {
	res.Name = strings.TrimSpace(res.Name)
	res.Phone = validations.NormalizePhone(res.Phone)
	res.Email = strings.TrimSpace(res.Email)
	res.Notes = strings.TrimSpace(res.Notes)
	now := s.now()
	if valerr := validateReservation(res, now); valerr != nil {
		return entity.Reservation{}, valerr
	}
	res.ID = xid.New().String()
	res.Status = entity.ReservationPending
	res.CancelReason = ""
	res.CancelledAt = nil
	res.CreatedAt = now.UTC()
	res.UpdatedAt = res.CreatedAt
	// A phone number holds at most one active table per day
	if dberr := s.reservationRepo.CreateReservation(ctx, s.logger, res); dberr != nil {
		return entity.Reservation{}, dberr
	}
	s.logger.WithCtx(ctx).Info().Str("reservation_id", res.ID).Int("guests", res.Guests).Msg("Table reserved")

	s.publisher.ReservationCreated(ctx, res)
	s.dispatcher.Notify(ctx, messaging.Recipient{Phone: res.Phone, Email: res.Email},
		fmt.Sprintf("Hi %s, your table for %d on %s at %s is requested. Reservation id %s.", res.Name, res.Guests, res.Date, res.Time, res.ID))
	return res, nil
}

func (s service) trackreservation(ctx context.Context, id, phone string) (entity.Reservation, error) {
	phone = validations.NormalizePhone(phone)
	if phone == "" {
		return entity.Reservation{}, errors.BadRequest("phone is required")
	}
	res, err := s.reservationRepo.GetReservation(ctx, s.logger, id)
	if err != nil {
		return res, err
	}
	if res.Phone != phone {
		return entity.Reservation{}, errors.NotFound("Reservation not found")
	}
	return res, nil
}

func (s service) myreservations(ctx context.Context, phone string) ([]entity.Reservation, error) {
	phone = validations.NormalizePhone(phone)
	if phone == "" {
		return nil, errors.BadRequest("phone is required")
	}
	return s.reservationRepo.ListReservations(ctx, s.logger, phone)
}

func (s service) cancelreservation(ctx context.Context, id string, req entity.CancelRequest, admin bool) (entity.Reservation, error) {
	phone := validations.NormalizePhone(req.Phone)
	if !admin && phone == "" {
		return entity.Reservation{}, errors.BadRequest("phone is required")
	}
	res, err := s.reservationRepo.UpdateReservation(ctx, s.logger, id, func(res *entity.Reservation) error {
		if !admin && res.Phone != phone {
			return errors.NotFound("Reservation not found")
		}
		if res.Status == entity.ReservationCancelled {
			return errors.Conflict("Reservation is already cancelled")
		}
		if !res.Cancellable() {
			return errors.Conflict("Reservation can no longer be cancelled")
		}
		s.markCancelled(res, strings.TrimSpace(req.Reason))
		return nil
	})
	if err != nil {
		return res, err
	}
	s.cancelled(ctx, res)
	return res, nil
}

func (s service) listreservations(ctx context.Context, status string) ([]entity.Reservation, error) {
	list, err := s.reservationRepo.ListReservations(ctx, s.logger, "")
	if err != nil || status == "" {
		return list, err
	}
	wanted, ok := parseStatus(status)
	if !ok {
		return nil, errors.BadRequest("Unknown reservation status " + status)
	}
	filtered := []entity.Reservation{}
	for _, res := range list {
		if res.Status == wanted {
			filtered = append(filtered, res)
		}
	}
	return filtered, nil
}

func (s service) updatestatus(ctx context.Context, id, status string) (entity.Reservation, error) {
	next, ok := parseStatus(status)
	if !ok {
		return entity.Reservation{}, errors.BadRequest("Unknown reservation status " + status)
	}
	res, err := s.reservationRepo.UpdateReservation(ctx, s.logger, id, func(res *entity.Reservation) error {
		if !canTransition(res.Status, next) {
			return errors.Conflict(fmt.Sprintf("Reservation cannot move from %s to %s", res.Status, next))
		}
		if next == entity.ReservationCancelled {
			s.markCancelled(res, "Cancelled by the restaurant")
			return nil
		}
		res.Status = next
		res.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return res, err
	}
	s.logger.WithCtx(ctx).Info().Str("reservation_id", res.ID).Str("status", string(res.Status)).Msg("Reservation status updated")
	switch res.Status {
	case entity.ReservationCancelled:
		s.cancelled(ctx, res)
	case entity.ReservationConfirmed:
		s.dispatcher.Notify(ctx, messaging.Recipient{Phone: res.Phone, Email: res.Email},
			fmt.Sprintf("Your Saffron table for %d on %s at %s is confirmed.", res.Guests, res.Date, res.Time))
	}
	return res, nil
}

func (s service) markCancelled(res *entity.Reservation, reason string) {
	now := s.now().UTC()
	res.Status = entity.ReservationCancelled
	res.CancelReason = reason
	res.CancelledAt = &now
	res.UpdatedAt = now
}

func (s service) cancelled(ctx context.Context, res entity.Reservation) {
	s.logger.WithCtx(ctx).Info().Str("reservation_id", res.ID).Msg("Reservation cancelled")
	s.publisher.ReservationCancelled(ctx, res)
	s.dispatcher.Notify(ctx, messaging.Recipient{Phone: res.Phone, Email: res.Email},
		fmt.Sprintf("Your Saffron reservation %s on %s has been cancelled.", res.ID, res.Date))
}
