// All validations related to reservation entity in Saffron are defined here.

package reservation

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"time"

	"github.com/asaskevich/govalidator"
)

// Allowed reservation status transitions.
var transitions = map[entity.ReservationStatus][]entity.ReservationStatus{
	entity.ReservationPending:   {entity.ReservationConfirmed, entity.ReservationCancelled, entity.ReservationCompleted},
	entity.ReservationConfirmed: {entity.ReservationCompleted, entity.ReservationCancelled},
}

var statuses = []entity.ReservationStatus{
	entity.ReservationPending, entity.ReservationConfirmed, entity.ReservationCancelled, entity.ReservationCompleted,
}

func canTransition(from, to entity.ReservationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func parseStatus(raw string) (entity.ReservationStatus, bool) {
	for _, status := range statuses {
		if string(status) == raw {
			return status, true
		}
	}
	return "", false
}

// Helper to validate the reservation against validation-tags mentioned in its entity.
// The slot must not lie in the past relative to now, in now's location.
func validateReservation(res entity.Reservation, now time.Time) error {
	if _, valerr := govalidator.ValidateStruct(res); valerr != nil {
		if verrs, ok := valerr.(govalidator.Errors); ok {
			return errors.GenerateValidationErrorResponse(verrs.Errors())
		}
		return errors.GenerateValidationErrorResponse([]error{valerr})
	}
	slot, perr := time.ParseInLocation("2006-01-02 15:04", res.Date+" "+res.Time, now.Location())
	if perr != nil {
		return errors.GenerateValidationErrorResponse([]error{errors.New("date:Invalid reservation slot")})
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if slot.Before(today) {
		return errors.GenerateValidationErrorResponse([]error{errors.New("date:Date cannot be in the past")})
	}
	if slot.Before(now) {
		return errors.GenerateValidationErrorResponse([]error{errors.New("time:Time cannot be in the past")})
	}
	return nil
}
