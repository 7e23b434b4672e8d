// All validations related to order entity in Saffron are defined here.

package order

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"fmt"

	"github.com/asaskevich/govalidator"
)

// Upper bound of distinct lines in a single order.
const maxOrderLines = 30

// Allowed order status transitions, anything missing is rejected with a conflict.
var transitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderPending:        {entity.OrderConfirmed, entity.OrderPreparing, entity.OrderCancelled},
	entity.OrderConfirmed:      {entity.OrderPreparing, entity.OrderCancelled},
	entity.OrderPreparing:      {entity.OrderOutForDelivery, entity.OrderDelivered, entity.OrderCancelled},
	entity.OrderOutForDelivery: {entity.OrderDelivered, entity.OrderCancelled},
}

// canTransition reports whether an order in from may move to to.
func canTransition(from, to entity.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// parseStatus returns the OrderStatus named by raw.
func parseStatus(raw string) (entity.OrderStatus, bool) {
	for _, status := range entity.OrderStatuses {
		if string(status) == raw {
			return status, true
		}
	}
	return "", false
}

// Helper to validate the order request against validation-tags mentioned in its entity.
func validateOrderRequest(req entity.OrderRequest) error {
	errs := []error{}
	if _, valerr := govalidator.ValidateStruct(req); valerr != nil {
		if verrs, ok := valerr.(govalidator.Errors); ok {
			errs = append(errs, verrs.Errors()...)
		} else {
			errs = append(errs, valerr)
		}
	}
	if len(req.Items) == 0 {
		errs = append(errs, errors.New("items:Order must contain at least one item"))
	} else if len(req.Items) > maxOrderLines {
		errs = append(errs, errors.New(fmt.Sprintf("items:Order cannot contain more than %d items", maxOrderLines)))
	}
	for _, item := range req.Items {
		if _, valerr := govalidator.ValidateStruct(item); valerr != nil {
			if verrs, ok := valerr.(govalidator.Errors); ok {
				errs = append(errs, verrs.Errors()...)
			} else {
				errs = append(errs, valerr)
			}
		}
	}
	if len(errs) > 0 {
		return errors.GenerateValidationErrorResponse(errs)
	}
	return nil
}
