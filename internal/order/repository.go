// Order repository encapsulates the data access logic (interactions with the DB) related to Orders in Saffron.

package order

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/pkg/db"
	"Saffron/pkg/log"
	"context"
	goerrors "errors"
	"sort"
)

type Repository interface {
	// SetOrder saves o into the DB, replacing any order with the same id.
	SetOrder(ctx context.Context, logger log.Logger, o entity.Order) error
	// GetOrder returns the order with id if exists.
	GetOrder(ctx context.Context, logger log.Logger, id string) (entity.Order, error)
	// ListOrders returns orders newest first, narrowed down to phone when it isn't empty.
	ListOrders(ctx context.Context, logger log.Logger, phone string) ([]entity.Order, error)
	// UpdateOrder applies fn to the stored order with id, an error from fn aborts the update.
	UpdateOrder(ctx context.Context, logger log.Logger, id string, fn func(*entity.Order) error) (entity.Order, error)
}

// repository struct of order Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	orders *db.Collection[entity.Order]
}

// Returns a new instance of order repository for other packages to access its interface.
func NewRepository(store db.Store) Repository {
	return repository{orders: db.NewCollection[entity.Order](store, "orders")}
}

func (r repository) SetOrder(ctx context.Context, logger log.Logger, o entity.Order) error {
	if dberr := r.orders.Put(ctx, o.ID, o); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during writing orders collection in order.SetOrder")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) GetOrder(ctx context.Context, logger log.Logger, id string) (entity.Order, error) {
	o, dberr := r.orders.Get(ctx, id)
	if goerrors.Is(dberr, db.ErrNotFound) {
		return o, errors.NotFound("Order not found")
	} else if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during reading orders collection in order.GetOrder")
		return o, errors.InternalServerError("")
	}
	return o, nil
}

func (r repository) ListOrders(ctx context.Context, logger log.Logger, phone string) ([]entity.Order, error) {
	records, dberr := r.orders.All(ctx)
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during reading orders collection in order.ListOrders")
		return nil, errors.InternalServerError("")
	}
	orders := make([]entity.Order, 0, len(records))
	for _, o := range records {
		if phone == "" || o.Phone == phone {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (r repository) UpdateOrder(ctx context.Context, logger log.Logger, id string, fn func(*entity.Order) error) (entity.Order, error) {
	o, dberr := r.orders.Update(ctx, id, fn)
	if goerrors.Is(dberr, db.ErrNotFound) {
		return o, errors.NotFound("Order not found")
	} else if dberr != nil {
		if resp, ok := dberr.(errors.ErrorResponse); ok {
			// Rejected by fn
			return o, resp
		}
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during writing orders collection in order.UpdateOrder")
		return o, errors.InternalServerError("")
	}
	return o, nil
}
