// Reservation repository encapsulates the data access logic (interactions with the DB) related to table reservations in Saffron.

package reservation

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
	// SetReservation saves r into the DB, replacing any reservation with the same id.
	SetReservation(ctx context.Context, logger log.Logger, r entity.Reservation) error
	// GetReservation returns the reservation with id if exists.
	GetReservation(ctx context.Context, logger log.Logger, id string) (entity.Reservation, error)
	// ListReservations returns reservations newest first, narrowed down to phone when it isn't empty.
	ListReservations(ctx context.Context, logger log.Logger, phone string) ([]entity.Reservation, error)
	// UpdateReservation applies fn to the stored reservation with id.
	UpdateReservation(ctx context.Context, logger log.Logger, id string, fn func(*entity.Reservation) error) (entity.Reservation, error)
	// CreateReservation saves r unless its phone already holds a pending or confirmed table for the same date.
	CreateReservation(ctx context.Context, logger log.Logger, r entity.Reservation) error
}

// repository struct of reservation Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	reservations *db.Collection[entity.Reservation]
}

// Returns a new instance of reservation repository for other packages to access its interface.
func NewRepository(store db.Store) Repository {
	return repository{reservations: db.NewCollection[entity.Reservation](store, "reservations")}
}

func (r repository) SetReservation(ctx context.Context, logger log.Logger, res entity.Reservation) error {
	if dberr := r.reservations.Put(ctx, res.ID, res); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during writing reservations collection in reservation.SetReservation")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) GetReservation(ctx context.Context, logger log.Logger, id string) (entity.Reservation, error) {
	res, dberr := r.reservations.Get(ctx, id)
	if goerrors.Is(dberr, db.ErrNotFound) {
		return res, errors.NotFound("Reservation not found")
	} else if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during reading reservations collection in reservation.GetReservation")
		return res, errors.InternalServerError("")
	}
	return res, nil
}

func (r repository) ListReservations(ctx context.Context, logger log.Logger, phone string) ([]entity.Reservation, error) {
	records, dberr := r.reservations.All(ctx)
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during reading reservations collection in reservation.ListReservations")
		return nil, errors.InternalServerError("")
	}
	list := make([]entity.Reservation, 0, len(records))
	for _, res := range records {
		if phone == "" || res.Phone == phone {
			list = append(list, res)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r repository) UpdateReservation(ctx context.Context, logger log.Logger, id string, fn func(*entity.Reservation) error) (entity.Reservation, error) {
	res, dberr := r.reservations.Update(ctx, id, fn)
	if goerrors.Is(dberr, db.ErrNotFound) {
		return res, errors.NotFound("Reservation not found")
	} else if dberr != nil {
		if resp, ok := dberr.(errors.ErrorResponse); ok {
			return res, resp
		}
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during writing reservations collection in reservation.UpdateReservation")
		return res, errors.InternalServerError("")
	}
	return res, nil
}

// The check and the insert run under the collection lock, so concurrent requests can't both pass.
func (r repository) CreateReservation(ctx context.Context, logger log.Logger, res entity.Reservation) error {
	dberr := r.reservations.PutIf(ctx, res.ID, res, func(records map[string]entity.Reservation) error {
		for _, existing := range records {
			if existing.Phone == res.Phone && existing.Date == res.Date && existing.Cancellable() {
				return errors.Conflict("A reservation for this date already exists")
			}
		}
		return nil
	})
	if dberr != nil {
		if resp, ok := dberr.(errors.ErrorResponse); ok {
			return resp
		}
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during writing reservations collection in reservation.CreateReservation")
		return errors.InternalServerError("")
	}
	return nil
}
