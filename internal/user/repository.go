// User repository encapsulates the data access logic (interactions with the DB) related to admin Users in Saffron.

package user

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/pkg/db"
	"Saffron/pkg/log"
	"context"
	goerrors "errors"
)

type Repository interface {
	// GetUser returns the user with username if exists.
	GetUser(ctx context.Context, logger log.Logger, username string) (entity.User, error)
	// SetOrUpdateUser saves user into the DB, skipping the existence check when userExistCheck is true.
	SetOrUpdateUser(ctx context.Context, logger log.Logger, user entity.User, userExistCheck bool) (bool, error)
	// HasUser returns a boolean depending on user's availability.
	HasUser(ctx context.Context, logger log.Logger, username string) (bool, error)
}

// repository struct of user Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	users *db.Collection[entity.User]
}

// Returns a new instance of repository for other packages to access its interface.
func NewRepository(store db.Store) Repository {
	return repository{users: db.NewCollection[entity.User](store, "users")}
}

// Returns the user data object if user with the given username is found in the DB.
func (r repository) GetUser(ctx context.Context, logger log.Logger, username string) (entity.User, error) {
	user, dberr := r.users.Get(ctx, username)
	if goerrors.Is(dberr, db.ErrNotFound) {
		// User not available
		return user, errors.NotFound("User not available")
	} else if dberr != nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during reading users collection in user.GetUser")
		return user, errors.InternalServerError("")
	}
	return user, nil
}

// Returns true if user got successfully added or updated into the DB.
func (r repository) SetOrUpdateUser(ctx context.Context, logger log.Logger, ue entity.User, userExistCheck bool) (bool, error) {
	if !userExistCheck {
		// Checking if an user with username ue.username exists in the DB
		available, dberr := r.HasUser(ctx, logger, ue.Username)
		if dberr != nil {
			// Issues in HasUser()
			return false, dberr
		} else if available {
			return false, errors.BadRequest("User already exists")
		}
	}
	if dberr := r.users.Put(ctx, ue.Username, ue); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during writing users collection in user.SetOrUpdateUser")
		return false, errors.InternalServerError("")
	}
	return true, nil
}

// Returns true if user with the given username exists in Saffron.
func (r repository) HasUser(ctx context.Context, logger log.Logger, username string) (bool, error) {
	_, err := r.GetUser(ctx, logger, username)
	if err == nil {
		return true, nil
	}
	if resp, ok := err.(errors.ErrorResponse); ok && resp.Status == 404 {
		return false, nil
	}
	return false, err
}
