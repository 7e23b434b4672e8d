// Menu repository encapsulates the data access logic (interactions with the DB) related to the Menu in Saffron.

package menu

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
	// ListMenu returns every menu item sorted by category then name.
	ListMenu(ctx context.Context, logger log.Logger) ([]entity.MenuItem, error)
	// GetMenuItem returns the menu item with id if exists.
	GetMenuItem(ctx context.Context, logger log.Logger, id string) (entity.MenuItem, error)
	// SetMenuItem saves item into the DB, skipping the existence check when itemExistCheck is true.
	SetMenuItem(ctx context.Context, logger log.Logger, item entity.MenuItem, itemExistCheck bool) (bool, error)
	// UpdateMenuItem applies fn to the stored item with id.
	UpdateMenuItem(ctx context.Context, logger log.Logger, id string, fn func(*entity.MenuItem) error) (entity.MenuItem, error)
	// CountMenu returns the number of stored menu items.
	CountMenu(ctx context.Context, logger log.Logger) (int, error)
}

// repository struct of menu Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	items *db.Collection[entity.MenuItem]
}

// Returns a new instance of menu repository for other packages to access its interface.
func NewRepository(store db.Store) Repository {
	return repository{items: db.NewCollection[entity.MenuItem](store, "menu")}
}

func (r repository) ListMenu(ctx context.Context, logger log.Logger) ([]entity.MenuItem, error) {
	records, dberr := r.items.All(ctx)
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during reading menu collection in menu.ListMenu")
		return nil, errors.InternalServerError("")
	}
	items := make([]entity.MenuItem, 0, len(records))
	for _, item := range records {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (r repository) GetMenuItem(ctx context.Context, logger log.Logger, id string) (entity.MenuItem, error) {
	item, dberr := r.items.Get(ctx, id)
	if goerrors.Is(dberr, db.ErrNotFound) {
		return item, errors.NotFound("Menu item not available")
	} else if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during reading menu collection in menu.GetMenuItem")
		return item, errors.InternalServerError("")
	}
	return item, nil
}

func (r repository) SetMenuItem(ctx context.Context, logger log.Logger, item entity.MenuItem, itemExistCheck bool) (bool, error) {
	if !itemExistCheck {
		_, err := r.GetMenuItem(ctx, logger, item.ID)
		if err == nil {
			return false, errors.Conflict("Menu item already exists")
		} else if resp, ok := err.(errors.ErrorResponse); !ok || resp.Status != 404 {
			return false, err
		}
	}
	if dberr := r.items.Put(ctx, item.ID, item); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during writing menu collection in menu.SetMenuItem")
		return false, errors.InternalServerError("")
	}
	return true, nil
}

func (r repository) UpdateMenuItem(ctx context.Context, logger log.Logger, id string, fn func(*entity.MenuItem) error) (entity.MenuItem, error) {
	item, dberr := r.items.Update(ctx, id, fn)
	if goerrors.Is(dberr, db.ErrNotFound) {
		return item, errors.NotFound("Menu item not available")
	} else if dberr != nil {
		if resp, ok := dberr.(errors.ErrorResponse); ok {
			return item, resp
		}
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during writing menu collection in menu.UpdateMenuItem")
		return item, errors.InternalServerError("")
	}
	return item, nil
}

func (r repository) CountMenu(ctx context.Context, logger log.Logger) (int, error) {
	n, dberr := r.items.Len(ctx)
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during reading menu collection in menu.CountMenu")
		return 0, errors.InternalServerError("")
	}
	return n, nil
}
