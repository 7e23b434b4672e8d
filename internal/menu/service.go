// Service layer of the internal package menu.

package menu

import (
	"Saffron/internal/entity"
	"Saffron/internal/errors"
	"Saffron/pkg/log"
	"context"
	"strings"

	"github.com/asaskevich/govalidator"
)

// Service layer of internal package menu which encapsulates menu logic of Saffron.
type Service interface {
	// Lists the menu, optionally filtered by category
	listmenu(ctx context.Context, category string) ([]entity.MenuItem, error)
	// Fetches a single menu item
	getmenuitem(ctx context.Context, id string) (entity.MenuItem, error)
	// Adds a new menu item
	createmenuitem(ctx context.Context, item entity.MenuItem) (entity.MenuItem, error)
	// Toggles availability of a menu item
	setavailability(ctx context.Context, id string, available bool) (entity.MenuItem, error)
	// AttachImage points the menu item at an uploaded image
	AttachImage(ctx context.Context, id, image string) (entity.MenuItem, error)
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// Also helps to pass objects to be used from outer layer.
type service struct {
	menuRepo Repository
	logger   log.Logger
}

func NewService(menuRepo Repository, logger log.Logger) Service {
	return service{menuRepo, logger}
}

func (s service) listmenu(ctx context.Context, category string) ([]entity.MenuItem, error) {
	items, err := s.menuRepo.ListMenu(ctx, s.logger)
	if err != nil || category == "" {
		return items, err
	}
	filtered := []entity.MenuItem{}
	for _, item := range items {
		if strings.EqualFold(item.Category, category) {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (s service) getmenuitem(ctx context.Context, id string) (entity.MenuItem, error) {
	return s.menuRepo.GetMenuItem(ctx, s.logger, id)
}

func (s service) createmenuitem(ctx context.Context, item entity.MenuItem) (entity.MenuItem, error) {
	item.ID = strings.TrimSpace(strings.ToLower(item.ID))
	if _, valerr := govalidator.ValidateStruct(item); valerr != nil {
		if errs, ok := valerr.(govalidator.Errors); ok {
			return item, errors.GenerateValidationErrorResponse(errs.Errors())
		}
		return item, errors.BadRequest("")
	}
	if _, err := s.menuRepo.SetMenuItem(ctx, s.logger, item, false); err != nil {
		return item, err
	}
	s.logger.WithCtx(ctx).Info().Str("menu_item_id", item.ID).Msg("Menu item created")
	return item, nil
}

func (s service) setavailability(ctx context.Context, id string, available bool) (entity.MenuItem, error) {
	return s.menuRepo.UpdateMenuItem(ctx, s.logger, id, func(item *entity.MenuItem) error {
		item.Available = available
		return nil
	})
}

func (s service) AttachImage(ctx context.Context, id, image string) (entity.MenuItem, error) {
	item, err := s.menuRepo.UpdateMenuItem(ctx, s.logger, id, func(item *entity.MenuItem) error {
		item.Image = image
		return nil
	})
	if err == nil {
		s.logger.WithCtx(ctx).Info().Str("menu_item_id", id).Str("image", image).Msg("Menu item image attached")
	}
	return item, err
}
