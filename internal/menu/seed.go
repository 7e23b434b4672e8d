// Menu catalog seeding from the YAML file named by MENU_FILE.

package menu

import (
	"Saffron/internal/entity"
	"Saffron/pkg/log"
	"context"
	"fmt"
	"os"

	"github.com/asaskevich/govalidator"
	"gopkg.in/yaml.v3"
)

// LoadCatalog reads and validates the YAML menu catalog at path.
func LoadCatalog(path string) (entity.MenuCatalog, error) {
	var catalog entity.MenuCatalog
	body, err := os.ReadFile(path)
	if err != nil {
		return catalog, fmt.Errorf("read menu catalog: %w", err)
	}
	if err := yaml.Unmarshal(body, &catalog); err != nil {
		return catalog, fmt.Errorf("parse menu catalog %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(catalog.Items))
	for i, item := range catalog.Items {
		if _, valerr := govalidator.ValidateStruct(item); valerr != nil {
			return catalog, fmt.Errorf("menu catalog item %d (%s): %w", i, item.ID, valerr)
		}
		if _, dup := seen[item.ID]; dup {
			return catalog, fmt.Errorf("menu catalog: duplicate id %s", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return catalog, nil
}

// SeedMenu fills an empty menu collection from the catalog at path.
// A menu which already has items is left alone so admin edits survive restarts.
func SeedMenu(ctx context.Context, repo Repository, path string, logger log.Logger) (int, error) {
	count, err := repo.CountMenu(ctx, logger)
	if err != nil {
		return 0, err
	} else if count > 0 {
		logger.WithCtx(ctx).Debug().Int("items", count).Msg("Menu already seeded")
		return 0, nil
	}
	if path == "" {
		logger.WithCtx(ctx).Warn().Msg("MENU_FILE not set, menu starts empty")
		return 0, nil
	}
	catalog, err := LoadCatalog(path)
	if err != nil {
		return 0, err
	}
	for _, item := range catalog.Items {
		if _, err := repo.SetMenuItem(ctx, logger, item, true); err != nil {
			return 0, err
		}
	}
	logger.WithCtx(ctx).Info().Int("items", len(catalog.Items)).Str("file", path).Msg("Seeded menu catalog")
	return len(catalog.Items), nil
}
