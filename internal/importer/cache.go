package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dentalex/api/internal/store"
	"dentalex/api/internal/util"
)

// categoryCache resolves category names to IDs for a single import run.
// It is created when the run starts and discarded when it finishes, so two
// runs never observe each other's lookups.
type categoryCache struct {
	store         categoryStore
	defaultLocale string
	byName        map[string]string
}

type categoryStore interface {
	FindCategoryByName(ctx context.Context, name string) (store.Category, error)
	InsertCategory(ctx context.Context, cat store.Category) error
}

func newCategoryCache(s categoryStore, defaultLocale string) *categoryCache {
	return &categoryCache{
		store:         s,
		defaultLocale: defaultLocale,
		byName:        make(map[string]string),
	}
}

// resolve returns the category ID for a name, creating the category with a
// single translation in the default locale when it does not exist yet.
func (c *categoryCache) resolve(ctx context.Context, name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := c.byName[key]; ok {
		return id, nil
	}

	cat, err := c.store.FindCategoryByName(ctx, name)
	if err == nil {
		c.byName[key] = cat.ID
		return cat.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("find category %q: %w", name, err)
	}

	created := store.Category{
		ID: util.NewID("cat"),
		Translations: []store.CategoryTranslation{
			{LanguageCode: c.defaultLocale, Name: strings.TrimSpace(name)},
		},
	}
	if err := c.store.InsertCategory(ctx, created); err != nil {
		return "", fmt.Errorf("create category %q: %w", name, err)
	}
	c.byName[key] = created.ID
	return created.ID, nil
}
