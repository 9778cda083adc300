package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// CreateCategoryInput contains parameters for the CreateCategory operation.
type CreateCategoryInput struct {
	Slug          string // required
	Name          string // required
	DescriptionMD string
	SortOrder     int
}

// CreateCategory adds a category. Slugs are normalized and must be unique.
func CreateCategory(ctx context.Context, database *sql.DB, input CreateCategoryInput) (*notice.Category, error) {
	slug := notice.NormalizeSlug(input.Slug)
	if !notice.ValidSlug(slug) {
		return nil, errors.NewInvalidRequest("slug must be 1-63 characters of a-z, 0-9 and '-'")
	}
	name := notice.NormalizeTitle(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}

	c := &notice.Category{
		Slug:          slug,
		Name:          name,
		DescriptionMD: strings.TrimSpace(input.DescriptionMD),
		SortOrder:     input.SortOrder,
		CreatedAt:     time.Now().Unix(),
	}
	if err := db.InsertCategory(ctx, database, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategoriesOutput contains the result of the ListCategories operation.
type ListCategoriesOutput struct {
	Items []notice.Category `json:"items"`
}

// ListCategories returns every category with its published notice count.
func ListCategories(ctx context.Context, database *sql.DB) (*ListCategoriesOutput, error) {
	cats, err := db.ListCategories(ctx, database)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []notice.Category{}
	}
	return &ListCategoriesOutput{Items: cats}, nil
}

// GetCategory returns a category by slug.
func GetCategory(ctx context.Context, database *sql.DB, slug string) (*notice.Category, error) {
	slug = notice.NormalizeSlug(slug)
	if slug == "" {
		return nil, errors.NewInvalidRequest("slug is required")
	}
	return db.GetCategoryBySlug(ctx, database, slug)
}
