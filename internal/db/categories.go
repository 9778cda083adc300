package db

import (
	"context"
	"database/sql"

	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// InsertCategory stores a new category and sets c.ID.
func InsertCategory(ctx context.Context, db *sql.DB, c *notice.Category) error {
	result, err := db.ExecContext(ctx,
		`INSERT INTO categories (slug, name, description_md, sort_order, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.Slug, c.Name, c.DescriptionMD, c.SortOrder, c.CreatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewSlugAlreadyExists(c.Slug)
		}
		return errors.NewInternal(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return errors.NewInternal(err)
	}
	c.ID = id
	return nil
}

// GetCategoryBySlug retrieves a category by slug.
func GetCategoryBySlug(ctx context.Context, db *sql.DB, slug string) (*notice.Category, error) {
	var c notice.Category
	err := db.QueryRowContext(ctx,
		`SELECT id, slug, name, description_md, sort_order, created_at FROM categories WHERE slug = ?`,
		slug,
	).Scan(&c.ID, &c.Slug, &c.Name, &c.DescriptionMD, &c.SortOrder, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("category", slug)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &c, nil
}

// ListCategories returns all categories ordered for display, each with the
// number of published, non-deleted notices.
func ListCategories(ctx context.Context, db *sql.DB) ([]notice.Category, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.slug, c.name, c.description_md, c.sort_order, c.created_at,
			(SELECT COUNT(*) FROM notices n
			 WHERE n.category_id = c.id AND n.status = 'published' AND n.deleted_at IS NULL)
		FROM categories c
		ORDER BY c.sort_order, c.name
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []notice.Category
	for rows.Next() {
		var c notice.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.DescriptionMD, &c.SortOrder, &c.CreatedAt, &c.NoticeCount); err != nil {
			return nil, errors.NewInternal(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
