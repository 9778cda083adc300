package ops

import (
	"context"
	"database/sql"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Category       *string // optional category slug
	Status         *string // optional: draft or published
	IncludeDeleted bool
	Limit          int // default: 20, max: 100
	Offset         int // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []notice.Summary `json:"items"`
	Pagination Pagination       `json:"pagination"`
	Sort       string           `json:"sort"`
}

// ListSort names the listing order: pinned first, then newest.
const ListSort = "pinned_then_newest"

// List retrieves notice summaries with excerpts.
func List(ctx context.Context, database *sql.DB, cfg *config.Config, input ListInput) (*ListOutput, error) {
	filters, err := buildFilters(input.Category, input.Status, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	limit, offset := page(input.Limit, input.Offset, DefaultListLimit, MaxListLimit)

	notices, total, err := db.ListNotices(ctx, database, filters, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]notice.Summary, len(notices))
	for i, n := range notices {
		items[i] = n.ToSummary(excerptChars(cfg))
	}

	return &ListOutput{
		Items:      items,
		Pagination: newPagination(limit, offset, len(items), total),
		Sort:       ListSort,
	}, nil
}

// buildFilters validates the shared list and search filters.
func buildFilters(category, status *string, includeDeleted bool) (db.ListFilters, error) {
	filters := db.ListFilters{IncludeDeleted: includeDeleted}

	if category = cleanOptionalString(category); category != nil {
		slug := notice.NormalizeSlug(*category)
		filters.CategorySlug = &slug
	}

	if status = cleanOptionalString(status); status != nil {
		s, ok := notice.ParseStatus(*status)
		if !ok {
			return filters, errors.NewInvalidRequest("status must be one of: draft, published")
		}
		filters.Status = &s
	}
	return filters, nil
}

func excerptChars(cfg *config.Config) int {
	if cfg == nil {
		return 0
	}
	return cfg.ExcerptMaxChars
}
