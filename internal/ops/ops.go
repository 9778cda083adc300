package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
	"github.com/hanul-clinic/clinicboard/internal/tree"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// page clamps limit and offset to the given bounds.
func page(limit, offset, def, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, max(offset, 0)
}

func newPagination(limit, offset, returned, total int) Pagination {
	return Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+returned < total,
		Total:   total,
	}
}

// NoticeDetail is the admin view of a single notice.
type NoticeDetail struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Category      *string         `json:"category,omitempty"`
	CategoryName  *string         `json:"category_name,omitempty"`
	Content       json.RawMessage `json:"content,omitempty"`
	ContentFormat notice.Format   `json:"content_format,omitempty"`
	HTMLContent   string          `json:"html_content"`
	PlainText     string          `json:"plain_text,omitempty"`
	Status        notice.Status   `json:"status"`
	Pinned        bool            `json:"pinned"`
	ViewCount     int64           `json:"view_count"`
	Author        *string         `json:"author,omitempty"`
	CreatedAt     int64           `json:"created_at"`
	UpdatedAt     int64           `json:"updated_at"`
	PublishedAt   *int64          `json:"published_at,omitempty"`
	DeletedAt     *int64          `json:"deleted_at,omitempty"`
}

func toDetail(n *notice.Notice, includeContent bool) *NoticeDetail {
	d := &NoticeDetail{
		ID:            n.ID,
		Title:         n.Title,
		Category:      n.CategorySlug,
		CategoryName:  n.CategoryName,
		ContentFormat: n.ContentFormat,
		HTMLContent:   n.HTMLContent,
		Status:        n.Status,
		Pinned:        n.Pinned,
		ViewCount:     n.ViewCount,
		Author:        n.Author,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
		PublishedAt:   n.PublishedAt,
		DeletedAt:     n.DeletedAt,
	}
	if includeContent {
		// Rows written before validation may hold broken JSON; those are left out.
		if json.Valid(n.Content) {
			d.Content = json.RawMessage(n.Content)
		}
		d.PlainText = n.PlainText
	}
	return d
}

// renderOptions maps config onto tree rendering options.
func renderOptions(cfg *config.Config) tree.Options {
	if cfg == nil {
		return tree.Options{}
	}
	return tree.Options{MaxDepth: cfg.RenderMaxDepth}
}

// derived holds the parsed content of a write and its cached renderings.
type derived struct {
	raw       []byte
	format    notice.Format
	html      string
	plainText string
}

// prepareContent validates size, parses the document and renders it once.
// Unparseable content is reported as INVALID_CONTENT.
func prepareContent(cfg *config.Config, raw []byte, formatHint string) (*derived, error) {
	if cfg != nil && cfg.NoticeMaxBytes > 0 && len(raw) > cfg.NoticeMaxBytes {
		return nil, errors.NewContentTooLarge(cfg.NoticeMaxBytes, len(raw))
	}

	hint, ok := notice.ParseFormat(formatHint)
	if !ok {
		return nil, errors.NewInvalidRequest("content_format must be one of: delta, tree")
	}

	content, err := notice.ParseContent(raw, hint)
	if err != nil {
		return nil, errors.NewInvalidContent(err)
	}

	canonical, err := content.Canonical()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return &derived{
		raw:       canonical,
		format:    content.Format,
		html:      content.HTML(renderOptions(cfg)),
		plainText: content.PlainText(),
	}, nil
}

// validateTitle normalizes a title and checks its length.
func validateTitle(cfg *config.Config, title string) (string, error) {
	title = notice.NormalizeTitle(title)
	if title == "" {
		return "", errors.NewInvalidRequest("title is required")
	}
	if cfg != nil && cfg.TitleMaxChars > 0 && notice.CountChars(title) > cfg.TitleMaxChars {
		return "", errors.NewInvalidRequest("title is too long")
	}
	return title, nil
}

// resolveCategory maps a category slug to its id. Nil or blank means none.
func resolveCategory(ctx context.Context, database *sql.DB, slug *string) (*int64, error) {
	if slug == nil {
		return nil, nil
	}
	normalized := notice.NormalizeSlug(*slug)
	if normalized == "" {
		return nil, nil
	}
	c, err := db.GetCategoryBySlug(ctx, database, normalized)
	if err != nil {
		return nil, err
	}
	return &c.ID, nil
}

// cleanOptionalString trims whitespace and converts empty strings to nil.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
