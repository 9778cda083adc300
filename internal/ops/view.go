package ops

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// ViewOutput is a published notice as shown to visitors.
type ViewOutput struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Category     *string `json:"category,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`

	// HTML is the cached rendering. It has not been sanitized for display.
	HTML string `json:"html"`

	Pinned      bool    `json:"pinned"`
	ViewCount   int64   `json:"view_count"`
	Author      *string `json:"author,omitempty"`
	PublishedAt *int64  `json:"published_at,omitempty"`
	UpdatedAt   int64   `json:"updated_at"`
}

// View returns a published notice and counts the view. Counting is best
// effort: a failed increment is logged and the page is still served.
func View(ctx context.Context, database *sql.DB, cfg *config.Config, id string) (*ViewOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	n, err := db.GetPublished(ctx, database, id)
	if err != nil {
		return nil, err
	}

	if err := db.IncrementViewCount(ctx, database, n.ID); err != nil {
		logrus.WithError(err).WithField("notice_id", n.ID).Warn("view count not recorded")
	} else {
		n.ViewCount++
	}

	html := n.HTMLContent
	if html == "" && len(n.Content) > 0 {
		html = renderStored(ctx, database, cfg, n)
	}

	return &ViewOutput{
		ID:           n.ID,
		Title:        n.Title,
		Category:     n.CategorySlug,
		CategoryName: n.CategoryName,
		HTML:         html,
		Pinned:       n.Pinned,
		ViewCount:    n.ViewCount,
		Author:       n.Author,
		PublishedAt:  n.PublishedAt,
		UpdatedAt:    n.UpdatedAt,
	}, nil
}

// renderStored renders content whose cache is missing and writes the cache
// back. Malformed content degrades to empty output.
func renderStored(ctx context.Context, database *sql.DB, cfg *config.Config, n *notice.Notice) string {
	log := logrus.WithFields(logrus.Fields{
		"notice_id": n.ID,
		"format":    n.ContentFormat,
	})

	content, err := notice.ParseContent(n.Content, n.ContentFormat)
	if err != nil {
		log.WithError(err).Warn("stored content is malformed; rendering empty body")
		return ""
	}

	html := content.HTML(renderOptions(cfg))
	if err := db.UpdateDerived(ctx, database, n.ID, html, content.PlainText()); err != nil {
		log.WithError(err).Warn("rendered content not cached")
	}
	return html
}
