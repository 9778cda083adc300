package ops

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
	"github.com/hanul-clinic/clinicboard/internal/richtext"
)

// RebuildOutput contains the result of the Rebuild operation.
type RebuildOutput struct {
	Total   int `json:"total"`
	Rebuilt int `json:"rebuilt"`

	// Legacy counts rows with only stored HTML; their plain text was
	// re-extracted from the HTML.
	Legacy int `json:"legacy"`

	// Failed lists ids whose content could not be parsed. Their cache is left as is.
	Failed []string `json:"failed"`
}

// Rebuild recomputes html_content and plain_text for every notice from its
// stored content, deleted notices included.
func Rebuild(ctx context.Context, database *sql.DB, cfg *config.Config) (*RebuildOutput, error) {
	sources, err := db.ListSources(ctx, database)
	if err != nil {
		return nil, err
	}

	out := &RebuildOutput{Total: len(sources), Failed: []string{}}
	opts := renderOptions(cfg)

	for _, src := range sources {
		select {
		case <-ctx.Done():
			return nil, errors.NewCancelled("rebuild")
		default:
		}

		var html, plain string
		switch {
		case len(src.Content) > 0:
			content, err := notice.ParseContent(src.Content, src.ContentFormat)
			if err != nil {
				logrus.WithError(err).WithField("notice_id", src.ID).Warn("rebuild skipped malformed content")
				out.Failed = append(out.Failed, src.ID)
				continue
			}
			html = content.HTML(opts)
			plain = content.PlainText()
		case src.HTMLContent != "":
			html = src.HTMLContent
			plain = richtext.FromHTML(src.HTMLContent)
			out.Legacy++
		}

		if err := db.UpdateDerived(ctx, database, src.ID, html, plain); err != nil {
			return nil, err
		}
		out.Rebuilt++
	}

	return out, nil
}
