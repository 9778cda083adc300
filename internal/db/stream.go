package db

import (
	"context"
	"database/sql"

	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// StreamForExport calls fn for every notice in creation order. Iteration
// stops at the first error returned by fn.
func StreamForExport(ctx context.Context, db *sql.DB, includeDeleted bool, fn func(*notice.Notice) error) error {
	query := `SELECT ` + noticeColumns + noticeFrom
	if !includeDeleted {
		query += ` WHERE n.deleted_at IS NULL`
	}
	query += ` ORDER BY n.created_at, n.id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer rows.Close()

	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return errors.NewInternal(err)
		}
		if err := fn(n); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// SourceRow is the stored source of a notice, as needed to recompute its cache.
type SourceRow struct {
	ID            string
	Content       []byte
	ContentFormat notice.Format
	HTMLContent   string
}

// ListSources returns the source columns of every notice, deleted included.
// Rows are fully read before returning so callers may write while iterating.
func ListSources(ctx context.Context, db *sql.DB) ([]SourceRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, content, content_format, html_content FROM notices ORDER BY created_at, id`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var (
			r       SourceRow
			content sql.NullString
			format  string
		)
		if err := rows.Scan(&r.ID, &content, &format, &r.HTMLContent); err != nil {
			return nil, errors.NewInternal(err)
		}
		if content.Valid && content.String != "" {
			r.Content = []byte(content.String)
		}
		r.ContentFormat = notice.Format(format)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}
