package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// MaxSearchQueryChars bounds the length of a full-text query.
const MaxSearchQueryChars = 200

// ListFilters narrows list and search queries. Nil fields do not filter.
type ListFilters struct {
	CategorySlug   *string
	Status         *notice.Status
	IncludeDeleted bool
}

// where renders the filter as SQL conditions joined with AND, with args.
func (f ListFilters) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.CategorySlug != nil {
		conds = append(conds, "c.slug = ?")
		args = append(args, *f.CategorySlug)
	}
	if f.Status != nil {
		conds = append(conds, "n.status = ?")
		args = append(args, string(*f.Status))
	}
	if !f.IncludeDeleted {
		conds = append(conds, "n.deleted_at IS NULL")
	}
	if len(conds) == 0 {
		return "1 = 1", nil
	}
	return strings.Join(conds, " AND "), args
}

// listOrder lists pinned notices first, then newest by publish (or creation) time.
const listOrder = ` ORDER BY n.pinned DESC, COALESCE(n.published_at, n.created_at) DESC, n.id DESC`

// ListNotices returns notices without content columns, plus the total count
// matching the filters.
func ListNotices(ctx context.Context, db *sql.DB, filters ListFilters, limit, offset int) ([]*notice.Notice, int, error) {
	where, args := filters.where()

	var total int
	countQuery := `SELECT COUNT(*)` + noticeFrom + ` WHERE ` + where
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + summaryColumns + noticeFrom + ` WHERE ` + where + listOrder + ` LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	items := make([]*notice.Notice, 0, limit)
	for rows.Next() {
		n, err := scanSummary(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return items, total, nil
}

// SearchResult is a notice row with an FTS5 match snippet.
type SearchResult struct {
	Notice *notice.Notice

	// Snippet contains raw text with [[[B]]]/[[[/B]]] highlight markers.
	// Callers must escape it before emitting HTML.
	Snippet string
}

// Highlight markers placed by snippet(); never valid user input.
const (
	SnippetOpenMarker  = "[[[B]]]"
	SnippetCloseMarker = "[[[/B]]]"
)

// SearchFullText runs an FTS5 query over title and plain_text. Title matches
// rank five times higher than body matches.
func SearchFullText(ctx context.Context, db *sql.DB, query string, filters ListFilters, limit, offset int) ([]SearchResult, int, error) {
	match := BuildMatchQuery(query)
	if match == "" {
		return nil, 0, nil
	}
	where, args := filters.where()
	args = append([]any{match}, args...)

	from := `
		FROM notices_fts
		JOIN notices n ON n.id = notices_fts.notice_id
		LEFT JOIN categories c ON c.id = n.category_id
		WHERE notices_fts MATCH ? AND ` + where

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	q := `SELECT ` + summaryColumns + `,
			snippet(notices_fts, -1, '` + SnippetOpenMarker + `', '` + SnippetCloseMarker + `', '...', 24)` +
		from + `
		ORDER BY bm25(notices_fts, 0.0, 5.0, 1.0), n.created_at DESC
		LIMIT ? OFFSET ?`

	rows, err := db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			res     SearchResult
			snippet sql.NullString
		)
		n, err := scanSummary(scanFunc(func(dest ...any) error {
			return rows.Scan(append(dest, &snippet)...)
		}))
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		res.Notice = n
		res.Snippet = snippet.String
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return results, total, nil
}

// scanFunc adapts a closure to the scanner interface.
type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

// BuildMatchQuery turns free text into an FTS5 query: every whitespace
// separated term becomes a quoted prefix match, and all terms must match.
// Prefix matching lets "휴진" find "휴진을" and "휴진일".
func BuildMatchQuery(query string) string {
	terms := strings.Fields(query)
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, `""`)
		parts = append(parts, `"`+t+`"*`)
	}
	return strings.Join(parts, " ")
}
