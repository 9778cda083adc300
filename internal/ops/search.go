package ops

import (
	"context"
	"database/sql"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// Search limits
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
	MaxQueryLength     = db.MaxSearchQueryChars
	MaxSnippetChars    = 300
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query          string  // required
	Category       *string // optional category slug
	Status         *string // optional filter
	Limit          int     // default: 20, max: 100
	Offset         int     // default: 0
	IncludeDeleted bool
}

// SearchResultItem wraps a notice summary with a match snippet.
type SearchResultItem struct {
	notice.Summary
	// Snippet is HTML-safe: notice text is escaped; only <b>...</b>
	// highlight tags are present.
	Snippet string `json:"snippet"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Query      string             `json:"query"`
	Pagination Pagination         `json:"pagination"`
	Sort       string             `json:"sort"` // "relevance"
}

// Search performs full-text search over notice titles and bodies.
// Results are ranked by relevance (BM25) with title matches weighted 5x higher.
func Search(ctx context.Context, database *sql.DB, cfg *config.Config, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", MaxQueryLength))
	}

	filters, err := buildFilters(input.Category, input.Status, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	limit, offset := page(input.Limit, input.Offset, DefaultSearchLimit, MaxSearchLimit)

	results, total, err := db.SearchFullText(ctx, database, query, filters, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]SearchResultItem, len(results))
	for i, r := range results {
		// Escape first so truncation only ever sees our own <b> tags.
		snippet := escapeSnippetHTML(r.Snippet)
		snippet = truncateSnippet(snippet, MaxSnippetChars)

		items[i] = SearchResultItem{
			Summary: r.Notice.ToSummary(excerptChars(cfg)),
			Snippet: snippet,
		}
	}

	return &SearchOutput{
		Items:      items,
		Query:      query,
		Pagination: newPagination(limit, offset, len(items), total),
		Sort:       "relevance",
	}, nil
}

// truncateSnippet cuts an escaped snippet to maxRunes runes. A tag or entity
// split by the cut is dropped and open <b> tags are closed.
func truncateSnippet(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return "..."
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	cut := s
	for i := range s {
		if maxRunes == 0 {
			cut = s[:i]
			break
		}
		maxRunes--
	}

	if i := strings.LastIndexByte(cut, '<'); i >= 0 && !strings.Contains(cut[i:], ">") {
		cut = cut[:i]
	}
	if i := strings.LastIndexByte(cut, '&'); i >= 0 && !strings.Contains(cut[i:], ";") {
		cut = cut[:i]
	}
	if open := strings.Count(cut, "<b>") - strings.Count(cut, "</b>"); open > 0 {
		cut += strings.Repeat("</b>", open)
	}
	return cut + "..."
}

// escapeSnippetHTML escapes notice text in an FTS5 snippet and turns the
// db highlight markers into <b> tags. Notice text may contain markup typed
// by staff; nothing but the highlight tags survives unescaped.
func escapeSnippetHTML(s string) string {
	const (
		openPlaceholder  = "\x00CB_B_OPEN\x00"
		closePlaceholder = "\x00CB_B_CLOSE\x00"
	)

	s = strings.ReplaceAll(s, db.SnippetOpenMarker, openPlaceholder)
	s = strings.ReplaceAll(s, db.SnippetCloseMarker, closePlaceholder)

	s = html.EscapeString(s)

	s = strings.ReplaceAll(s, openPlaceholder, "<b>")
	s = strings.ReplaceAll(s, closePlaceholder, "</b>")

	return s
}
