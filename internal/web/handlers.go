package web

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
	"github.com/hanul-clinic/clinicboard/internal/ops"
)

// Handlers contains HTTP route handlers for the board and the admin API.
type Handlers struct {
	db        *sql.DB
	cfg       *config.Config
	renderer  *Renderer
	sanitizer *Sanitizer
	metrics   *Metrics
}

const published = string(notice.StatusPublished)

// pageData fills the shared layout fields. The category nav is best effort.
func (h *Handlers) pageData(r *http.Request, title, nav string) PageData {
	pd := PageData{Title: title, Version: h.renderer.version, Nav: nav}
	if cats, err := ops.ListCategories(r.Context(), h.db); err == nil {
		pd.Categories = cats.Items
	}
	return pd
}

// HandleList handles GET /notices, the published notices of the board,
// optionally within one category.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("category")

	data := ListPageData{PageData: h.pageData(r, "공지사항", slug)}
	if slug != "" {
		c, err := ops.GetCategory(r.Context(), h.db, slug)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Category = c
		data.Title = c.Name
		data.Description = renderMarkdown(h.sanitizer, c.DescriptionMD)
	}

	status := published
	result, err := ops.List(r.Context(), h.db, h.cfg, ops.ListInput{
		Category: ptrString(slug),
		Status:   &status,
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	data.Items = result.Items
	data.Pagination = result.Pagination

	h.renderer.renderPage(w, r, "list", data)
}

// HandleSearch handles GET /notices/search, full-text search over published
// notices.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")

	data := SearchPageData{
		PageData: h.pageData(r, "공지 검색", "search"),
		Query:    query,
		Category: category,
		HasQuery: query != "",
	}

	if query != "" {
		status := published
		result, err := ops.Search(r.Context(), h.db, h.cfg, ops.SearchInput{
			Query:    query,
			Category: ptrString(category),
			Status:   &status,
			Limit:    parseIntParam(r, "limit", ops.DefaultSearchLimit),
			Offset:   parseIntParam(r, "offset", 0),
		})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Items = result.Items
		data.Pagination = result.Pagination
	}

	// htmx swaps only the result list while typing
	if r.Header.Get("HX-Target") == "results" {
		h.renderer.renderBlock(w, http.StatusOK, "search", "search-results", data)
		return
	}
	h.renderer.renderPage(w, r, "search", data)
}

// HandleDetail handles GET /notices/{id}, one published notice. Each
// successful request counts as a view.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	n, err := ops.View(r.Context(), h.db, h.cfg, r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.metrics.views.Inc()

	nav := ""
	if n.Category != nil {
		nav = *n.Category
	}
	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: h.pageData(r, n.Title, nav),
		Notice:   n,
		Body:     h.sanitizer.HTML(n.HTML),
	})
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.renderer.renderError(w, r, errors.NewInternal(err))
		return
	}
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

// ptrString returns a pointer to s if non-empty, nil otherwise.
func ptrString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
