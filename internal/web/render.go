package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"

	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
	"github.com/hanul-clinic/clinicboard/internal/ops"
)

// kst is the clinic's wall clock. Dates on the board are shown in it.
var kst = time.FixedZone("KST", 9*60*60)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title      string
	Version    string
	Nav        string // active category slug, or "search"
	Categories []notice.Category
}

// ListPageData is the template data for the notice list page.
type ListPageData struct {
	PageData
	Items       []notice.Summary
	Pagination  ops.Pagination
	Category    *notice.Category
	Description template.HTML
}

// DetailPageData is the template data for a single notice.
type DetailPageData struct {
	PageData
	Notice *ops.ViewOutput
	Body   template.HTML
}

// SearchPageData is the template data for the search page.
type SearchPageData struct {
	PageData
	Query      string
	Category   string
	Items      []ops.SearchResultItem
	Pagination ops.Pagination
	HasQuery   bool
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
	RetryURL   string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	metrics   *Metrics
}

// NewRenderer parses the layout and page templates from templateFS.
func NewRenderer(templateFS fs.FS, version string, metrics *Metrics) *Renderer {
	funcMap := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"formatDate": formatDate,
		"formatTime": formatTime,
		"deref":      deref,
		"hasValue":   hasValue,
		"snippet":    func(s string) template.HTML { return template.HTML(s) }, // escaped by ops.Search
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"list":   "list.html",
		"detail": "detail.html",
		"search": "search.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
		metrics:   metrics,
	}
}

func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a page with the given status. htmx requests get
// only the "content" block.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	block := "layout"
	if isHTMX(req) {
		block = "content"
	}
	r.renderBlock(w, status, name, block, data)
}

// renderBlock renders one named block of a page template.
func (r *Renderer) renderBlock(w http.ResponseWriter, status int, page, block string, data any) {
	t, ok := r.templates[page]
	if !ok {
		logrus.WithField("template", page).Error("template not found")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"template": page, "block": block}).Error("template execution failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError writes err as JSON for API and JSON-accepting clients, as an
// htmx fragment, or as a full error page. Visitors see the Korean message
// for the error code, never the internal one.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	bErr, ok := errors.As(err)
	if !ok {
		bErr = errors.NewInternal(err)
	}
	status := bErr.Status
	userMsg := errors.UserMessage(bErr)

	log := logrus.WithFields(logrus.Fields{
		"request_id": RequestID(req.Context()),
		"code":       bErr.Code,
		"status":     status,
	})
	if status >= 500 {
		log.WithError(err).Error("request failed")
	} else {
		log.Debug(bErr.Message)
	}
	if r.metrics != nil {
		r.metrics.errors.WithLabelValues(string(bErr.Code)).Inc()
	}

	if wantsJSON(req) {
		message := bErr.Message
		if status >= 500 {
			message = "internal error"
		}
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":         string(bErr.Code),
				"message":      message,
				"user_message": userMsg,
				"status":       status,
				"details":      bErr.Details,
			},
		})
		return
	}

	// Only failures on our side are worth retrying.
	var retry string
	if errors.Retryable(bErr) {
		retry = req.URL.RequestURI()
	}
	if isHTMX(req) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		link := ""
		if retry != "" {
			link = fmt.Sprintf(` <a href="%s">다시 시도</a>`, template.HTMLEscapeString(retry))
		}
		fmt.Fprintf(w, `<div class="error-message" role="alert">%s%s</div>`,
			template.HTMLEscapeString(userMsg), link)
		return
	}

	r.renderBlock(w, status, "error", "layout", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("오류 %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    userMsg,
		RetryURL:   retry,
	})
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func isHTMX(req *http.Request) bool {
	return req != nil && req.Header.Get("HX-Request") == "true"
}

func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.URL.Path, "/api/") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderMarkdown converts a category description to sanitized HTML.
func renderMarkdown(s *Sanitizer, md string) template.HTML {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return s.HTML(buf.String())
}

// formatDate formats a Unix timestamp as a board date in KST.
func formatDate(unix int64) string {
	return time.Unix(unix, 0).In(kst).Format("2006.01.02")
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" KST.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).In(kst).Format("2006-01-02 15:04")
}

// deref dereferences a pointer, returning the zero value if nil.
func deref(v any) any {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(rv.Type().Elem()).Interface()
		}
		return rv.Elem().Interface()
	}
	return v
}

// hasValue reports whether a pointer is non-nil.
func hasValue(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		return !rv.IsNil()
	}
	return true
}
