package web

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/ops"
)

// bodySlack is allowed on top of the content size limit for the other
// fields of a request body.
const bodySlack = 64 * 1024

// noticeBody is the JSON body of POST /api/notices and PUT /api/notices/{id}.
// Pointer fields distinguish "absent" from "empty" for updates.
type noticeBody struct {
	Title         *string         `json:"title"`
	Content       json.RawMessage `json:"content"`
	ContentFormat string          `json:"content_format"`
	Category      *string         `json:"category"`
	Status        *string         `json:"status"`
	Pinned        *bool           `json:"pinned"`
	Author        *string         `json:"author"`
}

// decodeBody reads a JSON request body into dst.
func (h *Handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	limit := int64(bodySlack)
	if h.cfg != nil && h.cfg.NoticeMaxBytes > 0 {
		limit += int64(h.cfg.NoticeMaxBytes)
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			return errors.NewContentTooLarge(int(limit), int(limit)+1)
		case stderrors.Is(err, io.EOF):
			return errors.NewInvalidRequest("request body is required")
		default:
			return errors.NewInvalidRequest(fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	return nil
}

// HandleAPIList handles GET /api/notices, the admin listing with drafts.
func (h *Handlers) HandleAPIList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := ops.List(r.Context(), h.db, h.cfg, ops.ListInput{
		Category:       ptrString(q.Get("category")),
		Status:         ptrString(q.Get("status")),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
		Limit:          parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:         parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIStore handles POST /api/notices.
func (h *Handlers) HandleAPIStore(w http.ResponseWriter, r *http.Request) {
	var body noticeBody
	if err := h.decodeBody(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	input := ops.StoreInput{
		Content:       body.Content,
		ContentFormat: body.ContentFormat,
		Category:      body.Category,
		Author:        body.Author,
	}
	if body.Title != nil {
		input.Title = *body.Title
	}
	if body.Status != nil {
		input.Status = *body.Status
	}
	if body.Pinned != nil {
		input.Pinned = *body.Pinned
	}

	result, err := ops.Store(r.Context(), h.db, h.cfg, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/notices/"+result.ID)
	renderJSON(w, http.StatusCreated, result)
}

// HandleAPIFetch handles GET /api/notices/{id}.
func (h *Handlers) HandleAPIFetch(w http.ResponseWriter, r *http.Request) {
	input := ops.FetchInput{
		ID:             r.PathValue("id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	}
	if s := r.URL.Query().Get("include_content"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("include_content must be a boolean"))
			return
		}
		input.IncludeContent = &b
	}

	result, err := ops.Fetch(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIUpdate handles PUT /api/notices/{id}. Absent fields are kept.
func (h *Handlers) HandleAPIUpdate(w http.ResponseWriter, r *http.Request) {
	var body noticeBody
	if err := h.decodeBody(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Update(r.Context(), h.db, h.cfg, ops.UpdateInput{
		ID:            r.PathValue("id"),
		Title:         body.Title,
		Content:       body.Content,
		ContentFormat: body.ContentFormat,
		Category:      body.Category,
		Status:        body.Status,
		Pinned:        body.Pinned,
		Author:        body.Author,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIDelete handles DELETE /api/notices/{id}, a soft delete.
func (h *Handlers) HandleAPIDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.db, r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIPublish handles POST /api/notices/{id}/publish.
func (h *Handlers) HandleAPIPublish(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Publish(r.Context(), h.db, r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIUnpublish handles POST /api/notices/{id}/unpublish.
func (h *Handlers) HandleAPIUnpublish(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Unpublish(r.Context(), h.db, r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIPreview handles POST /api/preview: the editor's document
// rendered as Store would, without saving. The HTML is sanitized as the
// board would show it.
func (h *Handlers) HandleAPIPreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content       json.RawMessage `json:"content"`
		ContentFormat string          `json:"content_format"`
	}
	if err := h.decodeBody(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.Preview(h.cfg, ops.PreviewInput{Content: body.Content, ContentFormat: body.ContentFormat})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	result.HTML = string(h.sanitizer.HTML(result.HTML))
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIListCategories handles GET /api/categories.
func (h *Handlers) HandleAPIListCategories(w http.ResponseWriter, r *http.Request) {
	result, err := ops.ListCategories(r.Context(), h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPICreateCategory handles POST /api/categories.
func (h *Handlers) HandleAPICreateCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Slug          string `json:"slug"`
		Name          string `json:"name"`
		DescriptionMD string `json:"description_md"`
		SortOrder     int    `json:"sort_order"`
	}
	if err := h.decodeBody(w, r, &body); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	result, err := ops.CreateCategory(r.Context(), h.db, ops.CreateCategoryInput{
		Slug:          body.Slug,
		Name:          body.Name,
		DescriptionMD: body.DescriptionMD,
		SortOrder:     body.SortOrder,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusCreated, result)
}

// HandleAPIRebuild handles POST /api/rebuild.
func (h *Handlers) HandleAPIRebuild(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Rebuild(r.Context(), h.db, h.cfg)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}

// HandleAPIPurge handles POST /api/purge?confirm=true[&older_than_days=N],
// permanently deleting soft-deleted notices.
func (h *Handlers) HandleAPIPurge(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}
	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest(`confirm parameter must be "true"`))
		return
	}

	var input ops.PurgeInput
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	renderJSON(w, http.StatusOK, result)
}
