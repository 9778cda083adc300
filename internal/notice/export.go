package notice

import "encoding/json"

// ExportRecord is one notice in the JSONL backup format.
type ExportRecord struct {
	// Header detection field - true only for header line
	BoardExport bool `json:"_clinicboard_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	ID            string          `json:"id"`
	Category      *string         `json:"category"`
	Title         string          `json:"title"`
	Content       json.RawMessage `json:"content"`
	ContentFormat Format          `json:"content_format"`
	HTMLContent   string          `json:"html_content,omitempty"` // only kept when content is absent
	Status        Status          `json:"status"`
	Pinned        bool            `json:"pinned"`
	ViewCount     int64           `json:"view_count"`
	Author        *string         `json:"author"`
	CreatedAt     int64           `json:"created_at"`
	UpdatedAt     int64           `json:"updated_at"`
	PublishedAt   *int64          `json:"published_at"`
	DeletedAt     *int64          `json:"deleted_at"`
}

// ExportSchemaVersion is written to the header line of every export.
const ExportSchemaVersion = "1.0"

// ToExportRecord converts a Notice for export. Derived fields are left out
// and recomputed on import.
func (n *Notice) ToExportRecord() ExportRecord {
	rec := ExportRecord{
		ID:            n.ID,
		Category:      n.CategorySlug,
		Title:         n.Title,
		ContentFormat: n.ContentFormat,
		Status:        n.Status,
		Pinned:        n.Pinned,
		ViewCount:     n.ViewCount,
		Author:        n.Author,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
		PublishedAt:   n.PublishedAt,
		DeletedAt:     n.DeletedAt,
	}
	if len(n.Content) > 0 {
		rec.Content = json.RawMessage(n.Content)
	} else {
		rec.HTMLContent = n.HTMLContent
	}
	return rec
}

// ToNotice converts an ExportRecord back to a Notice. Category is resolved by
// the caller; HTMLContent and PlainText are recomputed by the caller.
func (r *ExportRecord) ToNotice() *Notice {
	n := &Notice{
		ID:            r.ID,
		CategorySlug:  r.Category,
		Title:         NormalizeTitle(r.Title),
		ContentFormat: r.ContentFormat,
		HTMLContent:   r.HTMLContent,
		Status:        r.Status,
		Pinned:        r.Pinned,
		ViewCount:     r.ViewCount,
		Author:        r.Author,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		PublishedAt:   r.PublishedAt,
		DeletedAt:     r.DeletedAt,
	}
	if !isBlank(r.Content) {
		n.Content = []byte(r.Content)
	}
	if n.Status == "" {
		n.Status = StatusDraft
	}
	return n
}
