package notice

// Status is the publication state of a notice.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ParseStatus validates a status string. An empty string is accepted as draft.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case "", StatusDraft:
		return StatusDraft, true
	case StatusPublished:
		return StatusPublished, true
	}
	return "", false
}

// Notice is an announcement shown on the clinic board.
type Notice struct {
	// ID is a ULID that uniquely identifies this notice
	ID string

	// CategoryID references categories.id (nullable)
	CategoryID *int64

	// CategorySlug and CategoryName are joined from categories when loaded
	CategorySlug *string
	CategoryName *string

	// Title is the headline shown in listings
	Title string

	// Content is the editor document as stored (delta or tree JSON)
	Content []byte

	// ContentFormat tags which shape Content holds
	ContentFormat Format

	// HTMLContent is the rendered content, computed once at write time
	HTMLContent string

	// PlainText is the extracted text, computed once at write time
	PlainText string

	Status Status

	// Pinned notices are listed before all others
	Pinned bool

	// ViewCount is a best-effort counter of public detail views
	ViewCount int64

	// Author is the staff member who wrote the notice (nullable)
	Author *string

	// CreatedAt is the Unix timestamp when the notice was created
	CreatedAt int64

	// UpdatedAt is the Unix timestamp when the notice was last updated
	UpdatedAt int64

	// PublishedAt is set on first publish and kept across unpublish (nullable)
	PublishedAt *int64

	// DeletedAt is the Unix timestamp for soft delete (nullable)
	DeletedAt *int64
}

// IsPublished reports whether the notice is visible on the public board.
func (n *Notice) IsPublished() bool {
	return n.Status == StatusPublished && n.DeletedAt == nil
}

// Category groups notices on the board (e.g. 진료 안내, 휴진 안내).
type Category struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`

	// DescriptionMD is an optional Markdown blurb shown above the listing
	DescriptionMD string `json:"description_md,omitempty"`

	SortOrder int   `json:"sort_order"`
	CreatedAt int64 `json:"created_at"`

	// NoticeCount is filled by listing queries (published, not deleted)
	NoticeCount int `json:"notice_count"`
}
