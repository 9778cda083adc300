package notice

import "github.com/hanul-clinic/clinicboard/internal/richtext"

// Summary is a notice without its content, for listings.
type Summary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	CategorySlug *string `json:"category,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`

	// Excerpt is the noise-stripped, truncated plain text
	Excerpt string `json:"excerpt"`

	Status      Status  `json:"status"`
	Pinned      bool    `json:"pinned"`
	ViewCount   int64   `json:"view_count"`
	Author      *string `json:"author,omitempty"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
	PublishedAt *int64  `json:"published_at,omitempty"`
	DeletedAt   *int64  `json:"deleted_at,omitempty"`
}

// ToSummary converts a Notice to a Summary with an excerpt of at most
// excerptChars runes.
func (n *Notice) ToSummary(excerptChars int) Summary {
	return Summary{
		ID:           n.ID,
		Title:        n.Title,
		CategorySlug: n.CategorySlug,
		CategoryName: n.CategoryName,
		Excerpt:      richtext.Excerpt(n.PlainText, excerptChars),
		Status:       n.Status,
		Pinned:       n.Pinned,
		ViewCount:    n.ViewCount,
		Author:       n.Author,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
		PublishedAt:  n.PublishedAt,
		DeletedAt:    n.DeletedAt,
	}
}
