package ops

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// UpdateInput contains parameters for the Update operation.
type UpdateInput struct {
	ID string // required

	// Editable fields (nil = don't change)
	Title         *string
	Content       json.RawMessage // nil = don't change; JSON null clears the body
	ContentFormat string
	Category      *string // "" removes the category
	Status        *string
	Pinned        *bool
	Author        *string
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID        string        `json:"id"`
	Status    notice.Status `json:"status"`
	UpdatedAt int64         `json:"updated_at"`
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Content == nil && in.Category == nil &&
		in.Status == nil && in.Pinned == nil && in.Author == nil
}

// Update modifies an existing notice. Concurrent edits are not detected: the
// last write wins.
func Update(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateInput) (*UpdateOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.empty() {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	n, err := db.GetByID(ctx, database, input.ID, false)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := validateTitle(cfg, *input.Title)
		if err != nil {
			return nil, err
		}
		n.Title = title
	}

	if input.Content != nil {
		content, err := prepareContent(cfg, input.Content, input.ContentFormat)
		if err != nil {
			return nil, err
		}
		n.Content = content.raw
		n.ContentFormat = content.format
		n.HTMLContent = content.html
		n.PlainText = content.plainText
	}

	if input.Category != nil {
		n.CategoryID, err = resolveCategory(ctx, database, input.Category)
		if err != nil {
			return nil, err
		}
	}

	if input.Status != nil {
		status, ok := notice.ParseStatus(*input.Status)
		if !ok {
			return nil, errors.NewInvalidRequest("status must be one of: draft, published")
		}
		n.Status = status
		if status == notice.StatusPublished && n.PublishedAt == nil {
			now := time.Now().Unix()
			n.PublishedAt = &now
		}
	}

	if input.Pinned != nil {
		n.Pinned = *input.Pinned
	}

	if input.Author != nil {
		n.Author = cleanOptionalString(input.Author)
	}

	if err := db.UpdateByID(ctx, database, n); err != nil {
		return nil, err
	}

	return &UpdateOutput{
		ID:        n.ID,
		Status:    n.Status,
		UpdatedAt: n.UpdatedAt,
	}, nil
}
