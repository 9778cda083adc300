package ops

import (
	"context"
	"database/sql"

	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// SetStatusOutput contains the result of a publish or unpublish.
type SetStatusOutput struct {
	ID          string        `json:"id"`
	Status      notice.Status `json:"status"`
	PublishedAt *int64        `json:"published_at,omitempty"`
}

// Publish makes a notice visible on the public board.
func Publish(ctx context.Context, database *sql.DB, id string) (*SetStatusOutput, error) {
	return setStatus(ctx, database, id, notice.StatusPublished)
}

// Unpublish returns a notice to draft. Its first publish time is kept.
func Unpublish(ctx context.Context, database *sql.DB, id string) (*SetStatusOutput, error) {
	return setStatus(ctx, database, id, notice.StatusDraft)
}

func setStatus(ctx context.Context, database *sql.DB, id string, status notice.Status) (*SetStatusOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	n, err := db.SetStatus(ctx, database, id, status)
	if err != nil {
		return nil, err
	}

	return &SetStatusOutput{
		ID:          n.ID,
		Status:      n.Status,
		PublishedAt: n.PublishedAt,
	}, nil
}
