package ops

import (
	"context"
	"database/sql"

	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID             string
	IncludeDeleted bool
	IncludeContent *bool // default: true (nil means default)
}

// Fetch retrieves a notice by ID for staff, drafts included.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*NoticeDetail, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	n, err := db.GetByID(ctx, database, input.ID, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	includeContent := true
	if input.IncludeContent != nil {
		includeContent = *input.IncludeContent
	}
	return toDetail(n, includeContent), nil
}
