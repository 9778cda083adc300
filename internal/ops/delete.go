package ops

import (
	"context"
	"database/sql"

	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
)

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete soft-deletes a notice. It disappears from the board and from default
// listings until purged.
func Delete(ctx context.Context, database *sql.DB, id string) (*DeleteOutput, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	if err := db.SoftDelete(ctx, database, id); err != nil {
		return nil, err
	}

	return &DeleteOutput{
		Deleted: true,
		ID:      id,
	}, nil
}
