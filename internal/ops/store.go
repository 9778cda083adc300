package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// StoreInput contains parameters for the Store operation.
type StoreInput struct {
	Title string // required

	// Content is the editor document: a delta ({"ops":[...]}) or a content tree
	Content json.RawMessage

	// ContentFormat is "delta", "tree", or empty to detect from Content
	ContentFormat string

	Category *string // optional category slug
	Status   string  // default: draft
	Pinned   bool
	Author   *string
}

// StoreOutput contains the result of the Store operation.
type StoreOutput struct {
	ID          string        `json:"id"`
	Status      notice.Status `json:"status"`
	PublishedAt *int64        `json:"published_at,omitempty"`
}

// Store validates, renders and inserts a new notice.
func Store(ctx context.Context, database *sql.DB, cfg *config.Config, input StoreInput) (*StoreOutput, error) {
	title, err := validateTitle(cfg, input.Title)
	if err != nil {
		return nil, err
	}

	status, ok := notice.ParseStatus(input.Status)
	if !ok {
		return nil, errors.NewInvalidRequest("status must be one of: draft, published")
	}

	content, err := prepareContent(cfg, input.Content, input.ContentFormat)
	if err != nil {
		return nil, err
	}

	categoryID, err := resolveCategory(ctx, database, input.Category)
	if err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	now := time.Now().Unix()
	n := &notice.Notice{
		ID:            id,
		CategoryID:    categoryID,
		Title:         title,
		Content:       content.raw,
		ContentFormat: content.format,
		HTMLContent:   content.html,
		PlainText:     content.plainText,
		Status:        status,
		Pinned:        input.Pinned,
		Author:        cleanOptionalString(input.Author),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == notice.StatusPublished {
		n.PublishedAt = &now
	}

	if err := db.Insert(ctx, database, n); err != nil {
		return nil, err
	}

	return &StoreOutput{
		ID:          id,
		Status:      n.Status,
		PublishedAt: n.PublishedAt,
	}, nil
}

// entropy is shared so ids generated within one millisecond still sort in
// creation order.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
