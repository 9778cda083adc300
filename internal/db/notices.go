package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = &errors.BoardError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// noticeColumns is the full column list read by scanNotice.
const noticeColumns = `
	n.id, n.category_id, c.slug, c.name, n.title, n.content, n.content_format,
	n.html_content, n.plain_text, n.status, n.pinned, n.view_count, n.author,
	n.created_at, n.updated_at, n.published_at, n.deleted_at`

// summaryColumns omits content and html_content; plain_text is kept for excerpts.
const summaryColumns = `
	n.id, n.category_id, c.slug, c.name, n.title, n.content_format,
	n.plain_text, n.status, n.pinned, n.view_count, n.author,
	n.created_at, n.updated_at, n.published_at, n.deleted_at`

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const noticeFrom = `
	FROM notices n
	LEFT JOIN categories c ON c.id = n.category_id`

// Insert stores a new notice.
func Insert(ctx context.Context, db Execer, n *notice.Notice) error {
	query := `
		INSERT INTO notices (
			id, category_id, title, content, content_format, html_content, plain_text,
			status, pinned, view_count, author, created_at, updated_at, published_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		n.ID, toNullInt64(n.CategoryID), n.Title, toNullBytes(n.Content), string(n.ContentFormat),
		n.HTMLContent, n.PlainText, string(n.Status), n.Pinned, n.ViewCount,
		toNullString(n.Author), n.CreatedAt, n.UpdatedAt,
		toNullInt64(n.PublishedAt), toNullInt64(n.DeletedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// Upsert inserts a notice or overwrites every column of the row with the same id.
func Upsert(ctx context.Context, db Execer, n *notice.Notice) error {
	query := `
		INSERT INTO notices (
			id, category_id, title, content, content_format, html_content, plain_text,
			status, pinned, view_count, author, created_at, updated_at, published_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			title = excluded.title,
			content = excluded.content,
			content_format = excluded.content_format,
			html_content = excluded.html_content,
			plain_text = excluded.plain_text,
			status = excluded.status,
			pinned = excluded.pinned,
			view_count = excluded.view_count,
			author = excluded.author,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			published_at = excluded.published_at,
			deleted_at = excluded.deleted_at
	`

	_, err := db.ExecContext(ctx, query,
		n.ID, toNullInt64(n.CategoryID), n.Title, toNullBytes(n.Content), string(n.ContentFormat),
		n.HTMLContent, n.PlainText, string(n.Status), n.Pinned, n.ViewCount,
		toNullString(n.Author), n.CreatedAt, n.UpdatedAt,
		toNullInt64(n.PublishedAt), toNullInt64(n.DeletedAt),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a notice by its ULID.
// If includeDeleted is false, soft-deleted notices are excluded.
func GetByID(ctx context.Context, db Querier, id string, includeDeleted bool) (*notice.Notice, error) {
	query := `SELECT ` + noticeColumns + noticeFrom + ` WHERE n.id = ?`
	if !includeDeleted {
		query += " AND n.deleted_at IS NULL"
	}

	n, err := scanNotice(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("notice", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return n, nil
}

// GetPublished retrieves a notice that is visible on the public board.
func GetPublished(ctx context.Context, db *sql.DB, id string) (*notice.Notice, error) {
	query := `SELECT ` + noticeColumns + noticeFrom + `
		WHERE n.id = ? AND n.status = 'published' AND n.deleted_at IS NULL`

	n, err := scanNotice(db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("notice", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return n, nil
}

// UpdateByID overwrites the editable fields of a notice. There is no version
// check: the last write wins. Sets updated_at to the current timestamp.
func UpdateByID(ctx context.Context, db *sql.DB, n *notice.Notice) error {
	now := time.Now().Unix()

	query := `
		UPDATE notices
		SET category_id = ?, title = ?, content = ?, content_format = ?,
			html_content = ?, plain_text = ?, status = ?, pinned = ?, author = ?,
			published_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.ExecContext(ctx, query,
		toNullInt64(n.CategoryID), n.Title, toNullBytes(n.Content), string(n.ContentFormat),
		n.HTMLContent, n.PlainText, string(n.Status), n.Pinned, toNullString(n.Author),
		toNullInt64(n.PublishedAt), now,
		n.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := expectRow(result, n.ID); err != nil {
		return err
	}

	n.UpdatedAt = now
	return nil
}

// UpdateDerived replaces the cached html_content and plain_text of a notice.
// updated_at is left alone: recomputing the cache is not an edit.
func UpdateDerived(ctx context.Context, db *sql.DB, id, htmlContent, plainText string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE notices SET html_content = ?, plain_text = ? WHERE id = ?`,
		htmlContent, plainText, id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return expectRow(result, id)
}

// SetStatus changes the publication status. published_at is set on the first
// publish and kept afterwards.
func SetStatus(ctx context.Context, db *sql.DB, id string, status notice.Status) (*notice.Notice, error) {
	now := time.Now().Unix()

	query := `
		UPDATE notices
		SET status = ?,
			published_at = CASE WHEN ? = 'published' THEN COALESCE(published_at, ?) ELSE published_at END,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := db.ExecContext(ctx, query, string(status), string(status), now, now, id)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := expectRow(result, id); err != nil {
		return nil, err
	}
	return GetByID(ctx, db, id, false)
}

// IncrementViewCount adds one view. Concurrent increments are atomic at the
// statement level; callers treat failures as non-fatal.
func IncrementViewCount(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `UPDATE notices SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// SoftDelete marks a notice as deleted by setting deleted_at.
func SoftDelete(ctx context.Context, db *sql.DB, id string) error {
	now := time.Now().Unix()

	result, err := db.ExecContext(ctx,
		`UPDATE notices SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return expectRow(result, id)
}

// PurgeDeleted permanently removes soft-deleted notices. When deletedBefore is
// non-nil only notices deleted before that Unix timestamp are removed.
func PurgeDeleted(ctx context.Context, db *sql.DB, deletedBefore *int64) (int, error) {
	query := `DELETE FROM notices WHERE deleted_at IS NOT NULL`
	var args []any
	if deletedBefore != nil {
		query += ` AND deleted_at < ?`
		args = append(args, *deletedBefore)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(n), nil
}

func expectRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound("notice", id)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanNotice scans a row selected with noticeColumns.
func scanNotice(row scanner) (*notice.Notice, error) {
	var (
		n           notice.Notice
		categoryID  sql.NullInt64
		slug        sql.NullString
		name        sql.NullString
		content     sql.NullString
		format      string
		status      string
		author      sql.NullString
		publishedAt sql.NullInt64
		deletedAt   sql.NullInt64
	)

	err := row.Scan(
		&n.ID, &categoryID, &slug, &name, &n.Title, &content, &format,
		&n.HTMLContent, &n.PlainText, &status, &n.Pinned, &n.ViewCount, &author,
		&n.CreatedAt, &n.UpdatedAt, &publishedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if content.Valid && content.String != "" {
		n.Content = []byte(content.String)
	}
	n.ContentFormat = notice.Format(format)
	n.Status = notice.Status(status)
	n.CategoryID = fromNullInt64(categoryID)
	n.CategorySlug = fromNullString(slug)
	n.CategoryName = fromNullString(name)
	n.Author = fromNullString(author)
	n.PublishedAt = fromNullInt64(publishedAt)
	n.DeletedAt = fromNullInt64(deletedAt)
	return &n, nil
}

// scanSummary scans a row selected with summaryColumns.
func scanSummary(row scanner) (*notice.Notice, error) {
	var (
		n           notice.Notice
		categoryID  sql.NullInt64
		slug        sql.NullString
		name        sql.NullString
		format      string
		status      string
		author      sql.NullString
		publishedAt sql.NullInt64
		deletedAt   sql.NullInt64
	)

	err := row.Scan(
		&n.ID, &categoryID, &slug, &name, &n.Title, &format,
		&n.PlainText, &status, &n.Pinned, &n.ViewCount, &author,
		&n.CreatedAt, &n.UpdatedAt, &publishedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	n.ContentFormat = notice.Format(format)
	n.Status = notice.Status(status)
	n.CategoryID = fromNullInt64(categoryID)
	n.CategorySlug = fromNullString(slug)
	n.CategoryName = fromNullString(name)
	n.Author = fromNullString(author)
	n.PublishedAt = fromNullInt64(publishedAt)
	n.DeletedAt = fromNullInt64(deletedAt)
	return &n, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

// toNullBytes stores JSON content as TEXT, or NULL when absent.
func toNullBytes(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
