package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestNotice(id, title, plain string) *notice.Notice {
	now := time.Now().Unix()
	return &notice.Notice{
		ID:            id,
		Title:         title,
		Content:       []byte(fmt.Sprintf(`{"ops":[{"insert":%q}]}`, plain+"\n")),
		ContentFormat: notice.FormatDelta,
		HTMLContent:   "<p>" + plain + "</p>",
		PlainText:     plain,
		Status:        notice.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func stringPtr(s string) *string {
	return &s
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestInsertAndGetByID(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := newTestNotice("01TEST00000000000000000001", "진료 시간 안내", "평일 9시부터")
	n.Author = stringPtr("원무과")
	n.Pinned = true
	if err := Insert(ctx, db, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := GetByID(ctx, db, n.ID, false)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != n.Title {
		t.Errorf("Title = %q, want %q", got.Title, n.Title)
	}
	if string(got.Content) != string(n.Content) {
		t.Errorf("Content = %s, want %s", got.Content, n.Content)
	}
	if got.ContentFormat != notice.FormatDelta {
		t.Errorf("ContentFormat = %q, want delta", got.ContentFormat)
	}
	if got.HTMLContent != n.HTMLContent || got.PlainText != n.PlainText {
		t.Errorf("cached fields not round-tripped: %q / %q", got.HTMLContent, got.PlainText)
	}
	if !got.Pinned {
		t.Error("Pinned = false, want true")
	}
	if got.Author == nil || *got.Author != "원무과" {
		t.Errorf("Author = %v, want 원무과", got.Author)
	}
	if got.CategoryID != nil || got.CategorySlug != nil {
		t.Errorf("expected no category, got %v / %v", got.CategoryID, got.CategorySlug)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupDB(t)

	_, err := GetByID(context.Background(), db, "missing", false)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want NOT_FOUND", err)
	}
}

func TestInsert_UniqueConstraint(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := newTestNotice("01TEST00000000000000000001", "a", "a")
	if err := Insert(ctx, db, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := Insert(ctx, db, n); err != ErrUniqueConstraint {
		t.Errorf("second Insert() error = %v, want ErrUniqueConstraint", err)
	}
}

func TestGetPublished(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	draft := newTestNotice("01TEST00000000000000000001", "draft", "d")
	if err := Insert(ctx, db, draft); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := GetPublished(ctx, db, draft.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("draft should not be public, got err = %v", err)
	}

	if _, err := SetStatus(ctx, db, draft.ID, notice.StatusPublished); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if _, err := GetPublished(ctx, db, draft.ID); err != nil {
		t.Errorf("published notice not found: %v", err)
	}

	if err := SoftDelete(ctx, db, draft.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}
	if _, err := GetPublished(ctx, db, draft.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("deleted notice should not be public, got err = %v", err)
	}
}

func TestSetStatus_KeepsFirstPublishedAt(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := newTestNotice("01TEST00000000000000000001", "t", "t")
	n.PublishedAt = int64Ptr(1000)
	if err := Insert(ctx, db, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := SetStatus(ctx, db, n.ID, notice.StatusPublished)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if got.PublishedAt == nil || *got.PublishedAt != 1000 {
		t.Errorf("PublishedAt = %v, want 1000", got.PublishedAt)
	}

	got, err = SetStatus(ctx, db, n.ID, notice.StatusDraft)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if got.Status != notice.StatusDraft {
		t.Errorf("Status = %q, want draft", got.Status)
	}
	if got.PublishedAt == nil || *got.PublishedAt != 1000 {
		t.Errorf("PublishedAt after unpublish = %v, want 1000", got.PublishedAt)
	}
}

func TestSetStatus_SetsPublishedAt(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := newTestNotice("01TEST00000000000000000001", "t", "t")
	if err := Insert(ctx, db, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	got, err := SetStatus(ctx, db, n.ID, notice.StatusPublished)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if got.PublishedAt == nil {
		t.Error("PublishedAt not set on first publish")
	}
}

func TestUpdateByID_LastWriteWins(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := newTestNotice("01TEST00000000000000000001", "original", "body")
	if err := Insert(ctx, db, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	first, _ := GetByID(ctx, db, n.ID, false)
	second, _ := GetByID(ctx, db, n.ID, false)

	first.Title = "from session A"
	if err := UpdateByID(ctx, db, first); err != nil {
		t.Fatalf("UpdateByID(A) error = %v", err)
	}
	second.Title = "from session B"
	if err := UpdateByID(ctx, db, second); err != nil {
		t.Fatalf("UpdateByID(B) error = %v", err)
	}

	got, err := GetByID(ctx, db, n.ID, false)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "from session B" {
		t.Errorf("Title = %q, want the last write", got.Title)
	}
}

func TestUpdateByID_NotFound(t *testing.T) {
	db := setupDB(t)

	err := UpdateByID(context.Background(), db, newTestNotice("missing", "t", "t"))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("UpdateByID() error = %v, want NOT_FOUND", err)
	}
}

func TestUpdateDerived_KeepsUpdatedAt(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := newTestNotice("01TEST00000000000000000001", "t", "old")
	n.UpdatedAt = 42
	if err := Insert(ctx, db, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := UpdateDerived(ctx, db, n.ID, "<p>new</p>", "new"); err != nil {
		t.Fatalf("UpdateDerived() error = %v", err)
	}

	got, _ := GetByID(ctx, db, n.ID, false)
	if got.HTMLContent != "<p>new</p>" || got.PlainText != "new" {
		t.Errorf("derived fields = %q / %q", got.HTMLContent, got.PlainText)
	}
	if got.UpdatedAt != 42 {
		t.Errorf("UpdatedAt = %d, want 42", got.UpdatedAt)
	}
}

func TestIncrementViewCount(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := newTestNotice("01TEST00000000000000000001", "t", "t")
	if err := Insert(ctx, db, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := IncrementViewCount(ctx, db, n.ID); err != nil {
			t.Fatalf("IncrementViewCount() error = %v", err)
		}
	}
	got, _ := GetByID(ctx, db, n.ID, false)
	if got.ViewCount != 3 {
		t.Errorf("ViewCount = %d, want 3", got.ViewCount)
	}

	// Unknown ids are not an error.
	if err := IncrementViewCount(ctx, db, "missing"); err != nil {
		t.Errorf("IncrementViewCount(missing) error = %v", err)
	}
}

func TestSoftDelete(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := newTestNotice("01TEST00000000000000000001", "t", "t")
	if err := Insert(ctx, db, n); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := SoftDelete(ctx, db, n.ID); err != nil {
		t.Fatalf("SoftDelete() error = %v", err)
	}

	if _, err := GetByID(ctx, db, n.ID, false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("deleted notice returned without includeDeleted: %v", err)
	}
	got, err := GetByID(ctx, db, n.ID, true)
	if err != nil {
		t.Fatalf("GetByID(includeDeleted) error = %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt not set")
	}

	if err := SoftDelete(ctx, db, n.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second SoftDelete() error = %v, want NOT_FOUND", err)
	}
}

func TestPurgeDeleted(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	old := newTestNotice("01TEST00000000000000000001", "old", "o")
	old.DeletedAt = int64Ptr(100)
	recent := newTestNotice("01TEST00000000000000000002", "recent", "r")
	recent.DeletedAt = int64Ptr(time.Now().Unix())
	active := newTestNotice("01TEST00000000000000000003", "active", "a")
	for _, n := range []*notice.Notice{old, recent, active} {
		if err := Insert(ctx, db, n); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	purged, err := PurgeDeleted(ctx, db, int64Ptr(1000))
	if err != nil {
		t.Fatalf("PurgeDeleted() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	purged, err = PurgeDeleted(ctx, db, nil)
	if err != nil {
		t.Fatalf("PurgeDeleted() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	if _, err := GetByID(ctx, db, active.ID, false); err != nil {
		t.Errorf("active notice was purged: %v", err)
	}

	var ftsRows int
	if err := db.QueryRow("SELECT COUNT(*) FROM notices_fts").Scan(&ftsRows); err != nil {
		t.Fatalf("count fts: %v", err)
	}
	if ftsRows != 1 {
		t.Errorf("notices_fts rows = %d, want 1", ftsRows)
	}
}

func TestUpsert(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	n := newTestNotice("01TEST00000000000000000001", "first", "one")
	if err := Upsert(ctx, db, n); err != nil {
		t.Fatalf("Upsert(insert) error = %v", err)
	}
	n.Title = "second"
	n.ViewCount = 9
	if err := Upsert(ctx, db, n); err != nil {
		t.Fatalf("Upsert(update) error = %v", err)
	}

	got, _ := GetByID(ctx, db, n.ID, false)
	if got.Title != "second" || got.ViewCount != 9 {
		t.Errorf("got %q / %d, want second / 9", got.Title, got.ViewCount)
	}
}
