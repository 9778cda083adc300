package ops

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
)

func TestView_PublishedOnly(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()
	id := mustStore(t, database, cfg, StoreInput{Title: "t", Content: json.RawMessage(holidayDelta)})

	if _, err := View(ctx, database, cfg, id); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("draft view error = %v, want NOT_FOUND", err)
	}

	if _, err := Publish(ctx, database, id); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	out, err := View(ctx, database, cfg, id)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if out.HTML == "" {
		t.Error("HTML should be served from the cache")
	}
	if out.PublishedAt == nil {
		t.Error("PublishedAt missing")
	}
}

func TestView_CountsViews(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()
	id := mustStore(t, database, cfg, StoreInput{Title: "t", Status: "published"})

	for i := 1; i <= 3; i++ {
		out, err := View(ctx, database, cfg, id)
		if err != nil {
			t.Fatalf("View failed: %v", err)
		}
		if out.ViewCount != int64(i) {
			t.Errorf("view %d: ViewCount = %d", i, out.ViewCount)
		}
	}
}

func TestView_RerendersMissingCache(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()
	id := mustStore(t, database, cfg, StoreInput{Title: "t", Content: json.RawMessage(hoursTree), Status: "published"})

	if err := db.UpdateDerived(ctx, database, id, "", ""); err != nil {
		t.Fatalf("UpdateDerived failed: %v", err)
	}

	out, err := View(ctx, database, cfg, id)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	want := "<h2>진료 시간</h2><p>평일 오전 9시 - 오후 6시</p>"
	if out.HTML != want {
		t.Errorf("HTML = %q, want %q", out.HTML, want)
	}

	n, _ := db.GetByID(ctx, database, id, false)
	if n.HTMLContent != want || n.PlainText == "" {
		t.Error("re-rendered output was not written back to the cache")
	}
}

func TestView_MalformedContentDegrades(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()

	now := time.Now().Unix()
	n := &notice.Notice{
		ID:            "01BROKEN000000000000000001",
		Title:         "깨진 본문",
		Content:       []byte(`{"ops":[{"insert":`),
		ContentFormat: notice.FormatDelta,
		Status:        notice.StatusPublished,
		CreatedAt:     now,
		UpdatedAt:     now,
		PublishedAt:   &now,
	}
	if err := db.Insert(ctx, database, n); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	out, err := View(ctx, database, cfg, n.ID)
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if out.HTML != "" {
		t.Errorf("HTML = %q, want empty output", out.HTML)
	}
	if out.Title != "깨진 본문" {
		t.Errorf("Title = %q", out.Title)
	}
}

func TestView_Deleted(t *testing.T) {
	database, cfg := setupOps(t)
	ctx := context.Background()
	id := mustStore(t, database, cfg, StoreInput{Title: "t", Status: "published"})
	if _, err := Delete(ctx, database, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := View(ctx, database, cfg, id); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}
