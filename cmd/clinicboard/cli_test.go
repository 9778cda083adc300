package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/ops"
)

const holidayDelta = `{"ops":[{"insert":"추석 연휴 "},{"insert":"휴진","attributes":{"bold":true}},{"insert":" 안내\n"}]}`

// setupTestDB creates a temporary database and config for testing.
func setupTestDB(t *testing.T) (*sql.DB, *config.Config) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	return database, cfg
}

// runCLI runs the app with args, feeding stdin when it is non-empty, and
// returns what the command wrote to stdout.
func runCLI(t *testing.T, database *sql.DB, cfg *config.Config, stdin string, args ...string) (string, error) {
	t.Helper()

	oldStdin := os.Stdin
	defer func() { os.Stdin = oldStdin }()
	if stdin != "" {
		stdinR, stdinW, err := os.Pipe()
		require.NoError(t, err)
		defer stdinR.Close()
		os.Stdin = stdinR
		go func() {
			_, _ = stdinW.WriteString(stdin)
			stdinW.Close()
		}()
	} else {
		// A character device reads as "nothing piped" whatever go test was given.
		devNull, err := os.Open(os.DevNull)
		require.NoError(t, err)
		defer devNull.Close()
		os.Stdin = devNull
	}

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	app := newCLIApp(database, cfg)
	runErr := app.Run(append([]string{"clinicboard"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), runErr
}

func mustStore(t *testing.T, database *sql.DB, cfg *config.Config, input ops.StoreInput) string {
	t.Helper()
	out, err := ops.Store(context.Background(), database, cfg, input)
	require.NoError(t, err)
	return out.ID
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    int
		expectError bool
	}{
		{name: "valid days", input: "7d", expected: 7},
		{name: "zero days", input: "0d", expected: 0},
		{name: "large number", input: "365d", expected: 365},
		{name: "negative days", input: "-7d", expectError: true},
		{name: "no suffix", input: "7", expectError: true},
		{name: "wrong suffix", input: "7h", expectError: true},
		{name: "invalid number", input: "abcd", expectError: true},
		{name: "empty string", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseDuration(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"clinicboard"}, false},
		{[]string{"clinicboard", "store"}, true},
		{[]string{"clinicboard", "serve"}, true},
		{[]string{"clinicboard", "category", "list"}, true},
		{[]string{"clinicboard", "--version"}, true},
		{[]string{"clinicboard", "bogus"}, false},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			assert.Equal(t, tt.want, isCLIMode(tt.args))
		})
	}
}

func TestCLIStore(t *testing.T) {
	database, cfg := setupTestDB(t)

	out, err := runCLI(t, database, cfg, holidayDelta,
		"store", "--title=추석 휴진 안내", "--status=published", "--author=원무과")
	require.NoError(t, err)

	var output ops.StoreOutput
	require.NoError(t, json.Unmarshal([]byte(out), &output), "output: %s", out)
	assert.NotEmpty(t, output.ID)
	assert.Equal(t, "published", string(output.Status))
	assert.NotNil(t, output.PublishedAt)

	detail, err := ops.Fetch(context.Background(), database, ops.FetchInput{ID: output.ID})
	require.NoError(t, err)
	assert.Contains(t, detail.HTMLContent, "<strong>휴진</strong>")
	require.NotNil(t, detail.Author)
	assert.Equal(t, "원무과", *detail.Author)
}

func TestCLIStore_InvalidContent(t *testing.T) {
	database, cfg := setupTestDB(t)

	_, err := runCLI(t, database, cfg, `{"blocks":[]}`, "store", "--title=t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_CONTENT")
}

func TestCLIFetch(t *testing.T) {
	database, cfg := setupTestDB(t)
	id := mustStore(t, database, cfg, ops.StoreInput{Title: "진료 시간"})

	t.Run("by id", func(t *testing.T) {
		out, err := runCLI(t, database, cfg, "", "fetch", id)
		require.NoError(t, err)

		var output ops.NoticeDetail
		require.NoError(t, json.Unmarshal([]byte(out), &output))
		assert.Equal(t, id, output.ID)
		assert.Equal(t, "진료 시간", output.Title)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := runCLI(t, database, cfg, "", "fetch")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INVALID_REQUEST")
	})
}

func TestCLIUpdate(t *testing.T) {
	database, cfg := setupTestDB(t)
	id := mustStore(t, database, cfg, ops.StoreInput{Title: "추석 휴진", Content: json.RawMessage(holidayDelta)})

	_, err := runCLI(t, database, cfg, "", "update", id, "--title=추석 연휴 휴진 안내", "--pinned")
	require.NoError(t, err)

	detail, err := ops.Fetch(context.Background(), database, ops.FetchInput{ID: id})
	require.NoError(t, err)
	assert.Equal(t, "추석 연휴 휴진 안내", detail.Title)
	assert.True(t, detail.Pinned)
	assert.Contains(t, detail.HTMLContent, "휴진")

	_, err = runCLI(t, database, cfg, "", "update", id, "--clear-content")
	require.NoError(t, err)

	detail, err = ops.Fetch(context.Background(), database, ops.FetchInput{ID: id})
	require.NoError(t, err)
	assert.Empty(t, detail.HTMLContent)
}

func TestCLIPublishDelete(t *testing.T) {
	database, cfg := setupTestDB(t)
	id := mustStore(t, database, cfg, ops.StoreInput{Title: "임시 공지"})

	out, err := runCLI(t, database, cfg, "", "publish", id)
	require.NoError(t, err)
	var status ops.SetStatusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "published", string(status.Status))

	out, err = runCLI(t, database, cfg, "", "unpublish", id)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "draft", string(status.Status))

	out, err = runCLI(t, database, cfg, "", "delete", id)
	require.NoError(t, err)
	var deleted ops.DeleteOutput
	require.NoError(t, json.Unmarshal([]byte(out), &deleted))
	assert.True(t, deleted.Deleted)
	assert.Equal(t, id, deleted.ID)

	out, err = runCLI(t, database, cfg, "", "purge")
	require.NoError(t, err)
	var purged ops.PurgeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &purged))
	assert.Equal(t, 1, purged.Purged)
}

func TestCLIPurge_InvalidDuration(t *testing.T) {
	database, cfg := setupTestDB(t)

	_, err := runCLI(t, database, cfg, "", "purge", "--older-than=7h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestCLIListSearch(t *testing.T) {
	database, cfg := setupTestDB(t)
	mustStore(t, database, cfg, ops.StoreInput{Title: "추석 휴진 안내", Content: json.RawMessage(holidayDelta), Status: "published"})
	mustStore(t, database, cfg, ops.StoreInput{Title: "진료 시간"})
	mustStore(t, database, cfg, ops.StoreInput{Title: "주차 안내", Status: "published"})

	out, err := runCLI(t, database, cfg, "", "list")
	require.NoError(t, err)
	var list ops.ListOutput
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list.Items, 3)
	assert.Equal(t, 3, list.Pagination.Total)

	out, err = runCLI(t, database, cfg, "", "list", "--status=published", "--limit=1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Pagination.Total)
	assert.True(t, list.Pagination.HasMore)

	out, err = runCLI(t, database, cfg, "", "search", "휴진")
	require.NoError(t, err)
	var search ops.SearchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &search))
	require.Len(t, search.Items, 1)
	assert.Equal(t, "추석 휴진 안내", search.Items[0].Title)

	_, err = runCLI(t, database, cfg, "", "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_REQUEST")
}

func TestCLIPreview(t *testing.T) {
	database, cfg := setupTestDB(t)

	out, err := runCLI(t, database, cfg, holidayDelta, "preview", "--html")
	require.NoError(t, err)
	assert.Equal(t, "<p>추석 연휴 <strong>휴진</strong> 안내</p>\n", out)

	out, err = runCLI(t, database, cfg, holidayDelta, "preview")
	require.NoError(t, err)
	var preview ops.PreviewOutput
	require.NoError(t, json.Unmarshal([]byte(out), &preview))
	assert.Equal(t, "추석 연휴 휴진 안내", preview.Excerpt)
}

func TestCLIExportImport(t *testing.T) {
	database, cfg := setupTestDB(t)
	mustStore(t, database, cfg, ops.StoreInput{Title: "추석 휴진 안내", Content: json.RawMessage(holidayDelta)})
	mustStore(t, database, cfg, ops.StoreInput{Title: "진료 시간"})

	path := filepath.Join(t.TempDir(), "backup.jsonl")
	out, err := runCLI(t, database, cfg, "", "export", "--path="+path)
	require.NoError(t, err)
	var exported ops.ExportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	assert.Equal(t, 2, exported.Count)

	other, _ := setupTestDB(t)
	out, err = runCLI(t, other, cfg, "", "import", "--path="+path)
	require.NoError(t, err)
	var imported ops.ImportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	assert.Equal(t, 2, imported.Imported)
	assert.Empty(t, imported.Errors)

	_, err = runCLI(t, other, cfg, "", "import")
	require.Error(t, err, "--path is required")
}

func TestCLIRebuild(t *testing.T) {
	database, cfg := setupTestDB(t)
	mustStore(t, database, cfg, ops.StoreInput{Title: "추석 휴진 안내", Content: json.RawMessage(holidayDelta)})

	out, err := runCLI(t, database, cfg, "", "rebuild")
	require.NoError(t, err)
	var rebuilt ops.RebuildOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rebuilt))
	assert.Equal(t, 1, rebuilt.Total)
	assert.Equal(t, 1, rebuilt.Rebuilt)
}

func TestCLICategory(t *testing.T) {
	database, cfg := setupTestDB(t)

	_, err := runCLI(t, database, cfg, "", "category", "create", "--slug=closures", "--name=휴진 안내", "--description=**휴진** 일정")
	require.NoError(t, err)

	_, err = runCLI(t, database, cfg, "", "category", "create", "--slug=closures", "--name=중복")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFLICT")

	out, err := runCLI(t, database, cfg, "", "category", "list")
	require.NoError(t, err)
	var cats ops.ListCategoriesOutput
	require.NoError(t, json.Unmarshal([]byte(out), &cats))
	require.Len(t, cats.Items, 1)
	assert.Equal(t, "closures", cats.Items[0].Slug)
	assert.Equal(t, "**휴진** 일정", cats.Items[0].DescriptionMD)
}
