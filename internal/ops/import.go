package ops

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/db"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/notice"
	"github.com/hanul-clinic/clinicboard/internal/richtext"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision (atomic)
	ImportModeReplace ImportMode = "replace" // overwrite on collision
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one record that was not imported.
type ImportError struct {
	Line    int    `json:"line"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// importLineSlack is added to the content size limit when sizing the line
// buffer, leaving room for the other record fields.
const importLineSlack = 64 * 1024

// pendingRecord is a parsed, validated record ready to be written.
type pendingRecord struct {
	line   int
	notice *notice.Notice
}

// Import restores notices from a JSONL export file. Content is re-validated
// and html_content/plain_text are recomputed for every record.
//
// In error mode nothing is written unless every record is valid and no id
// already exists. In replace mode invalid records are skipped and existing
// ids are overwritten.
func Import(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	if input.Mode != ImportModeError && input.Mode != ImportModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}

	path, err := resolveBackupPath(input.Path, backupRead, cfg)
	if err != nil {
		return nil, err
	}
	file, err := openFileNoFollowRead(path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, importErrors := parseExportFile(ctx, database, cfg, file)

	if input.Mode == ImportModeError {
		if len(importErrors) > 0 {
			return &ImportOutput{Errors: importErrors}, nil
		}
		return importAtomic(ctx, database, records)
	}
	return importReplace(ctx, database, records, importErrors)
}

// parseExportFile reads every record and prepares it for insertion. Category
// slugs are resolved here, before any transaction is opened.
func parseExportFile(ctx context.Context, database *sql.DB, cfg *config.Config, r io.Reader) ([]pendingRecord, []ImportError) {
	var (
		records []pendingRecord
		errs    []ImportError
	)

	maxLine := importLineSlack
	if cfg != nil && cfg.NoticeMaxBytes > 0 {
		maxLine += cfg.NoticeMaxBytes * 2
	} else {
		maxLine += config.DefaultConfig().NoticeMaxBytes * 2
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	lineNum := 0
	categories := map[string]*int64{}

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record notice.ExportRecord
		if err := json.Unmarshal(line, &record); err != nil {
			errs = append(errs, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if record.BoardExport {
			continue
		}

		n, err := prepareRecord(ctx, database, cfg, &record, categories)
		if err != nil {
			code := "INVALID_RECORD"
			if bErr, ok := errors.As(err); ok {
				code = string(bErr.Code)
			}
			errs = append(errs, ImportError{
				Line:    lineNum,
				ID:      record.ID,
				Code:    code,
				Message: err.Error(),
			})
			continue
		}
		records = append(records, pendingRecord{line: lineNum, notice: n})
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, ImportError{
			Line:    lineNum + 1,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, errs
}

// prepareRecord validates one record and recomputes its derived fields.
func prepareRecord(ctx context.Context, database *sql.DB, cfg *config.Config, record *notice.ExportRecord, categories map[string]*int64) (*notice.Notice, error) {
	if record.ID == "" {
		return nil, errors.NewInvalidRequest("missing id field")
	}
	n := record.ToNotice()

	title, err := validateTitle(cfg, n.Title)
	if err != nil {
		return nil, err
	}
	n.Title = title

	if _, ok := notice.ParseStatus(string(n.Status)); !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid status %q", n.Status))
	}

	if len(n.Content) > 0 {
		content, err := prepareContent(cfg, n.Content, string(n.ContentFormat))
		if err != nil {
			return nil, err
		}
		n.Content = content.raw
		n.ContentFormat = content.format
		n.HTMLContent = content.html
		n.PlainText = content.plainText
	} else {
		n.ContentFormat = notice.FormatEmpty
		n.PlainText = richtext.FromHTML(n.HTMLContent)
	}

	if n.CategorySlug != nil {
		slug := notice.NormalizeSlug(*n.CategorySlug)
		id, seen := categories[slug]
		if !seen {
			id, err = resolveCategory(ctx, database, &slug)
			if err != nil {
				return nil, err
			}
			categories[slug] = id
		}
		n.CategoryID = id
	}

	if n.UpdatedAt == 0 {
		n.UpdatedAt = n.CreatedAt
	}
	return n, nil
}

// importAtomic inserts all records in one transaction, aborting on the first
// id that already exists.
func importAtomic(ctx context.Context, database *sql.DB, records []pendingRecord) (*ImportOutput, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, rec := range records {
		existing, err := db.GetByID(ctx, tx, rec.notice.ID, true)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return &ImportOutput{
				Errors: []ImportError{{
					Line:    rec.line,
					ID:      rec.notice.ID,
					Code:    "ID_COLLISION",
					Message: fmt.Sprintf("notice with id %q already exists", rec.notice.ID),
				}},
			}, nil
		}

		if err := db.Insert(ctx, tx, rec.notice); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &ImportOutput{
		Imported: len(records),
		Errors:   []ImportError{},
	}, nil
}

// importReplace upserts every valid record; invalid ones were already
// collected as errors and count as skipped.
func importReplace(ctx context.Context, database *sql.DB, records []pendingRecord, importErrors []ImportError) (*ImportOutput, error) {
	out := &ImportOutput{
		Skipped: len(importErrors),
		Errors:  append([]ImportError{}, importErrors...),
	}

	for _, rec := range records {
		if err := db.Upsert(ctx, database, rec.notice); err != nil {
			out.Errors = append(out.Errors, ImportError{
				Line:    rec.line,
				ID:      rec.notice.ID,
				Code:    "WRITE_FAILED",
				Message: err.Error(),
			})
			out.Skipped++
			continue
		}
		out.Imported++
	}

	return out, nil
}
