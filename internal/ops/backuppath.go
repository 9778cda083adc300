package ops

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/errors"
)

// backupAccess says whether a backup file is about to be read or written.
type backupAccess int

const (
	backupRead backupAccess = iota
	backupWrite
)

// maxHeaderLine bounds how much of an existing file is read to recognize a
// notice export header.
const maxHeaderLine = 4096

// resolveBackupPath checks a notice backup path and returns it absolute.
//
// A backup is a .jsonl file whose real parent directory is the exports
// directory or one of cfg.AllowedPaths; AllowUnsafePaths lifts that rule.
// The file must be a regular file, never a symlink, and an existing file is
// overwritten only when it already holds a notice export.
func resolveBackupPath(path string, access backupAccess, cfg *config.Config) (string, error) {
	if path == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if hasDotDot(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	name := filepath.Base(abs)
	if filepath.Ext(name) != ".jsonl" {
		return "", errors.NewInvalidRequest("backup file must have .jsonl extension")
	}
	if strings.HasPrefix(name, ".") {
		return "", errors.NewInvalidRequest("backup file name must not start with a dot")
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkBackupDir(filepath.Dir(abs), cfg); err != nil {
			return "", err
		}
	}

	info, err := os.Lstat(abs)
	switch {
	case os.IsNotExist(err):
		if access == backupRead {
			return "", errors.NewFileNotFound(path)
		}
		return abs, nil
	case err != nil:
		return "", errors.NewInternal(fmt.Errorf("stat backup file: %w", err))
	case info.Mode()&os.ModeSymlink != 0:
		return "", errors.NewInvalidRequest("path must not be a symlink")
	case !info.Mode().IsRegular():
		return "", errors.NewInvalidRequest("backup path is not a regular file")
	}

	if access == backupWrite && info.Size() > 0 {
		ok, err := isNoticeExport(abs)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.NewConflict(fmt.Sprintf("%s exists and is not a notice export", path))
		}
	}
	return abs, nil
}

// checkBackupDir fails unless dir, with symlinks resolved, is a backup root.
func checkBackupDir(dir string, cfg *config.Config) error {
	roots, err := backupRoots(cfg)
	if err != nil {
		return err
	}
	if slices.Contains(roots, realDir(dir)) {
		return nil
	}
	return errors.NewInvalidRequest(fmt.Sprintf(
		"backup files must sit directly in one of: %s", strings.Join(roots, ", ")))
}

// backupRoots lists the exports directory and every absolute AllowedPaths
// entry, resolved the same way as the candidate directory.
func backupRoots(cfg *config.Config) ([]string, error) {
	exports, err := exportsDir()
	if err != nil {
		return nil, err
	}
	roots := []string{realDir(exports)}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				roots = append(roots, realDir(p))
			}
		}
	}
	return roots, nil
}

// realDir resolves symlinks in dir. A directory that does not exist yet is
// only cleaned.
func realDir(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved
	}
	return filepath.Clean(dir)
}

// isNoticeExport reports whether the file starts with an export header line.
func isNoticeExport(path string) (bool, error) {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return false, err
		}
		return false, errors.NewInternal(fmt.Errorf("open backup file: %w", err))
	}
	defer f.Close()

	line, err := bufio.NewReader(io.LimitReader(f, maxHeaderLine)).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return false, errors.NewInternal(fmt.Errorf("read backup file: %w", err))
	}
	var header ExportHeader
	if json.Unmarshal(line, &header) != nil {
		return false, nil
	}
	return header.BoardExport, nil
}

// exportsDir returns ~/.clinicboard/exports, created by db.Init.
func exportsDir() (string, error) {
	base, err := config.DefaultBaseDir()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return filepath.Join(base, "exports"), nil
}

func hasDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
