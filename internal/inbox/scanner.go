package inbox

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ScannedFile is a supported file found in the inbox.
type ScannedFile struct {
	RelPath string // Relative path from the inbox root, forward slashes
	AbsPath string
}

// Scan walks the inbox and returns every supported file. Hidden files and
// directories are skipped.
func (w *Watcher) Scan(ctx context.Context) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if d.IsDir() {
			if path != w.dir && isHidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.accepts(path) {
			return nil
		}

		relPath, err := filepath.Rel(w.dir, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		files = append(files, ScannedFile{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to scan inbox %s: %w", w.dir, err)
	}
	return files, nil
}

// accepts reports whether path is a visible file with a supported extension.
func (w *Watcher) accepts(path string) bool {
	if isHidden(path) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
