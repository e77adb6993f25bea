package watermark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists watermarks as one text file per table under a state
// directory, using the same relative layout as the S3 backend. Writes go
// through a temp file and rename so a crash never leaves a torn watermark.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed watermark store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(table string) string {
	return filepath.Join(s.dir, filepath.FromSlash(Key(table)))
}

// Read returns the stored watermark for a table, or ErrNotFound.
func (s *FileStore) Read(ctx context.Context, table string) (Watermark, error) {
	if err := ctx.Err(); err != nil {
		return Watermark{}, err
	}

	data, err := os.ReadFile(s.path(table))
	if os.IsNotExist(err) {
		return Watermark{}, ErrNotFound
	}
	if err != nil {
		return Watermark{}, fmt.Errorf("failed to read watermark for %s: %w", table, err)
	}

	w, err := Parse(string(data))
	if err != nil {
		return Watermark{}, fmt.Errorf("failed to parse watermark for %s: %w", table, err)
	}
	return w, nil
}

// Write overwrites the stored watermark for a table atomically.
func (s *FileStore) Write(ctx context.Context, table string, w Watermark) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.path(table)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create watermark directory for %s: %w", table, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(w.String()), 0644); err != nil {
		return fmt.Errorf("failed to write watermark for %s: %w", table, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit watermark for %s: %w", table, err)
	}

	return nil
}

// Delete removes the stored watermark for a table.
func (s *FileStore) Delete(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.path(table))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete watermark for %s: %w", table, err)
	}
	return nil
}
