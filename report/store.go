package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes rendered PDFs under a base directory, one file per
// document, overwriting previous renders.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Save(_ context.Context, document string, documentID int64, pdf []byte) (string, error) {
	subdir := strings.ToLower(document)
	dir := filepath.Join(s.dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.pdf", documentID))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("report: write pdf: %w", err)
	}
	return "file://" + path, nil
}
