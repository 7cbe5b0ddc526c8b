package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abeer-rozba/vr-therapy-server/internal/domain"
)

// FileResource keeps the whole session document in one JSON file. Commits
// write to a temp file in the same directory and rename it over the target,
// so a reader never observes a half-written document.
type FileResource struct {
	path string
}

func NewFileResource(path string) *FileResource {
	return &FileResource{path: path}
}

type document struct {
	Sessions map[string]*domain.SessionRecord `json:"sessions"`
}

func (f *FileResource) ReadAll(ctx context.Context) (map[string]*domain.SessionRecord, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]*domain.SessionRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("corrupt session document: %w", err)
	}
	if doc.Sessions == nil {
		doc.Sessions = map[string]*domain.SessionRecord{}
	}
	return doc.Sessions, nil
}

func (f *FileResource) ReplaceAll(ctx context.Context, sessions map[string]*domain.SessionRecord) error {
	raw, err := json.MarshalIndent(document{Sessions: sessions}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".sessions-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (f *FileResource) Close() error { return nil }
