package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ravindharnaik/high-ticket-podcast-finder/internal/model"
)

// FileStore persists quota counters as a JSON file. Used when no database is
// configured; survives process restarts on a single host.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the stored counters. A missing file is not an error; it returns
// (nil, nil) and the tracker starts fresh.
func (s *FileStore) Load(_ context.Context) (*model.QuotaUsage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read quota file: %w", err)
	}

	var usage model.QuotaUsage
	if err := json.Unmarshal(data, &usage); err != nil {
		return nil, fmt.Errorf("parse quota file %s: %w", s.path, err)
	}
	return &usage, nil
}

// Save writes the counters atomically (temp file + rename) so a crash
// mid-write never leaves a truncated state file.
func (s *FileStore) Save(_ context.Context, usage *model.QuotaUsage) error {
	data, err := json.MarshalIndent(usage, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write quota file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace quota file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)

// DefaultQuotaPath resolves a relative quota file path against the working
// directory.
func DefaultQuotaPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(wd, path)
}
