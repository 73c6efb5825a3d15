package data

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"SnakeKeeper/internal/model"
)

const (
	markFilePrefix  = ".auth_failed_mark_"
	markFileContent = "Auth failed at: "
)

// FileMarkerStore keeps one file per mark: <dir>/.auth_failed_mark_<key>.
type FileMarkerStore struct {
	dir string
	now func() time.Time
}

// NewFileMarkerStore creates a file-backed store rooted at dir.
func NewFileMarkerStore(dir string) *FileMarkerStore {
	return &FileMarkerStore{dir: dir, now: time.Now}
}

func (s *FileMarkerStore) path(key string) string {
	return filepath.Join(s.dir, markFilePrefix+sanitizeKey(key))
}

// Exists reports whether the mark file exists.
func (s *FileMarkerStore) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat mark: %w", err)
}

// Create writes the mark file with O_EXCL so an existing mark is never rewritten.
func (s *FileMarkerStore) Create(_ context.Context, key string) (bool, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create mark dir: %w", err)
	}

	f, err := os.OpenFile(s.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create mark: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(markFileContent + s.now().Format(time.RFC3339)); err != nil {
		return true, fmt.Errorf("failed to write mark: %w", err)
	}
	return true, nil
}

// Delete removes the mark file.
func (s *FileMarkerStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete mark: %w", err)
	}
	return nil
}

// List returns every mark in dir, oldest first.
func (s *FileMarkerStore) List(_ context.Context) ([]*model.Mark, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list marks: %w", err)
	}

	marks := make([]*model.Mark, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, markFilePrefix) {
			continue
		}
		marks = append(marks, &model.Mark{
			RoleID:    strings.TrimPrefix(name, markFilePrefix),
			CreatedAt: s.readCreatedAt(filepath.Join(s.dir, name), entry),
			Backend:   MarkerDriverFile,
		})
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i].CreatedAt.Before(marks[j].CreatedAt) })
	return marks, nil
}

// readCreatedAt parses the timestamp in the file, falling back to its mtime
// for marks written by hand or by older tools.
func (s *FileMarkerStore) readCreatedAt(path string, entry os.DirEntry) time.Time {
	if raw, err := os.ReadFile(path); err == nil {
		text := strings.TrimSpace(strings.TrimPrefix(string(raw), markFileContent))
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
			if t, err := time.ParseInLocation(layout, text, time.Local); err == nil {
				return t
			}
		}
	}
	if info, err := entry.Info(); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}

// sanitizeKey keeps keys from escaping the mark directory.
func sanitizeKey(key string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
}
