package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nao1215/removalscan/internal/model"
)

// ErrLocked is returned by Update when another process holds the lock file.
var ErrLocked = errors.New("store is locked by another process")

// lockSuffix is appended to the dataset path to name the lock file.
const lockSuffix = ".lock"

// FileStore keeps the dataset in a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore for path. The file does not need to
// exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the dataset path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the dataset. A missing or empty file is an empty dataset;
// malformed JSON is an error.
func (s *FileStore) Load(ctx context.Context) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Record{}, nil
		}
		return nil, fmt.Errorf("reading store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.Record{}, nil
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding store %s: %w", s.path, err)
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

// Save replaces the dataset with records.
func (s *FileStore) Save(ctx context.Context, records []model.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []model.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil { //nolint:gosec // dataset is public data
		return fmt.Errorf("setting store permissions: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}

// Update runs a read-modify-write cycle under the store's writer lock.
// fn receives the current dataset and returns the new one. If fn fails,
// nothing is written.
func (s *FileStore) Update(ctx context.Context, fn func(existing []model.Record) ([]model.Record, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}
	updated, err := fn(existing)
	if err != nil {
		return err
	}
	return s.Save(ctx, updated)
}

// lock creates the lock file exclusively and returns a function that
// removes it.
func (s *FileStore) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	lockPath := s.path + lockSuffix
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: remove %s if no update is running", ErrLocked, lockPath)
		}
		return nil, fmt.Errorf("creating lock file: %w", err)
	}
	_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
	_ = f.Close()

	return func() { _ = os.Remove(lockPath) }, nil
}

// ModTime returns the dataset's modification time. ok is false when the
// file does not exist.
func (s *FileStore) ModTime() (t time.Time, ok bool, err error) {
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("reading store info: %w", err)
	}
	return info.ModTime(), true, nil
}
