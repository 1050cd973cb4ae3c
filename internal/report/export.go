package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/removalscan/internal/model"
)

// WriteFile writes records in format to path, creating the parent
// directory.
func WriteFile(path string, format Format, records []model.Record, opts ...Option) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // path comes from the user or DefaultFilename
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing export file: %w", cerr)
		}
	}()

	w, err := NewWriter(format, f, opts...)
	if err != nil {
		return err
	}
	if err := w.Write(records); err != nil {
		return fmt.Errorf("writing %s export: %w", format, err)
	}
	return nil
}

// ExportAll writes one file per supported format into dir and returns the
// paths in Formats order.
func ExportAll(dir string, records []model.Record, at time.Time, opts ...Option) ([]string, error) {
	paths := make([]string, 0, len(Formats))
	for _, format := range Formats {
		path := DefaultFilename(dir, format, at)
		if err := WriteFile(path, format, records, opts...); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
