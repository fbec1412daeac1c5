package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"modbridge/internal/mapping"
)

// JSONFileBackend keeps mappings in a single JSON file as a list of flat
// records. Saves go through a temp file and a rename, so the file on disk is
// always a complete snapshot.
type JSONFileBackend struct {
	path   string
	logger *zap.Logger
}

// NewJSONFileBackend returns a backend for path. The file is created on the
// first save.
func NewJSONFileBackend(path string, logger *zap.Logger) *JSONFileBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONFileBackend{path: path, logger: logger}
}

func (b *JSONFileBackend) Load(_ context.Context) ([]mapping.APIMapping, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return mapping.DecodeRecords(data, b.logger.With(zap.String("path", b.path)))
}

func (b *JSONFileBackend) Save(_ context.Context, mappings []mapping.APIMapping) error {
	data, err := mapping.EncodeRecords(mappings)
	if err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".mappings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", b.path, err)
	}
	return nil
}

func (b *JSONFileBackend) Close() error { return nil }
