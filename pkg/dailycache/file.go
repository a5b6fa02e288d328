package dailycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileCache stores one JSON file per key under a base directory. It suits
// single-instance deployments where the scratch disk outlives a process
// restart but not the host. Old day files accumulate until an external
// cleanup removes them.
type FileCache[V any] struct {
	dir    string
	logger zerolog.Logger
}

// NewFileCache creates a file-per-key cache rooted at dir, creating the
// directory if needed.
func NewFileCache[V any](dir string, logger zerolog.Logger) (*FileCache[V], error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileCache[V]{
		dir:    dir,
		logger: logger.With().Str("component", "FileCache").Logger(),
	}, nil
}

// FetchFromCache reads and decodes the entry file for key, or ErrMiss.
// A corrupt file is treated as a miss so the entry gets recomputed.
func (c *FileCache[V]) FetchFromCache(_ context.Context, key Key) (V, error) {
	var zero V
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zero, ErrMiss
		}
		return zero, fmt.Errorf("failed to read cache file: %w", err)
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		c.logger.Warn().Err(err).Str("key", string(key)).Msg("Corrupt cache file, treating as miss.")
		return zero, ErrMiss
	}
	return value, nil
}

// WriteToCache encodes the entry and writes it atomically via a temp file
// rename, so a concurrent reader never observes a half-written entry.
func (c *FileCache[V]) WriteToCache(_ context.Context, key Key, value V) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, string(key)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// Close is a no-op for the file cache.
func (c *FileCache[V]) Close() error {
	return nil
}

func (c *FileCache[V]) path(key Key) string {
	return filepath.Join(c.dir, string(key)+".json")
}
